package database

import (
	"fmt"
	"sort"
	"strings"

	"github.com/amoylab/casamento/internal/common/config"
)

type opener func(cfg *config.DatabaseConfig) (Database, error)

var drivers = map[string]opener{
	"sqlite":   NewSQLite,
	"postgres": NewPostgres,
	"mysql":    NewMySQL,
}

// Drivers lists the accepted values of database.type
func Drivers() []string {
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewDatabase opens the store named by cfg.Type, migrating its schema
func NewDatabase(cfg *config.DatabaseConfig) (Database, error) {
	open, ok := drivers[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported database type %q (want one of %s)",
			cfg.Type, strings.Join(Drivers(), ", "))
	}
	return open(cfg)
}

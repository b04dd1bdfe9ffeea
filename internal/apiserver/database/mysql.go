package database

import (
	"context"
	"fmt"

	"github.com/amoylab/casamento/internal/common/config"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// MySQL implements the Database interface using MySQL
type MySQL struct {
	gormDB
	cfg *config.DatabaseConfig
}

// NewMySQL creates a new MySQL instance
func NewMySQL(cfg *config.DatabaseConfig) (Database, error) {
	db := &MySQL{
		cfg: cfg,
	}

	conn, err := gorm.Open(mysql.Open(db.cfg.GetDSN()), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.db = conn
	if err := db.Migrate(context.Background()); err != nil {
		return nil, err
	}
	return db, nil
}

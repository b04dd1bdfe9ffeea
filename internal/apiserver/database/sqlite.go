package database

import (
	"context"
	"fmt"

	"github.com/amoylab/casamento/internal/common/config"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// SQLite implements the Database interface using SQLite
type SQLite struct {
	gormDB
	cfg *config.DatabaseConfig
}

// NewSQLite creates a new SQLite instance
func NewSQLite(cfg *config.DatabaseConfig) (Database, error) {
	db := &SQLite{
		cfg: cfg,
	}

	conn, err := gorm.Open(sqlite.Open(db.cfg.GetDSN()), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; one connection also keeps an in-memory
	// database alive across queries.
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	db.db = conn
	if err := db.Migrate(context.Background()); err != nil {
		return nil, err
	}
	return db, nil
}

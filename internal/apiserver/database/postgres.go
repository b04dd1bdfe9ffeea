package database

import (
	"context"
	"fmt"

	"github.com/amoylab/casamento/internal/common/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Postgres implements the Database interface using PostgreSQL
type Postgres struct {
	gormDB
	cfg *config.DatabaseConfig
}

// NewPostgres creates a new Postgres instance
func NewPostgres(cfg *config.DatabaseConfig) (Database, error) {
	db := &Postgres{
		cfg: cfg,
	}

	conn, err := gorm.Open(postgres.Open(db.cfg.GetDSN()), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.db = conn
	if err := db.Migrate(context.Background()); err != nil {
		return nil, err
	}
	return db, nil
}

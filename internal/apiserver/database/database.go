package database

import (
	"context"
	"fmt"

	"github.com/amoylab/casamento/internal/apiserver/model"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database defines the methods for database operations.
type Database interface {
	// DB returns the handle to query with: the transaction carried by ctx
	// when there is one, the connection pool otherwise.
	DB(ctx context.Context) *gorm.DB

	// Transaction runs fn inside a transaction carried by the context passed
	// to it. Nested calls join the outer transaction.
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Migrate creates or updates the tables of every model.
	Migrate(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}

// gormDB holds what every driver shares once the connection is open
type gormDB struct {
	db *gorm.DB
}

// gormConfig returns the options every driver opens with. Foreign keys are
// not declared in the schema: references and cascades are maintained by
// the service layer inside transactions.
func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Warn),
	}
}

func (g *gormDB) Migrate(ctx context.Context) error {
	if err := g.db.WithContext(ctx).AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Close closes the database connection
func (g *gormDB) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

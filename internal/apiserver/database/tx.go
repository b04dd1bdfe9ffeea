package database

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

func txFrom(ctx context.Context) *gorm.DB {
	tx, _ := ctx.Value(txKey{}).(*gorm.DB)
	return tx
}

// DB returns the transaction carried by ctx, or the pool bound to ctx
func (g *gormDB) DB(ctx context.Context) *gorm.DB {
	if tx := txFrom(ctx); tx != nil {
		return tx
	}
	return g.db.WithContext(ctx)
}

// Transaction commits when fn returns nil and rolls back otherwise. Inside
// an outer transaction fn runs in it and the outer caller decides.
func (g *gormDB) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

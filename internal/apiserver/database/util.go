package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amoylab/casamento/internal/apiserver/model"
	"github.com/amoylab/casamento/internal/common/config"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// InitSuperAdmin creates the configured administrator if no user has its
// username yet. It does nothing when no username is configured.
func InitSuperAdmin(ctx context.Context, db Database, cfg *config.SuperAdminConfig) (bool, error) {
	if cfg.Username == "" {
		return false, nil
	}
	if cfg.Password == "" {
		return false, fmt.Errorf("super admin %q has no password", cfg.Username)
	}

	created := false
	err := db.Transaction(ctx, func(ctx context.Context) error {
		var count int64
		if err := db.DB(ctx).Model(&model.User{}).Where("username = ?", cfg.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		admin := &model.User{
			Username: cfg.Username,
			Email:    cfg.Email,
			Role:     model.RoleAdmin,
			Password: string(hashed),
		}
		if err := db.DB(ctx).Create(admin).Error; err != nil {
			// Another instance won the race
			if IsDuplicateKey(err) {
				return nil
			}
			return err
		}
		created = true
		return nil
	})
	return created, err
}

// IsDuplicateKey reports whether err is a unique constraint violation
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "unique constraint")
}

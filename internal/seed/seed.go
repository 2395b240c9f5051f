package seed

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/invoicedesk/internal/auth/domain"
	"github.com/smallbiznis/invoicedesk/internal/auth/password"
	"github.com/smallbiznis/invoicedesk/internal/config"
	"gorm.io/gorm"
)

// EnsureAdmin creates the bootstrap admin user when it does not exist yet.
// It reports whether a row was inserted.
func EnsureAdmin(ctx context.Context, db *gorm.DB, table string, cfg config.BootstrapConfig) (bool, error) {
	if db == nil {
		return false, errors.New("seed database handle is required")
	}
	username := strings.TrimSpace(cfg.AdminUsername)
	if username == "" {
		return false, nil
	}
	if cfg.AdminPassword == "" {
		return false, errors.New("bootstrap admin password is required")
	}
	if table == "" {
		table = authdomain.DefaultTable
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return false, err
	}

	created := false
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Table(table).Where(map[string]any{"Username": username}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		hashed, err := password.Hash(cfg.AdminPassword)
		if err != nil {
			return err
		}
		user := authdomain.User{
			ID:       node.Generate(),
			Username: username,
			Password: hashed,
			FullName: username,
			Status:   authdomain.StatusActive,
			Type:     authdomain.TypeAdmin,
		}
		if err := tx.Table(table).Create(&user).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

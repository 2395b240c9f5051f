package migration

import (
	"context"

	"github.com/smallbiznis/invoicedesk/internal/config"
	"github.com/smallbiznis/invoicedesk/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		if cfg.DBMigrate {
			if !Supported(cfg.DBType) {
				log.Warn("schema migrations skipped", zap.String("db_type", cfg.DBType))
			} else {
				sqlDB, err := conn.DB()
				if err != nil {
					return err
				}
				if err := RunMigrations(sqlDB, cfg.DBType); err != nil {
					return err
				}
				log.Info("schema migrations applied", zap.String("db_type", cfg.DBType))
			}
		}

		if cfg.Bootstrap.AdminUsername == "" {
			return nil
		}
		created, err := seed.EnsureAdmin(context.Background(), conn, cfg.UserTable, cfg.Bootstrap)
		if err != nil {
			return err
		}
		if created {
			log.Info("bootstrap admin created", zap.String("username", cfg.Bootstrap.AdminUsername))
		}
		return nil
	}),
)

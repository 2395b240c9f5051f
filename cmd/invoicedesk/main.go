package main

import (
	"github.com/smallbiznis/invoicedesk/internal/auth"
	"github.com/smallbiznis/invoicedesk/internal/clock"
	"github.com/smallbiznis/invoicedesk/internal/config"
	"github.com/smallbiznis/invoicedesk/internal/invoice"
	"github.com/smallbiznis/invoicedesk/internal/migration"
	"github.com/smallbiznis/invoicedesk/internal/observability"
	"github.com/smallbiznis/invoicedesk/internal/providers"
	"github.com/smallbiznis/invoicedesk/internal/ratelimit"
	"github.com/smallbiznis/invoicedesk/internal/server"
	"github.com/smallbiznis/invoicedesk/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		clock.Module,
		db.Module,
		migration.Module,
		ratelimit.Module,

		// Domains
		auth.Module,
		providers.Module,
		invoice.Module,

		server.Module,

		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
	)
	app.Run()
}

package email

import (
	"github.com/smallbiznis/invoicedesk/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.email",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) Provider {
	switch cfg.Email.Provider {
	case "noop", "none":
		log.Warn("email provider disabled, messages are accepted but not delivered")
		return &NoOpProvider{host: cfg.Email.SMTPHost}
	default:
		return NewSMTP(Config{
			Host:     cfg.Email.SMTPHost,
			Port:     cfg.Email.SMTPPort,
			Username: cfg.Email.SMTPUsername,
			Password: cfg.Email.SMTPPassword,
			From:     cfg.Email.SMTPFrom,
		}, log)
	}
}

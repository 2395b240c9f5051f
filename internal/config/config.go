package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewRenderConfigHolder),
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	AuthJWTSecret string
	AuthTokenTTL  time.Duration

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
	DBMigrate         bool

	InvoiceTable string
	UserTable    string

	Render    RenderConfig
	Email     EmailConfig
	RateLimit RateLimitConfig
	Bootstrap BootstrapConfig
}

// RenderConfig controls the invoice PDF pipeline. Values here are the defaults
// for the optional hot-reloaded render file (see RenderConfigHolder).
type RenderConfig struct {
	TemplatePath string  `mapstructure:"templatePath"`
	Locale       string  `mapstructure:"locale"`
	Currency     string  `mapstructure:"currency"`
	PaperWidth   float64 `mapstructure:"paperWidth"`
	PaperHeight  float64 `mapstructure:"paperHeight"`
	ChromePath   string  `mapstructure:"chromePath"`
	Concurrency  int     `mapstructure:"concurrency"`
}

type EmailConfig struct {
	Provider     string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LoginRate     float64
	LoginBurst    int
}

type BootstrapConfig struct {
	AdminUsername string
	AdminPassword string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:           getenv("APP_SERVICE", "invoicedesk"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		HTTPAddr:          getenv("HTTP_ADDR", ":"+getenv("PORT", "3000")),
		AuthJWTSecret:     strings.TrimSpace(getenv("JWT_SECRET", "")),
		AuthTokenTTL:      getenvDuration("JWT_TTL", 8*time.Hour),
		OTLPEndpoint:      getenv("OTLP_ENDPOINT", "localhost:4317"),
		DBType:            getenv("DATABASE_TYPE", "mysql"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "3306"),
		DBName:            getenv("DATABASE_NAME", "ATC"),
		DBUser:            getenv("DATABASE_USER", "root"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		DBMigrate:         getenvBool("DATABASE_MIGRATE", false),
		InvoiceTable:      getenv("INVOICE_TABLE", "Invoices"),
		UserTable:         getenv("USER_TABLE", "syusers"),
		Render: RenderConfig{
			TemplatePath: getenv("INVOICE_TEMPLATE_PATH", "templates/invoice.html"),
			Locale:       getenv("INVOICE_LOCALE", "en-US"),
			Currency:     strings.ToUpper(getenv("INVOICE_CURRENCY", "USD")),
			PaperWidth:   getenvFloat("INVOICE_PAPER_WIDTH", 8.5),
			PaperHeight:  getenvFloat("INVOICE_PAPER_HEIGHT", 11),
			ChromePath:   strings.TrimSpace(getenv("CHROME_PATH", "")),
			Concurrency:  getenvInt("INVOICE_RENDER_CONCURRENCY", 4),
		},
		Email: EmailConfig{
			Provider:     strings.ToLower(getenv("EMAIL_PROVIDER", "smtp")),
			SMTPHost:     getenv("SMTP_HOST", "localhost"),
			SMTPPort:     getenvInt("SMTP_PORT", 587),
			SMTPUsername: getenv("SMTP_USER", ""),
			SMTPPassword: getenv("SMTP_PASS", ""),
			SMTPFrom:     getenv("SMTP_FROM", "no-reply@localhost"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     strings.TrimSpace(getenv("RATE_LIMIT_REDIS_ADDR", "localhost:6379")),
			RedisPassword: getenv("RATE_LIMIT_REDIS_PASSWORD", ""),
			RedisDB:       getenvInt("RATE_LIMIT_REDIS_DB", 0),
			LoginRate:     getenvFloat("RATE_LIMIT_LOGIN_RATE", 0.2),
			LoginBurst:    getenvInt("RATE_LIMIT_LOGIN_BURST", 5),
		},
		Bootstrap: BootstrapConfig{
			AdminUsername: strings.TrimSpace(getenv("BOOTSTRAP_ADMIN_USERNAME", "")),
			AdminPassword: getenv("BOOTSTRAP_ADMIN_PASSWORD", ""),
		},
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}

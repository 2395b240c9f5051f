package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// RenderConfigHolder keeps the active render settings. Settings come from the
// environment and may be overridden by an invoicedesk.yml file that is watched
// for changes. Keys missing from the file keep their environment values.
type RenderConfigHolder struct {
	current  atomic.Value // holds RenderConfig
	defaults RenderConfig
	v        *viper.Viper
	log      *zap.Logger
}

// NewStaticRenderConfig returns a holder that never reloads.
func NewStaticRenderConfig(cfg RenderConfig) *RenderConfigHolder {
	holder := &RenderConfigHolder{defaults: cfg}
	holder.current.Store(cfg)
	return holder
}

func NewRenderConfigHolder(cfg Config, log *zap.Logger) (*RenderConfigHolder, error) {
	holder, err := loadRenderConfig(cfg.Render, log, "/etc/invoicedesk", ".")
	if err != nil {
		return nil, err
	}
	holder.watch()
	return holder, nil
}

func loadRenderConfig(defaults RenderConfig, log *zap.Logger, paths ...string) (*RenderConfigHolder, error) {
	if err := validateRenderConfig(defaults); err != nil {
		return nil, err
	}

	holder := &RenderConfigHolder{defaults: defaults, log: log}
	holder.current.Store(defaults)

	v := viper.New()
	v.SetConfigName("invoicedesk")
	v.SetConfigType("yml")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return holder, nil
		}
		return nil, err
	}

	loaded, err := decodeRenderConfig(v, defaults)
	if err != nil {
		return nil, err
	}
	holder.current.Store(loaded)
	holder.v = v
	return holder, nil
}

func (h *RenderConfigHolder) watch() {
	if h.v == nil {
		return
	}
	h.v.OnConfigChange(func(e fsnotify.Event) {
		h.reload(e.Name)
	})
	h.v.WatchConfig()
}

// reload applies the file contents last read by viper. Invalid contents are
// logged and the previous settings stay active.
func (h *RenderConfigHolder) reload(file string) {
	updated, err := decodeRenderConfig(h.v, h.defaults)
	if err != nil {
		h.log.Warn("invalid render config ignored", zap.String("file", file), zap.Error(err))
		return
	}
	h.current.Store(updated)
	h.log.Info("render config reloaded", zap.String("file", file))
}

func (h *RenderConfigHolder) Get() RenderConfig {
	return h.current.Load().(RenderConfig)
}

func decodeRenderConfig(v *viper.Viper, defaults RenderConfig) (RenderConfig, error) {
	loaded := defaults
	if err := v.UnmarshalKey("render", &loaded); err != nil {
		return RenderConfig{}, err
	}
	loaded.Currency = strings.ToUpper(loaded.Currency)
	if err := validateRenderConfig(loaded); err != nil {
		return RenderConfig{}, err
	}
	return loaded, nil
}

func validateRenderConfig(cfg RenderConfig) error {
	if strings.TrimSpace(cfg.TemplatePath) == "" {
		return errors.New("render.templatePath cannot be empty")
	}
	if len(strings.TrimSpace(cfg.Currency)) != 3 {
		return errors.New("render.currency must be an ISO 4217 code")
	}
	if cfg.PaperWidth <= 0 || cfg.PaperHeight <= 0 {
		return errors.New("render paper size must be positive")
	}
	return nil
}

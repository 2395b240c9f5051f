package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/invoicedesk/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyLoginAttempt = "invoicedesk:login:%s:%s"

// LoginLimiter throttles login attempts per client address and username.
// A nil or disabled limiter allows every attempt.
type LoginLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
	log    *zap.Logger
}

func NewLoginLimiter(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*LoginLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.LoginRate <= 0 || limitCfg.LoginBurst <= 0 {
		return nil, errors.New("login rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return NewLoginLimiterWithScripter(client, limitCfg.LoginRate, limitCfg.LoginBurst, log), nil
}

// NewLoginLimiterWithScripter builds an enabled limiter on an existing Redis
// client.
func NewLoginLimiterWithScripter(client redis.Scripter, rate float64, burst int, log *zap.Logger) *LoginLimiter {
	return &LoginLimiter{
		bucket: NewTokenBucket(client),
		rate:   rate,
		burst:  burst,
		log:    log.Named("ratelimit.login"),
	}
}

func (l *LoginLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// Allow reports whether another login attempt may proceed. Redis failures
// are logged and the attempt is allowed.
func (l *LoginLimiter) Allow(ctx context.Context, clientIP, username string) bool {
	if !l.Enabled() {
		return true
	}
	key := fmt.Sprintf(keyLoginAttempt, strings.TrimSpace(clientIP), strings.ToLower(strings.TrimSpace(username)))
	res, err := l.bucket.Allow(ctx, key, l.rate, l.burst)
	if err != nil {
		l.log.Warn("login rate limit check failed", zap.Error(err))
		return true
	}
	if !res.Allowed {
		l.log.Info("login attempt throttled",
			zap.String("client_ip", clientIP),
			zap.Duration("retry_after", res.RetryAfter),
		)
	}
	return res.Allowed
}

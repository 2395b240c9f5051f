package token

import (
	"crypto/rand"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/smallbiznis/invoicedesk/internal/auth/domain"
	"github.com/smallbiznis/invoicedesk/internal/clock"
	"github.com/smallbiznis/invoicedesk/internal/config"
	"go.uber.org/zap"
)

// DefaultTTL is the lifetime of an issued token.
const DefaultTTL = 8 * time.Hour

type claims struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 bearer tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

func NewIssuer(cfg config.Config, clk clock.Clock, log *zap.Logger) (*Issuer, error) {
	secret := []byte(cfg.AuthJWTSecret)
	if len(secret) == 0 {
		if cfg.IsProduction() {
			return nil, errors.New("JWT_SECRET is required in production")
		}
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
		log.Warn("JWT_SECRET not set, using an ephemeral signing key")
	}
	return New(secret, cfg.AuthTokenTTL, clk), nil
}

func New(secret []byte, ttl time.Duration, clk clock.Clock) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Issuer{secret: secret, ttl: ttl, clock: clk}
}

// Issue returns a signed token for the user and its expiry.
func (i *Issuer) Issue(userID, username string) (string, time.Time, error) {
	now := i.clock.Now()
	expiresAt := now.Add(i.ttl)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse verifies the signature and expiry of raw.
func (i *Issuer) Parse(raw string) (*domain.Principal, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrInvalidToken
	}

	principal := &domain.Principal{
		UserID:   c.UserID,
		Username: c.Username,
	}
	if c.IssuedAt != nil {
		principal.IssuedAt = c.IssuedAt.Time.UTC()
	}
	if c.ExpiresAt != nil {
		principal.ExpiresAt = c.ExpiresAt.Time.UTC()
	}
	return principal, nil
}

package domain

import (
	"context"
	"time"
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Authenticate(ctx context.Context, rawToken string) (*Principal, error)
}

type RegisterRequest struct {
	Username string
	Password string
}

type LoginRequest struct {
	Username string
	Password string
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *User
}

package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicedesk/internal/auth/domain"
	"github.com/smallbiznis/invoicedesk/internal/auth/password"
	"github.com/smallbiznis/invoicedesk/internal/auth/token"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log    *zap.Logger
	Repo   domain.Repository
	Issuer *token.Issuer
	GenID  *snowflake.Node
}

type Service struct {
	log    *zap.Logger
	repo   domain.Repository
	issuer *token.Issuer
	genID  *snowflake.Node
}

func New(p Params) domain.Service {
	return &Service{
		log:    p.Log.Named("auth.service"),
		repo:   p.Repo,
		issuer: p.Issuer,
		genID:  p.GenID,
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, domain.ErrInvalidRequest
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:       s.genID.Generate(),
		Username: username,
		Password: hashed,
		FullName: username,
		Status:   domain.StatusActive,
		Type:     domain.TypeAdmin,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("user registered", zap.String("user_id", user.ID.String()), zap.String("username", username))
	return user, nil
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, domain.ErrInvalidRequest
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !password.Verify(req.Password, user.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	raw, expiresAt, err := s.issuer.Issue(user.ID.String(), user.Username)
	if err != nil {
		return nil, err
	}

	return &domain.LoginResult{
		Token:     raw,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*domain.Principal, error) {
	raw := strings.TrimSpace(rawToken)
	if raw == "" {
		return nil, domain.ErrMissingToken
	}
	principal, err := s.issuer.Parse(raw)
	if err != nil {
		if !errors.Is(err, domain.ErrTokenExpired) {
			s.log.Debug("token rejected", zap.Error(err))
		}
		return nil, err
	}
	return principal, nil
}

package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/invoicedesk/internal/auth/domain"
	"github.com/smallbiznis/invoicedesk/internal/config"
	"github.com/smallbiznis/invoicedesk/pkg/db"
	"gorm.io/gorm"
)

type repo struct {
	db    *gorm.DB
	table string
}

func New(conn *gorm.DB, cfg config.Config) domain.Repository {
	return NewWithTable(conn, cfg.UserTable)
}

func NewWithTable(conn *gorm.DB, table string) domain.Repository {
	if table == "" {
		table = domain.DefaultTable
	}
	return &repo{db: conn, table: table}
}

func (r *repo) session(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table(r.table)
}

func (r *repo) Create(ctx context.Context, user *domain.User) error {
	err := r.session(ctx).Create(user).Error
	if db.IsDuplicateKeyErr(err) {
		return domain.ErrUserExists
	}
	return err
}

func (r *repo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := r.session(ctx).Where(map[string]any{"Username": username}).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/invoicedesk/pkg/db/option"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type store[T any] struct {
	db    *gorm.DB
	table string
}

// ProvideStore returns a store for T. When table is empty the model's
// TableName is used.
func ProvideStore[T any](db *gorm.DB, table string) Repository[T] {
	return &store[T]{db: db, table: table}
}

func (r *store[T]) WithTrx(tx *gorm.DB) Repository[T] {
	return &store[T]{db: tx, table: r.table}
}

func (r *store[T]) Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error) {
	var result []*T
	err := r.buildQuery(ctx, query, opts...).Find(&result).Error
	return result, err
}

func (r *store[T]) FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error) {
	var result T
	err := r.buildQuery(ctx, query, opts...).Take(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *store[T]) Create(ctx context.Context, resource *T) error {
	return r.session(ctx).Create(resource).Error
}

func (r *store[T]) UpdateFields(ctx context.Context, query *T, fields map[string]any) (int64, error) {
	tx := r.session(ctx).Model(new(T)).Where(query).Updates(fields)
	return tx.RowsAffected, tx.Error
}

func (r *store[T]) Count(ctx context.Context, query *T, opts ...option.QueryOption) (int64, error) {
	var count int64
	err := r.buildQuery(ctx, query, opts...).Model(new(T)).Count(&count).Error
	return count, err
}

func (r *store[T]) Distinct(ctx context.Context, column string) ([]string, error) {
	var values []string
	col := clause.Column{Name: column}
	err := r.session(ctx).
		Model(new(T)).
		Where(clause.Expr{SQL: "? IS NOT NULL", Vars: []any{col}}).
		Order(clause.OrderByColumn{Column: col}).
		Distinct().
		Pluck(column, &values).Error
	return values, err
}

func (r *store[T]) session(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.table != "" {
		db = db.Table(r.table)
	}
	return db
}

func (r *store[T]) buildQuery(ctx context.Context, filter *T, opts ...option.QueryOption) *gorm.DB {
	db := r.session(ctx)
	if filter != nil {
		db = db.Where(filter)
	}

	for _, opt := range opts {
		db = opt.Apply(db)
	}

	return db
}

package repository

import (
	"context"

	"github.com/smallbiznis/invoicedesk/pkg/db/option"
	"gorm.io/gorm"
)

// Repository is a thin generic gateway over one table.
type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Create(ctx context.Context, resource *T) error
	// UpdateFields writes the given columns on rows matching query and returns
	// the number of rows the store reports as affected.
	UpdateFields(ctx context.Context, query *T, fields map[string]any) (int64, error)
	Count(ctx context.Context, query *T, opts ...option.QueryOption) (int64, error)
	// Distinct returns the sorted set of distinct non-null values of column.
	Distinct(ctx context.Context, column string) ([]string, error)
}

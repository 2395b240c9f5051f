package repository

import (
	"context"
	"strings"

	"github.com/smallbiznis/invoicedesk/internal/config"
	"github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/pkg/db/option"
	"github.com/smallbiznis/invoicedesk/pkg/repository"
	"gorm.io/gorm"
)

// Repository is the record store gateway for the invoice table. Each call is
// a single statement; nothing spans a transaction.
type Repository interface {
	List(ctx context.Context, q domain.ListQuery) ([]*domain.Invoice, error)
	FindByID(ctx context.Context, id string) (*domain.Invoice, error)
	UpdateFields(ctx context.Context, id string, columns map[string]any) (int64, error)
	Distinct(ctx context.Context, column string) ([]string, error)
}

type repo struct {
	store repository.Repository[domain.Invoice]
}

func New(db *gorm.DB, cfg config.Config) Repository {
	return NewWithTable(db, cfg.InvoiceTable)
}

func NewWithTable(db *gorm.DB, table string) Repository {
	table = strings.TrimSpace(table)
	if table == "" {
		table = domain.DefaultTable
	}
	return &repo{store: repository.ProvideStore[domain.Invoice](db, table)}
}

func (r *repo) List(ctx context.Context, q domain.ListQuery) ([]*domain.Invoice, error) {
	return r.store.Find(ctx, nil,
		option.WithSelect(q.Projection.Columns...),
		option.ApplyOperator(option.Condition{
			Field:    domain.ColumnIssueDate,
			Operator: option.GTE,
			Value:    q.Range.Start,
		}),
		// End is inclusive; compare against the following midnight so rows
		// stored with a time component on the last day still match.
		option.ApplyOperator(option.Condition{
			Field:    domain.ColumnIssueDate,
			Operator: option.LT,
			Value:    q.Range.End.AddDate(0, 0, 1),
		}),
		option.WithSortBy(
			option.QuerySortBy{Field: domain.ColumnIssueDate, Desc: true},
			option.QuerySortBy{Field: domain.ColumnID, Desc: true},
		),
		option.WithLimitOffset(q.Page.Size, q.Page.Offset),
	)
}

func (r *repo) FindByID(ctx context.Context, id string) (*domain.Invoice, error) {
	return r.store.FindOne(ctx, &domain.Invoice{ID: id})
}

func (r *repo) UpdateFields(ctx context.Context, id string, columns map[string]any) (int64, error) {
	return r.store.UpdateFields(ctx, &domain.Invoice{ID: id}, columns)
}

func (r *repo) Distinct(ctx context.Context, column string) ([]string, error) {
	return r.store.Distinct(ctx, column)
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/smallbiznis/invoicedesk/internal/config"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/internal/invoice/repository"
	"github.com/smallbiznis/invoicedesk/internal/observability/metrics"
	"github.com/smallbiznis/invoicedesk/internal/providers/email"
	"github.com/smallbiznis/invoicedesk/pkg/db/pagination"
	"github.com/spf13/afero"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log        *zap.Logger
	Repo       repository.Repository
	Renderer   invoicedomain.TemplateRenderer
	Rasterizer invoicedomain.Rasterizer
	Merger     invoicedomain.Merger
	Mailer     email.Provider
	Fs         afero.Fs
	RenderCfg  *config.RenderConfigHolder
	Metrics    *metrics.Metrics `optional:"true"`
}

type Service struct {
	log *zap.Logger

	repo       repository.Repository
	renderer   invoicedomain.TemplateRenderer
	rasterizer invoicedomain.Rasterizer
	merger     invoicedomain.Merger
	mailer     email.Provider
	fs         afero.Fs
	renderCfg  *config.RenderConfigHolder
	metrics    *metrics.Metrics
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		log:        p.Log.Named("invoice.service"),
		repo:       p.Repo,
		renderer:   p.Renderer,
		rasterizer: p.Rasterizer,
		merger:     p.Merger,
		mailer:     p.Mailer,
		fs:         p.Fs,
		renderCfg:  p.RenderCfg,
		metrics:    p.Metrics,
	}
}

func (s *Service) List(ctx context.Context, rng invoicedomain.DateRange, page pagination.Offset) (invoicedomain.ListResult[invoicedomain.Summary], error) {
	projection := invoicedomain.SummaryProjection
	rows, err := s.list(ctx, invoicedomain.ListQuery{Range: rng, Page: page, Projection: projection})
	if err != nil {
		return invoicedomain.ListResult[invoicedomain.Summary]{}, err
	}

	items := make([]invoicedomain.Summary, 0, len(rows))
	for _, row := range rows {
		items = append(items, invoicedomain.NewSummary(row, projection.DateLayout))
	}
	return invoicedomain.ListResult[invoicedomain.Summary]{List: items, Total: len(items), Result: len(items) > 0}, nil
}

func (s *Service) ListFull(ctx context.Context, rng invoicedomain.DateRange, page pagination.Offset) (invoicedomain.ListResult[invoicedomain.Detail], error) {
	projection := invoicedomain.DetailProjection
	rows, err := s.list(ctx, invoicedomain.ListQuery{Range: rng, Page: page, Projection: projection})
	if err != nil {
		return invoicedomain.ListResult[invoicedomain.Detail]{}, err
	}

	items := make([]invoicedomain.Detail, 0, len(rows))
	for _, row := range rows {
		items = append(items, invoicedomain.NewDetail(row, projection.DateLayout))
	}
	return invoicedomain.ListResult[invoicedomain.Detail]{List: items, Total: len(items), Result: len(items) > 0}, nil
}

// list validates the query before any statement is issued.
func (s *Service) list(ctx context.Context, q invoicedomain.ListQuery) ([]*invoicedomain.Invoice, error) {
	if err := q.Page.Validate(); err != nil {
		return nil, err
	}
	if q.Range.Start.IsZero() || q.Range.End.IsZero() || q.Range.Start.After(q.Range.End) {
		return nil, invoicedomain.ErrInvalidDateRange
	}
	return s.repo.List(ctx, q)
}

func (s *Service) GetByID(ctx context.Context, id string) (invoicedomain.Detail, error) {
	inv, err := s.fetch(ctx, id)
	if err != nil {
		return invoicedomain.Detail{}, err
	}
	return invoicedomain.NewDetail(inv, invoicedomain.DetailProjection.DateLayout), nil
}

func (s *Service) fetch(ctx context.Context, id string) (*invoicedomain.Invoice, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invoicedomain.ErrInvalidInvoiceID
	}
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, invoicedomain.ErrInvoiceNotFound
	}
	return inv, nil
}

// Update writes the known fields of a partial update. Unknown names are
// dropped; no statement is issued when nothing known remains.
func (s *Service) Update(ctx context.Context, id string, fields map[string]any) (invoicedomain.UpdateResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return invoicedomain.UpdateResult{}, invoicedomain.ErrInvalidInvoiceID
	}

	columns := make(map[string]any, len(fields))
	accepted := make([]string, 0, len(fields))
	for name, raw := range fields {
		field, ok := invoicedomain.UpdatableFields[name]
		if !ok {
			continue
		}
		value, err := convertValue(name, field.Kind, raw)
		if err != nil {
			return invoicedomain.UpdateResult{}, err
		}
		columns[field.Column] = value
		accepted = append(accepted, name)
	}
	if len(columns) == 0 {
		return invoicedomain.UpdateResult{}, invoicedomain.ErrEmptyUpdate
	}
	sort.Strings(accepted)

	affected, err := s.repo.UpdateFields(ctx, id, columns)
	if err != nil {
		return invoicedomain.UpdateResult{}, err
	}
	if affected == 0 {
		return invoicedomain.UpdateResult{}, invoicedomain.ErrNotFoundOrUnchanged
	}

	s.log.Info("invoice updated", zap.String("invoice_id", id), zap.Strings("fields", accepted))
	return invoicedomain.UpdateResult{InvoiceID: id, UpdatedFields: accepted}, nil
}

func (s *Service) DistinctValues(ctx context.Context, lookup string) ([]string, error) {
	column, ok := invoicedomain.LookupColumns[strings.ToLower(lookup)]
	if !ok {
		return nil, fmt.Errorf("unknown lookup %q", lookup)
	}
	values, err := s.repo.Distinct(ctx, column)
	if err != nil {
		return nil, err
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}

func convertValue(name string, kind invoicedomain.FieldKind, raw any) (any, error) {
	if raw == nil {
		if kind == invoicedomain.KindFlag {
			return 0, nil
		}
		return nil, nil
	}

	switch kind {
	case invoicedomain.KindDate:
		str, ok := raw.(string)
		if !ok {
			return nil, &invoicedomain.FieldError{Field: name, Reason: "expected a date string"}
		}
		if strings.TrimSpace(str) == "" {
			return nil, nil
		}
		t, ok := invoicedomain.ParseDate(str)
		if !ok {
			return nil, &invoicedomain.FieldError{Field: name, Reason: "unrecognized date format"}
		}
		return t, nil

	case invoicedomain.KindNumber:
		n, ok := toFloat(raw)
		if !ok {
			return nil, &invoicedomain.FieldError{Field: name, Reason: "expected a number"}
		}
		return n, nil

	case invoicedomain.KindFlag:
		switch v := raw.(type) {
		case bool:
			if v {
				return 1, nil
			}
			return 0, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return nil, &invoicedomain.FieldError{Field: name, Reason: "expected a boolean"}
			}
			if b {
				return 1, nil
			}
			return 0, nil
		}
		n, ok := toFloat(raw)
		if !ok {
			return nil, &invoicedomain.FieldError{Field: name, Reason: "expected a boolean"}
		}
		if n != 0 {
			return 1, nil
		}
		return 0, nil

	default:
		switch v := raw.(type) {
		case string:
			return v, nil
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		case json.Number:
			return v.String(), nil
		default:
			return nil, &invoicedomain.FieldError{Field: name, Reason: "expected a string"}
		}
	}
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

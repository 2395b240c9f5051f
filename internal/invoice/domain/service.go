package domain

import (
	"context"
	"time"

	"github.com/smallbiznis/invoicedesk/pkg/db/pagination"
)

// DateRange is an inclusive range of issue dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ListQuery parameterizes every invoice listing.
type ListQuery struct {
	Range      DateRange
	Page       pagination.Offset
	Projection Projection
}

type ListResult[T any] struct {
	List   []T
	Total  int
	Result bool
}

type UpdateResult struct {
	InvoiceID     string
	UpdatedFields []string
}

// PDFResult is a generated invoice document.
type PDFResult struct {
	Invoice  *Invoice
	Document []byte
	Base64   string
}

// InvoiceRef identifies an invoice to attach. Number, when set, names the
// attachment instead of the stored number.
type InvoiceRef struct {
	ID     string
	Number string
}

type SendRequest struct {
	Recipients []string
	Subject    string
	HTMLBody   string
	Invoices   []InvoiceRef
}

type SendResult struct {
	MessageID    string
	InvoicesSent int
}

type Service interface {
	List(ctx context.Context, rng DateRange, page pagination.Offset) (ListResult[Summary], error)
	ListFull(ctx context.Context, rng DateRange, page pagination.Offset) (ListResult[Detail], error)
	GetByID(ctx context.Context, id string) (Detail, error)
	Update(ctx context.Context, id string, fields map[string]any) (UpdateResult, error)
	DistinctValues(ctx context.Context, lookup string) ([]string, error)
	OriginalPDF(ctx context.Context, id string) (string, error)
	AttachmentPDF(ctx context.Context, id string) (string, error)
	GeneratePDF(ctx context.Context, id string) (PDFResult, error)
	SendInvoices(ctx context.Context, req SendRequest) (SendResult, error)
}

// TemplateRenderer fills the invoice markup template for one record.
type TemplateRenderer interface {
	Render(ctx context.Context, inv *Invoice) (string, error)
}

// Rasterizer hands out isolated rendering contexts. Every acquired context
// must be released exactly once.
type Rasterizer interface {
	Acquire(ctx context.Context) (RenderContext, error)
}

type RenderContext interface {
	// Print renders markup and returns PDF bytes once the page has settled.
	Print(ctx context.Context, markup string) ([]byte, error)
	Release()
}

// Merger concatenates the pages of first and then second.
type Merger interface {
	Merge(first, second []byte) ([]byte, error)
}

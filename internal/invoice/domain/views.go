package domain

import "time"

// Wire date layouts.
const (
	LayoutSummaryDate = "01/02/2006"
	LayoutDetailDate  = "2006-01-02"
)

// Projection selects the columns read for a list and how dates are written.
type Projection struct {
	Columns    []string
	DateLayout string
}

var (
	SummaryProjection = Projection{
		Columns: []string{
			ColumnID, ColumnGroupKey, ColumnNumber, ColumnSalesOrder, ColumnIssueDate,
			ColumnBillTo, ColumnShipTo, ColumnIncoterm, ColumnQuantity, ColumnUnitPrice, ColumnTotal,
		},
		DateLayout: LayoutSummaryDate,
	}
	DetailProjection = Projection{
		DateLayout: LayoutDetailDate,
	}
)

// Summary is the list row returned by POST /api/invoices.
type Summary struct {
	ID               string   `json:"id"`
	GroupKey         *string  `json:"groupKey"`
	Number           *string  `json:"number"`
	SalesOrderNumber *string  `json:"salesOrderNumber"`
	IssueDate        *string  `json:"issueDate"`
	BillTo           *string  `json:"billTo"`
	ShipTo           *string  `json:"shipTo"`
	Incoterm         *string  `json:"incoterm"`
	Quantity         *float64 `json:"quantity"`
	UnitPrice        *float64 `json:"unitPrice"`
	Total            *float64 `json:"total"`
}

// Detail is the full single line projection of one invoice row.
type Detail struct {
	ID               string   `json:"id"`
	GroupKey         *string  `json:"groupKey"`
	Number           *string  `json:"number"`
	SalesOrderNumber *string  `json:"salesOrderNumber"`
	IssueDate        *string  `json:"issueDate"`
	ShipDate         *string  `json:"shipDate"`
	DueDate          *string  `json:"dueDate"`
	BillTo           *string  `json:"billTo"`
	ShipTo           *string  `json:"shipTo"`
	Incoterm         *string  `json:"incoterm"`
	ShipmentMethod   *string  `json:"shipmentMethod"`
	PaymentTerms     *string  `json:"paymentTerms"`
	Notes            *string  `json:"notes"`
	ProductNo        *string  `json:"productNo"`
	Description      *string  `json:"description"`
	UnitOfMeasure    *string  `json:"unitOfMeasure"`
	Quantity         *float64 `json:"quantity"`
	UnitPrice        *float64 `json:"unitPrice"`
	OriginalPrice    *float64 `json:"originalPrice"`
	Amount           *float64 `json:"amount"`
	Subtotal         *float64 `json:"subtotal"`
	Total            *float64 `json:"total"`
	NeedsReview      bool     `json:"needsReview"`
	OriginalPath     *string  `json:"originalPath"`
	AttachmentsPath  *string  `json:"attachmentsPath"`
}

func NewSummary(inv *Invoice, layout string) Summary {
	return Summary{
		ID:               inv.ID,
		GroupKey:         inv.GroupKey,
		Number:           inv.Number,
		SalesOrderNumber: inv.SalesOrderNumber,
		IssueDate:        formatDate(inv.IssueDate, layout),
		BillTo:           inv.BillTo,
		ShipTo:           inv.ShipTo,
		Incoterm:         inv.Incoterm,
		Quantity:         inv.Quantity,
		UnitPrice:        inv.UnitPrice,
		Total:            inv.Total,
	}
}

func NewDetail(inv *Invoice, layout string) Detail {
	return Detail{
		ID:               inv.ID,
		GroupKey:         inv.GroupKey,
		Number:           inv.Number,
		SalesOrderNumber: inv.SalesOrderNumber,
		IssueDate:        formatDate(inv.IssueDate, layout),
		ShipDate:         formatDate(inv.ShipDate, layout),
		DueDate:          formatDate(inv.DueDate, layout),
		BillTo:           inv.BillTo,
		ShipTo:           inv.ShipTo,
		Incoterm:         inv.Incoterm,
		ShipmentMethod:   inv.ShipmentMethod,
		PaymentTerms:     inv.PaymentTerms,
		Notes:            inv.Notes,
		ProductNo:        inv.ProductNo,
		Description:      inv.Description,
		UnitOfMeasure:    inv.UnitOfMeasure,
		Quantity:         inv.Quantity,
		UnitPrice:        inv.UnitPrice,
		OriginalPrice:    inv.OriginalPrice,
		Amount:           inv.Amount,
		Subtotal:         inv.Subtotal,
		Total:            inv.Total,
		NeedsReview:      inv.NeedsReview != 0,
		OriginalPath:     inv.OriginalPath,
		AttachmentsPath:  inv.AttachmentsPath,
	}
}

func formatDate(t *time.Time, layout string) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	s := t.UTC().Format(layout)
	return &s
}

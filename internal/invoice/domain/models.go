// Package domain contains persistence models for invoicing.
package domain

import "time"

const DefaultTable = "Invoices"

// Invoice is one row of the invoice table. Every row carries a single line
// item; rows sharing GroupKey belong to the same invoice header.
type Invoice struct {
	ID               string     `gorm:"column:Id;primaryKey;size:64"`
	GroupKey         *string    `gorm:"column:Consecutivo;size:64"`
	Number           *string    `gorm:"column:Num;size:64"`
	SalesOrderNumber *string    `gorm:"column:S0Num;size:64"`
	IssueDate        *time.Time `gorm:"column:IssueDate;type:date;index"`
	ShipDate         *time.Time `gorm:"column:ShipDate;type:date"`
	DueDate          *time.Time `gorm:"column:DueDate;type:date"`
	BillTo           *string    `gorm:"column:BillTo;type:text"`
	ShipTo           *string    `gorm:"column:ShipTo;type:text"`
	Incoterm         *string    `gorm:"column:lncotenn;size:64"`
	ShipmentMethod   *string    `gorm:"column:ShipVia;size:128"`
	PaymentTerms     *string    `gorm:"column:Terms;size:128"`
	Notes            *string    `gorm:"column:Notes;type:text"`
	ProductNo        *string    `gorm:"column:ProductNo;size:128"`
	Description      *string    `gorm:"column:Description;type:text"`
	UnitOfMeasure    *string    `gorm:"column:UOM;size:32"`
	Quantity         *float64   `gorm:"column:ItemQty;type:decimal(18,4)"`
	UnitPrice        *float64   `gorm:"column:PriceEach;type:decimal(18,5)"`
	OriginalPrice    *float64   `gorm:"column:OriginalPrice;type:decimal(18,5)"`
	Amount           *float64   `gorm:"column:Amount;type:decimal(18,2)"`
	Subtotal         *float64   `gorm:"column:Subtotal;type:decimal(18,2)"`
	Total            *float64   `gorm:"column:Total;type:decimal(18,2)"`
	NeedsReview      int        `gorm:"column:NeedsReview;not null;default:0"`
	OriginalPath     *string    `gorm:"column:OriginalPath;size:1024"`
	AttachmentsPath  *string    `gorm:"column:AttachmentsPath;size:1024"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return DefaultTable }

// DisplayNumber is the human facing invoice number, falling back to the id.
func (i *Invoice) DisplayNumber() string {
	if i.Number != nil && *i.Number != "" {
		return *i.Number
	}
	return i.ID
}

// Column names of the invoice table.
const (
	ColumnID              = "Id"
	ColumnGroupKey        = "Consecutivo"
	ColumnNumber          = "Num"
	ColumnSalesOrder      = "S0Num"
	ColumnIssueDate       = "IssueDate"
	ColumnShipDate        = "ShipDate"
	ColumnDueDate         = "DueDate"
	ColumnBillTo          = "BillTo"
	ColumnShipTo          = "ShipTo"
	ColumnIncoterm        = "lncotenn"
	ColumnShipVia         = "ShipVia"
	ColumnTerms           = "Terms"
	ColumnNotes           = "Notes"
	ColumnProductNo       = "ProductNo"
	ColumnDescription     = "Description"
	ColumnUOM             = "UOM"
	ColumnQuantity        = "ItemQty"
	ColumnUnitPrice       = "PriceEach"
	ColumnOriginalPrice   = "OriginalPrice"
	ColumnAmount          = "Amount"
	ColumnSubtotal        = "Subtotal"
	ColumnTotal           = "Total"
	ColumnNeedsReview     = "NeedsReview"
	ColumnOriginalPath    = "OriginalPath"
	ColumnAttachmentsPath = "AttachmentsPath"
)

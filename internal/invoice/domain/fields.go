package domain

// FieldKind drives how a partial update value is converted before storage.
type FieldKind int

const (
	KindText FieldKind = iota
	KindDate
	KindNumber
	KindFlag
)

type Field struct {
	Column string
	Kind   FieldKind
}

// UpdatableFields maps wire names accepted by a partial update to columns.
// The id and the two file paths are not writable through the API.
var UpdatableFields = map[string]Field{
	"groupKey":         {Column: ColumnGroupKey, Kind: KindText},
	"number":           {Column: ColumnNumber, Kind: KindText},
	"salesOrderNumber": {Column: ColumnSalesOrder, Kind: KindText},
	"issueDate":        {Column: ColumnIssueDate, Kind: KindDate},
	"shipDate":         {Column: ColumnShipDate, Kind: KindDate},
	"dueDate":          {Column: ColumnDueDate, Kind: KindDate},
	"billTo":           {Column: ColumnBillTo, Kind: KindText},
	"shipTo":           {Column: ColumnShipTo, Kind: KindText},
	"incoterm":         {Column: ColumnIncoterm, Kind: KindText},
	"shipmentMethod":   {Column: ColumnShipVia, Kind: KindText},
	"paymentTerms":     {Column: ColumnTerms, Kind: KindText},
	"notes":            {Column: ColumnNotes, Kind: KindText},
	"productNo":        {Column: ColumnProductNo, Kind: KindText},
	"description":      {Column: ColumnDescription, Kind: KindText},
	"unitOfMeasure":    {Column: ColumnUOM, Kind: KindText},
	"quantity":         {Column: ColumnQuantity, Kind: KindNumber},
	"unitPrice":        {Column: ColumnUnitPrice, Kind: KindNumber},
	"originalPrice":    {Column: ColumnOriginalPrice, Kind: KindNumber},
	"amount":           {Column: ColumnAmount, Kind: KindNumber},
	"subtotal":         {Column: ColumnSubtotal, Kind: KindNumber},
	"total":            {Column: ColumnTotal, Kind: KindNumber},
	"needsReview":      {Column: ColumnNeedsReview, Kind: KindFlag},
}

// LookupColumns are the columns served by the distinct value lists.
var LookupColumns = map[string]string{
	"billto":   ColumnBillTo,
	"shipto":   ColumnShipTo,
	"lncotenn": ColumnIncoterm,
}

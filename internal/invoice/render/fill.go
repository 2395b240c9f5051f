package render

import (
	"html/template"
	"regexp"
	"strings"

	"github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/internal/invoice/format"
)

var placeholder = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Fill replaces the first occurrence of each {{Name}} placeholder with its
// value in a single pass over tpl. Later occurrences of the same name and
// unknown placeholders are left untouched, and tokens inside substituted
// values are never expanded.
func Fill(tpl string, values map[string]string) string {
	filled := make(map[string]bool, len(values))
	return placeholder.ReplaceAllStringFunc(tpl, func(token string) string {
		name := token[2 : len(token)-2]
		value, ok := values[name]
		if !ok || filled[name] {
			return token
		}
		filled[name] = true
		return value
	})
}

// Values formats an invoice row into escaped placeholder values.
func Values(inv *domain.Invoice, f *format.Formatter) map[string]string {
	return map[string]string{
		"InvoiceNumber":    text(inv.Number),
		"InvoiceId":        escape(inv.ID),
		"GroupKey":         text(inv.GroupKey),
		"SalesOrderNumber": text(inv.SalesOrderNumber),
		"IssueDate":        f.Date(inv.IssueDate),
		"ShipDate":         f.Date(inv.ShipDate),
		"DueDate":          f.Date(inv.DueDate),
		"BillTo":           text(inv.BillTo),
		"ShipTo":           text(inv.ShipTo),
		"Incoterm":         text(inv.Incoterm),
		"ShipmentMethod":   text(inv.ShipmentMethod),
		"PaymentTerms":     text(inv.PaymentTerms),
		"Notes":            text(inv.Notes),
		"ProductNo":        text(inv.ProductNo),
		"Description":      text(inv.Description),
		"UnitOfMeasure":    text(inv.UnitOfMeasure),
		"Quantity":         f.Quantity(inv.Quantity),
		"UnitPrice":        f.UnitPrice(inv.UnitPrice),
		"OriginalPrice":    f.UnitPrice(inv.OriginalPrice),
		"Amount":           f.Currency(inv.Amount),
		"Subtotal":         f.Currency(inv.Subtotal),
		"Total":            f.Currency(inv.Total),
	}
}

func text(v *string) string {
	if v == nil {
		return ""
	}
	return escape(*v)
}

// escape makes free text safe inside markup and keeps line breaks of
// multi-line addresses.
func escape(s string) string {
	s = template.HTMLEscapeString(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "<br>")
}

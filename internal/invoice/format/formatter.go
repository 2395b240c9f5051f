package format

import (
	"math"
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// TemplateDateLayout is the date layout used inside the invoice sheet.
const TemplateDateLayout = "01/02/06"

// Formatter renders invoice values for one locale and currency.
type Formatter struct {
	printer *message.Printer
	symbol  string
}

// New builds a Formatter. Unknown locales fall back to en-US and unknown
// currency codes are printed as given.
func New(locale, currencyCode string) *Formatter {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		tag = language.AmericanEnglish
	}
	printer := message.NewPrinter(tag)

	code := strings.ToUpper(strings.TrimSpace(currencyCode))
	symbol := code
	if unit, err := currency.ParseISO(code); err == nil {
		symbol = printer.Sprint(currency.NarrowSymbol(unit))
	}

	return &Formatter{printer: printer, symbol: symbol}
}

// Date formats t as MM/DD/YY. Nil or zero dates yield an empty string.
func (f *Formatter) Date(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(TemplateDateLayout)
}

// Quantity groups digits and drops the fraction.
func (f *Formatter) Quantity(v *float64) string {
	return f.printer.Sprint(number.Decimal(deref(v), number.MaxFractionDigits(0)))
}

// UnitPrice groups digits and keeps up to five fractional digits.
func (f *Formatter) UnitPrice(v *float64) string {
	return f.printer.Sprint(number.Decimal(deref(v), number.MinFractionDigits(0), number.MaxFractionDigits(5)))
}

// Currency prints the currency symbol followed by the grouped amount with two
// fractional digits. The symbol always leads, whatever the locale; only digit
// grouping and the decimal mark follow the locale.
func (f *Formatter) Currency(v *float64) string {
	amount := math.Round(deref(v)*100) / 100
	if amount == 0 {
		// drops negative zero
		amount = 0
	}
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := f.printer.Sprint(number.Decimal(amount, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
	return sign + f.symbol + digits
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

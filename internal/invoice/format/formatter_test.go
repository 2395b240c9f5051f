package format

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func f64(v float64) *float64 { return &v }

func TestDate(t *testing.T) {
	f := New("en-US", "USD")
	d := time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "03/07/24", f.Date(&d))
	assert.Equal(t, "", f.Date(nil))
	assert.Equal(t, "", f.Date(&time.Time{}))
}

func TestQuantity(t *testing.T) {
	f := New("en-US", "USD")

	assert.Equal(t, "1,234", f.Quantity(f64(1234)))
	assert.Equal(t, "12", f.Quantity(f64(12.2)))
	assert.Equal(t, "0", f.Quantity(nil))
}

func TestUnitPrice(t *testing.T) {
	f := New("en-US", "USD")

	assert.Equal(t, "1,234.5", f.UnitPrice(f64(1234.5)))
	assert.Equal(t, "0.12345", f.UnitPrice(f64(0.12345)))
	assert.Equal(t, "7", f.UnitPrice(f64(7)))
}

func TestCurrency(t *testing.T) {
	f := New("en-US", "USD")

	out := f.Currency(f64(1234.5))
	assert.True(t, strings.HasSuffix(out, "1,234.50"), out)
	assert.True(t, strings.HasPrefix(out, "$"), out)

	assert.True(t, strings.HasSuffix(f.Currency(nil), "0.00"))
	assert.True(t, strings.HasPrefix(f.Currency(f64(-5.25)), "-"))
}

func TestCurrencyRoundsBeforeSign(t *testing.T) {
	f := New("en-US", "USD")

	assert.Equal(t, "$0.00", f.Currency(f64(-0.004)))
	assert.Equal(t, "-$0.01", f.Currency(f64(-0.006)))
}

func TestCurrencySymbolLeadsInEveryLocale(t *testing.T) {
	out := New("de-DE", "EUR").Currency(f64(1234567.891))
	assert.True(t, strings.HasPrefix(out, "€"), out)
	assert.True(t, strings.HasSuffix(out, "1.234.567,89"), out)
}

func TestLocaleGrouping(t *testing.T) {
	f := New("de-DE", "EUR")

	assert.Equal(t, "1.234", f.Quantity(f64(1234)))
	assert.True(t, strings.HasSuffix(f.Currency(f64(1234.5)), "1.234,50"))
}

func TestUnknownLocaleFallsBack(t *testing.T) {
	f := New("not a locale!!", "XYZ")

	assert.Equal(t, "1,234", f.Quantity(f64(1234)))
	assert.True(t, strings.HasPrefix(f.Currency(f64(1)), "XYZ"))
}

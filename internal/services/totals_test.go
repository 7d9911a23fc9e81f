package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/diewo77/invoice-manager/internal/models"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestCalculateTotals(t *testing.T) {
	items := []models.InvoiceItem{
		{Quantity: 2, UnitPrice: d("10.00")},
		{Quantity: 1, UnitPrice: d("5.00")},
	}
	got := CalculateTotals(items, d("10"), d("5"))

	assert.True(t, got.Subtotal.Equal(d("25.00")), "subtotal = %s", got.Subtotal)
	assert.True(t, got.TaxAmount.Equal(d("2.50")), "tax = %s", got.TaxAmount)
	assert.True(t, got.DiscountAmount.Equal(d("1.25")), "discount = %s", got.DiscountAmount)
	assert.True(t, got.Total.Equal(d("26.25")), "total = %s", got.Total)
}

func TestCalculateTotalsRoundsHalfUp(t *testing.T) {
	// 10.01 * 7.5% = 0.75075 -> 0.75
	items := []models.InvoiceItem{{Quantity: 1, UnitPrice: d("10.01")}}
	got := CalculateTotals(items, d("7.5"), decimal.Zero)

	assert.True(t, got.TaxAmount.Equal(d("0.75")), "tax = %s", got.TaxAmount)
	assert.True(t, got.Total.Equal(d("10.76")), "total = %s", got.Total)
}

func TestCalculateTotalsIgnoresStoredLineTotals(t *testing.T) {
	// A stale stored total must not leak into the computation.
	items := []models.InvoiceItem{{Quantity: 3, UnitPrice: d("2.00"), Total: d("999.99")}}
	got := CalculateTotals(items, decimal.Zero, decimal.Zero)

	assert.True(t, got.Subtotal.Equal(d("6.00")), "subtotal = %s", got.Subtotal)
}

func TestCalculateTotalsEmpty(t *testing.T) {
	got := CalculateTotals(nil, d("20"), d("10"))

	assert.True(t, got.Subtotal.IsZero())
	assert.True(t, got.TaxAmount.IsZero())
	assert.True(t, got.DiscountAmount.IsZero())
	assert.True(t, got.Total.IsZero())
}

func TestTotalInvariant(t *testing.T) {
	cases := [][]models.InvoiceItem{
		{{Quantity: 1, UnitPrice: d("0.01")}},
		{{Quantity: 7, UnitPrice: d("13.37")}, {Quantity: 2, UnitPrice: d("0.99")}},
		{{Quantity: 100, UnitPrice: d("19.99")}},
	}
	for _, items := range cases {
		got := CalculateTotals(items, d("19.6"), d("2.5"))
		want := got.Subtotal.Add(got.TaxAmount).Sub(got.DiscountAmount)
		assert.True(t, got.Total.Equal(want), "total %s != %s", got.Total, want)
	}
}

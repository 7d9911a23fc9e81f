package services

import (
	"github.com/shopspring/decimal"

	"github.com/diewo77/invoice-manager/internal/models"
)

var oneHundred = decimal.NewFromInt(100)

// Totals holds the derived monetary fields of an invoice.
// Invariant: Total = Subtotal + TaxAmount - DiscountAmount.
type Totals struct {
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
}

// CalculateTotals derives subtotal, tax, discount and total from line items
// and percentage rates. Line totals are recomputed from quantity and unit
// price, never trusted from the stored item. Tax and discount are rounded to
// 2 decimal places; the subtotal needs no rounding since quantities are
// integers and unit prices carry 2 decimals.
func CalculateTotals(items []models.InvoiceItem, taxRate, discountRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for i := range items {
		subtotal = subtotal.Add(items[i].LineTotal())
	}
	tax := subtotal.Mul(taxRate).Div(oneHundred).Round(2)
	discount := subtotal.Mul(discountRate).Div(oneHundred).Round(2)
	return Totals{
		Subtotal:       subtotal,
		TaxAmount:      tax,
		DiscountAmount: discount,
		Total:          subtotal.Add(tax).Sub(discount),
	}
}

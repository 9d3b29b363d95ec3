// Package pricing derives price breakdowns from priced components. It is
// pure: no storage, no clocks, decimal arithmetic throughout so repeated
// recomputation never drifts.
package pricing

import (
	"github.com/clearsight/pos-engine/internal/domain"
	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Parameters is caller-supplied configuration, never derived.
type Parameters struct {
	DiscountType   DiscountType    `json:"discount_type"`
	DiscountValue  decimal.Decimal `json:"discount_value"`
	TaxRatePercent decimal.Decimal `json:"tax_rate_percent"`
}

// Breakdown is a derived value object, recomputed from components and
// parameters on demand. Invariant: Total = Subtotal - DiscountAmount + TaxAmount.
type Breakdown struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total"`
}

var oneHundred = decimal.NewFromInt(100)

// Price computes the breakdown for a set of components. Money figures are
// rounded to 2 places as they are derived, and the total is built from the
// rounded figures so the breakdown invariant holds exactly.
//
// The discount is clamped to the subtotal: a fixed discount larger than the
// goods can never drive the total negative.
func Price(components []domain.PricedComponent, params Parameters) Breakdown {
	subtotal := decimal.Zero
	for _, c := range components {
		subtotal = subtotal.Add(c.Total())
	}
	subtotal = subtotal.Round(2)

	discountValue := params.DiscountValue
	if discountValue.IsNegative() {
		discountValue = decimal.Zero
	}

	var discount decimal.Decimal
	switch params.DiscountType {
	case DiscountPercentage:
		discount = subtotal.Mul(discountValue).Div(oneHundred).Round(2)
	case DiscountFixed:
		discount = discountValue.Round(2)
	default:
		discount = decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}

	taxRate := params.TaxRatePercent
	if taxRate.IsNegative() {
		taxRate = decimal.Zero
	}
	taxable := subtotal.Sub(discount)
	tax := taxable.Mul(taxRate).Div(oneHundred).Round(2)

	return Breakdown{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxAmount:      tax,
		Total:          taxable.Add(tax),
	}
}

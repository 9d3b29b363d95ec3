package domain

import "github.com/shopspring/decimal"

// PricedComponent is the single summation unit the pricing engine works on.
// Explicit cart lines and prescription-derived charges (lens, coatings) both
// reduce to it, so there is one pricing path instead of two.
type PricedComponent struct {
	Label     string          `json:"label"`
	ProductID string          `json:"product_id,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

func (p PricedComponent) Total() decimal.Decimal {
	return p.UnitPrice.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

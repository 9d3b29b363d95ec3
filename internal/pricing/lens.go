package pricing

import (
	"strings"

	"github.com/clearsight/pos-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// LensPriceTable drives prescription pricing. The multipliers are
// configuration, not business law: callers inject their own table and the
// defaults below only cover the stock catalog.
type LensPriceTable struct {
	BasePrice           decimal.Decimal
	MaterialMultipliers map[string]decimal.Decimal
	TypeMultipliers     map[string]decimal.Decimal
	PerCoatingPrice     decimal.Decimal
}

func DefaultLensPriceTable() LensPriceTable {
	return LensPriceTable{
		BasePrice: decimal.NewFromInt(50),
		MaterialMultipliers: map[string]decimal.Decimal{
			"standard":      decimal.NewFromInt(1),
			"polycarbonate": decimal.RequireFromString("1.5"),
			"high-index":    decimal.NewFromInt(2),
		},
		TypeMultipliers: map[string]decimal.Decimal{
			"single-vision": decimal.NewFromInt(1),
			"bifocal":       decimal.NewFromInt(2),
			"progressive":   decimal.NewFromInt(3),
		},
		PerCoatingPrice: decimal.NewFromInt(25),
	}
}

// LensPrice is base price x material multiplier x lens-type multiplier.
// Unknown or empty attributes multiply by 1.
func (t LensPriceTable) LensPrice(rx domain.Prescription) decimal.Decimal {
	price := t.BasePrice
	if m, ok := t.MaterialMultipliers[normalizeKey(rx.LensMaterial)]; ok {
		price = price.Mul(m)
	}
	if m, ok := t.TypeMultipliers[normalizeKey(rx.LensType)]; ok {
		price = price.Mul(m)
	}
	return price.Round(2)
}

// Components derives the implicit single-quantity lines of a prescription:
// one lens line, and one coatings line priced per coating entry.
func (t LensPriceTable) Components(rx domain.Prescription) []domain.PricedComponent {
	if rx.IsZero() {
		return nil
	}

	components := []domain.PricedComponent{
		{Label: "Lens", UnitPrice: t.LensPrice(rx), Quantity: 1},
	}

	if coatings := rx.CoatingList(); len(coatings) > 0 {
		components = append(components, domain.PricedComponent{
			Label:     "Coatings (" + strings.Join(coatings, ", ") + ")",
			UnitPrice: t.PerCoatingPrice,
			Quantity:  len(coatings),
		})
	}

	return components
}

// normalizeKey maps display values like "High Index" onto table keys.
func normalizeKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}

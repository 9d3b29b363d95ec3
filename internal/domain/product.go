package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is read-only catalog data. Carts snapshot the fields they need at
// add time, so later catalog edits never reach an open cart.
type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Category      string          `json:"category"`
	StockQuantity int             `json:"stock_quantity"`
	CreatedAt     time.Time       `json:"created_at"`
}

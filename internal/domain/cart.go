package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart holds the line items of one in-progress sale session. Lines are unique
// per product: adding an existing product bumps the quantity instead of
// appending a duplicate.
type Cart struct {
	SessionID string     `json:"session_id"`
	StoreID   string     `json:"store_id,omitempty"`
	Currency  string     `json:"currency"`
	Items     []LineItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// LineItem carries the price and name snapshotted from the catalog at the
// moment the product was added.
type LineItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Category    string          `json:"category,omitempty"`
	AddedAt     time.Time       `json:"added_at"`
}

func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Item returns a pointer into Items for in-place mutation, or nil.
func (c *Cart) Item(productID string) *LineItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

func (c *Cart) RemoveItem(productID string) bool {
	for i, item := range c.Items {
		if item.ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Components flattens the cart into the pricing engine's input shape.
func (c *Cart) Components() []PricedComponent {
	components := make([]PricedComponent, len(c.Items))
	for i, item := range c.Items {
		components[i] = PricedComponent{
			Label:     item.ProductName,
			ProductID: item.ProductID,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
	}
	return components
}

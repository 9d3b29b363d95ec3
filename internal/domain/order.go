package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "DRAFT"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// IsTerminal reports whether this core may still transition the order.
// Confirmed and cancelled orders are backend-owned thereafter.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusConfirmed || s == OrderStatusCancelled
}

func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo validates the order state machine: a draft may be re-saved,
// confirmed or cancelled; nothing leaves a terminal state here.
func CanTransitionTo(from, to OrderStatus) bool {
	if from != OrderStatusDraft {
		return false
	}
	switch to {
	case OrderStatusDraft, OrderStatusConfirmed, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderItem is a priced line frozen into the order at assembly time. Lines
// derived from a prescription (lens, coatings) have no ProductID.
type OrderItem struct {
	ProductID string          `json:"product_id,omitempty"`
	Label     string          `json:"label"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Order is the durable entity. The price breakdown fields are a snapshot
// taken at assembly and are never recomputed afterwards.
type Order struct {
	ID             uuid.UUID       `json:"id"`
	OrderNumber    string          `json:"order_number"`
	SessionID      string          `json:"session_id,omitempty"`
	CustomerID     string          `json:"customer_id"`
	StoreID        string          `json:"store_id,omitempty"`
	PrescriptionID string          `json:"prescription_id,omitempty"`
	Items          []OrderItem     `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total"`
	Currency       string          `json:"currency"`
	PaymentMethod  string          `json:"payment_method,omitempty"`
	PaymentStatus  string          `json:"payment_status,omitempty"`
	Priority       string          `json:"priority,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	Status         OrderStatus     `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// NewOrderNumber derives the human-facing order number from the order ID.
func NewOrderNumber(id uuid.UUID) string {
	return fmt.Sprintf("ORD-%s", strings.ToUpper(id.String()[:8]))
}

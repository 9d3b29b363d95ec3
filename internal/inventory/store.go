// Package inventory holds the reservation-backed stock store and the
// availability check that gates order confirmation.
package inventory

import (
	"errors"
	"time"
)

var (
	ErrProductNotFound     = errors.New("product not found in inventory")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrReservationExpired  = errors.New("reservation has expired")
	ErrInvalidStatus       = errors.New("invalid reservation status for this operation")
)

// ReservationStatus represents the state of a stock reservation.
type ReservationStatus string

const (
	StatusReserved  ReservationStatus = "reserved"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusReleased  ReservationStatus = "released"
	StatusExpired   ReservationStatus = "expired"
)

// ReservationItem is a single product line within a reservation.
type ReservationItem struct {
	ProductID string
	Quantity  int
}

// Reservation holds stock aside for one order while it is being confirmed.
type Reservation struct {
	ID        string
	OrderID   string
	Items     []ReservationItem
	Status    ReservationStatus
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired checks if the reservation has expired.
func (r *Reservation) IsExpired() bool {
	return time.Now().After(r.ExpiresAt)
}

// StockInfo contains stock information for a product.
type StockInfo struct {
	ProductID string
	Total     int
	Reserved  int
}

// Available returns the available stock (total - reserved).
func (s StockInfo) Available() int {
	return s.Total - s.Reserved
}

// Store defines the interface for inventory storage operations.
type Store interface {
	// GetStock returns stock information for the given product IDs.
	// Unknown products are omitted from the result.
	GetStock(productIDs []string) ([]StockInfo, error)

	// Reserve holds stock for an order, reducing the available pool.
	Reserve(orderID string, items []ReservationItem) (*Reservation, error)

	// Confirm finalizes a reservation, permanently deducting stock.
	// Can only be called on reservations with status "reserved".
	Confirm(reservationID string) error

	// Release cancels a reservation, returning stock to the available pool.
	// Can only be called on reservations with status "reserved".
	Release(reservationID string) error

	// SetStock sets the stock level for a product (used for initialization).
	SetStock(productID string, quantity int) error

	// Close shuts down the store and any background processes.
	Close() error
}

// Package order assembles priced drafts and drives them through the
// draft/confirmed/cancelled lifecycle.
package order

import (
	"context"
	"errors"
	"time"

	"github.com/clearsight/pos-engine/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrIllegalTransition = errors.New("illegal transition of order status")
)

// OutboxEvent is one pending publication row written in the same transaction
// as the state change it announces.
type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

// Repository persists orders and their outbox rows.
type Repository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error)

	// UpdateStatus moves an order from one status to another with a
	// compare-and-set on the current status; a lost race or an illegal
	// transition returns ErrIllegalTransition.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus) error

	// ConfirmOrder performs the DRAFT -> CONFIRMED compare-and-set and writes
	// the outbox event in one transaction.
	ConfirmOrder(ctx context.Context, id uuid.UUID, eventType string, payload []byte) error

	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, eventID int64) error

	Close() error
}

// Package consumer reacts to confirmed-order events: once a sale is
// committed, its source cart session is cleared.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/clearsight/pos-engine/internal/publisher"
	"github.com/segmentio/kafka-go"
)

// CartClearer is the slice of the cart service the consumer needs.
type CartClearer interface {
	Clear(ctx context.Context, sessionID string) error
}

// OrderConfirmedEvent mirrors the outbox payload written on confirmation.
type OrderConfirmedEvent struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	SessionID   string `json:"session_id"`
	CustomerID  string `json:"customer_id"`
}

type Consumer struct {
	carts  CartClearer
	reader *kafka.Reader
}

func NewConsumer(carts CartClearer, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    publisher.Topic,
		GroupID:  "pos-engine",
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{carts, reader}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		log.Printf("error closing kafka reader: %v", err)
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Printf("error reading message: %v", err)
		return
	}

	var event OrderConfirmedEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		log.Printf("error parsing message: %v", err)
		return
	}

	if event.SessionID == "" {
		// prescription-only order, no cart to clear
		return
	}

	// clearing is idempotent, so replayed events are harmless
	if err := c.carts.Clear(ctx, event.SessionID); err != nil {
		log.Printf("failed to clear cart session %s for order %s: %v", event.SessionID, event.OrderNumber, err)
		return
	}

	log.Printf("cart session %s cleared for confirmed order %s", event.SessionID, event.OrderNumber)
}

// Package catalog provides read-only access to the product catalog.
package catalog

import (
	"context"
	"errors"

	"github.com/clearsight/pos-engine/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

// Reader is the lookup surface the cart and order flows depend on. The
// catalog is reference data from their perspective; nothing here mutates it.
type Reader interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context, search, category string) ([]*domain.Product, error)
}

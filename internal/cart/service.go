// Package cart owns the line-item ledger of one in-progress sale session.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/clearsight/pos-engine/internal/catalog"
	"github.com/clearsight/pos-engine/internal/domain"
	"golang.org/x/sync/singleflight"
)

const defaultCurrency = "USD"

// Service enforces the ledger rules: unique line per product, price and name
// snapshotted at add time, and an advisory stock guard against the live
// catalog. The guard is not a reservation; concurrent sessions can both pass
// it, which is why order confirmation runs a separate availability check.
type Service struct {
	catalog catalog.Reader
	repo    Repository
	cache   Cache
	sfg     singleflight.Group // prevents cache stampede on reads
}

func NewService(catalogReader catalog.Reader, repo Repository, cache Cache) *Service {
	return &Service{
		catalog: catalogReader,
		repo:    repo,
		cache:   cache,
	}
}

// GetCart is cache-first with repository fallback; a missing cart reads as an
// empty one so the sale screen never sees a not-found.
func (s *Service) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(sessionID, func() (interface{}, error) {
		cached, err := s.cache.Get(ctx, sessionID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		cart, err := s.repo.GetCart(ctx, sessionID)
		if errors.Is(err, ErrCartNotFound) {
			return emptyCart(sessionID, ""), nil
		}
		if err != nil {
			return nil, err
		}

		go func() {
			if err := s.cache.Set(context.Background(), sessionID, cart); err != nil {
				log.Printf("cache set error: %v", err)
			}
		}()

		return cart, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// AddItem appends a new snapshotted line or increments an existing one.
// The increment is rejected when the resulting quantity would exceed the
// catalog's current stock; the cart is left unchanged in that case.
func (s *Service) AddItem(ctx context.Context, sessionID, storeID, productID string, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup failed: %w", err)
	}

	cart, err := s.loadOrCreate(ctx, sessionID, storeID)
	if err != nil {
		return nil, err
	}

	newQuantity := quantity
	line := cart.Item(productID)
	if line != nil {
		newQuantity += line.Quantity
	}
	if newQuantity > product.StockQuantity {
		return nil, fmt.Errorf("%w: product %s has %d in stock, requested %d",
			ErrInsufficientStock, productID, product.StockQuantity, newQuantity)
	}

	if line != nil {
		line.Quantity = newQuantity
	} else {
		cart.Items = append(cart.Items, domain.LineItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.UnitPrice,
			Quantity:    quantity,
			Category:    product.Category,
			AddedAt:     time.Now(),
		})
	}

	return s.save(ctx, cart)
}

// UpdateQuantity replaces a line's quantity, last writer wins. A quantity of
// zero or less removes the line. The new quantity is re-validated against
// stock the same way AddItem validates an increment.
func (s *Service) UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, sessionID, productID)
	}

	cart, err := s.repo.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	line := cart.Item(productID)
	if line == nil {
		return nil, ErrItemNotFound
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup failed: %w", err)
	}
	if quantity > product.StockQuantity {
		return nil, fmt.Errorf("%w: product %s has %d in stock, requested %d",
			ErrInsufficientStock, productID, product.StockQuantity, quantity)
	}

	line.Quantity = quantity

	return s.save(ctx, cart)
}

// RemoveItem deletes a line; removing an absent line is a no-op.
func (s *Service) RemoveItem(ctx context.Context, sessionID, productID string) (*domain.Cart, error) {
	cart, err := s.repo.GetCart(ctx, sessionID)
	if errors.Is(err, ErrCartNotFound) {
		return emptyCart(sessionID, ""), nil
	}
	if err != nil {
		return nil, err
	}

	if !cart.RemoveItem(productID) {
		return cart, nil
	}

	return s.save(ctx, cart)
}

// Clear empties the session, called after successful submission or an
// explicit cancel. Clearing a missing cart is a no-op.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	err := s.repo.DeleteCart(ctx, sessionID)
	if err != nil && !errors.Is(err, ErrCartNotFound) {
		return err
	}

	s.invalidate(sessionID)
	return nil
}

func (s *Service) loadOrCreate(ctx context.Context, sessionID, storeID string) (*domain.Cart, error) {
	cart, err := s.repo.GetCart(ctx, sessionID)
	if errors.Is(err, ErrCartNotFound) {
		return emptyCart(sessionID, storeID), nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Service) save(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	if err := s.repo.UpsertCart(ctx, cart); err != nil {
		return nil, err
	}

	s.invalidate(cart.SessionID)
	return cart, nil
}

func (s *Service) invalidate(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, sessionID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}

func emptyCart(sessionID, storeID string) *domain.Cart {
	now := time.Now()
	return &domain.Cart{
		SessionID: sessionID,
		StoreID:   storeID,
		Currency:  defaultCurrency,
		Items:     nil,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

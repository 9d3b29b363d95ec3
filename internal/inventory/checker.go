package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/clearsight/pos-engine/internal/domain"
)

// ErrCheckFailed marks transport or backend failures of the availability
// check. It is distinct from an "unavailable" answer: the caller retries
// the former and surfaces the latter to the operator.
var ErrCheckFailed = errors.New("availability check failed")

// Shortage reports one product the inventory cannot cover.
type Shortage struct {
	ProductID string `json:"product_id"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// Availability is the answer of a stock check for a whole order.
type Availability struct {
	Available bool       `json:"available"`
	Shortages []Shortage `json:"shortages,omitempty"`
}

// Checker answers whether every catalog-backed line of an order can be
// fulfilled right now. Service lines without a product ID (lenses, coatings)
// are not stock-tracked and are skipped.
type Checker interface {
	Check(ctx context.Context, order *domain.Order) (Availability, error)
}

// StoreChecker runs the check against the reservation store: it reserves the
// order's lines and, on success, confirms the reservation immediately, so a
// positive answer has already deducted the stock.
type StoreChecker struct {
	store Store
}

func NewStoreChecker(store Store) *StoreChecker {
	return &StoreChecker{store: store}
}

func (c *StoreChecker) Check(ctx context.Context, order *domain.Order) (Availability, error) {
	if err := ctx.Err(); err != nil {
		return Availability{}, fmt.Errorf("%w: %v", ErrCheckFailed, err)
	}

	items := reservationItems(order)
	if len(items) == 0 {
		return Availability{Available: true}, nil
	}

	reservation, err := c.store.Reserve(order.ID.String(), items)
	if errors.Is(err, ErrInsufficientStock) || errors.Is(err, ErrProductNotFound) {
		return Availability{Available: false, Shortages: c.shortages(items)}, nil
	}
	if err != nil {
		return Availability{}, fmt.Errorf("%w: %v", ErrCheckFailed, err)
	}

	if err := c.store.Confirm(reservation.ID); err != nil {
		return Availability{}, fmt.Errorf("%w: %v", ErrCheckFailed, err)
	}

	return Availability{Available: true}, nil
}

func (c *StoreChecker) shortages(items []ReservationItem) []Shortage {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}

	available := make(map[string]int)
	stocks, err := c.store.GetStock(ids)
	if err == nil {
		for _, stock := range stocks {
			available[stock.ProductID] = stock.Available()
		}
	}

	var out []Shortage
	for _, item := range items {
		if available[item.ProductID] < item.Quantity {
			out = append(out, Shortage{
				ProductID: item.ProductID,
				Requested: item.Quantity,
				Available: available[item.ProductID],
			})
		}
	}
	return out
}

func reservationItems(order *domain.Order) []ReservationItem {
	var items []ReservationItem
	for _, line := range order.Items {
		if line.ProductID == "" {
			continue
		}
		items = append(items, ReservationItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}
	return items
}

package order

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/clearsight/pos-engine/internal/domain"
	"github.com/clearsight/pos-engine/internal/inventory"
	"github.com/clearsight/pos-engine/internal/pricing"
	"github.com/google/uuid"
)

// EventOrderConfirmed is the outbox event type written on confirmation. The
// consumer uses it to clear the source cart session.
const EventOrderConfirmed = "order-confirmed"

const defaultCheckTimeout = 10 * time.Second

// CartReader is the slice of the cart service the assembler needs.
type CartReader interface {
	GetCart(ctx context.Context, sessionID string) (*domain.Cart, error)
}

// AssembleRequest carries everything needed to build a priced draft. Cart
// session and prescription are both optional, but at least one must yield a
// priced component.
type AssembleRequest struct {
	SessionID     string
	CustomerID    string
	StoreID       string
	Prescription  domain.Prescription
	Params        pricing.Parameters
	PaymentMethod string
	PaymentStatus string
	Priority      string
	Notes         string
}

// Service assembles priced drafts and owns their lifecycle. The price
// breakdown is snapshotted into the order at assembly and never recomputed.
type Service struct {
	carts   CartReader
	repo    Repository
	checker inventory.Checker
	lens    pricing.LensPriceTable

	checkTimeout time.Duration

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{} // drafts with a confirm in progress
}

func NewService(carts CartReader, repo Repository, checker inventory.Checker) *Service {
	return &Service{
		carts:        carts,
		repo:         repo,
		checker:      checker,
		lens:         pricing.DefaultLensPriceTable(),
		checkTimeout: defaultCheckTimeout,
		inFlight:     make(map[uuid.UUID]struct{}),
	}
}

// WithLensPriceTable overrides the default prescription pricing table.
func (s *Service) WithLensPriceTable(table pricing.LensPriceTable) *Service {
	s.lens = table
	return s
}

// Assemble builds a draft from the session's cart and/or the prescription,
// prices it, and persists it. The draft can be re-saved until it is confirmed
// or cancelled.
func (s *Service) Assemble(ctx context.Context, req AssembleRequest) (*domain.Order, error) {
	if req.CustomerID == "" {
		return nil, ErrNoCustomer
	}

	var components []domain.PricedComponent
	currency := "USD"

	if req.SessionID != "" {
		cart, err := s.carts.GetCart(ctx, req.SessionID)
		if err != nil {
			return nil, fmt.Errorf("load cart: %w", err)
		}
		components = append(components, cart.Components()...)
		if cart.Currency != "" {
			currency = cart.Currency
		}
	}

	components = append(components, s.lens.Components(req.Prescription)...)

	if len(components) == 0 {
		return nil, ErrEmptyOrder
	}

	breakdown := pricing.Price(components, req.Params)

	items := make([]domain.OrderItem, len(components))
	for i, c := range components {
		items[i] = domain.OrderItem{
			ProductID: c.ProductID,
			Label:     c.Label,
			Quantity:  c.Quantity,
			UnitPrice: c.UnitPrice,
			LineTotal: c.Total(),
		}
	}

	id := uuid.New()
	now := time.Now()
	order := &domain.Order{
		ID:             id,
		OrderNumber:    domain.NewOrderNumber(id),
		SessionID:      req.SessionID,
		CustomerID:     req.CustomerID,
		StoreID:        req.StoreID,
		PrescriptionID: req.Prescription.ID,
		Items:          items,
		Subtotal:       breakdown.Subtotal,
		DiscountAmount: breakdown.DiscountAmount,
		TaxAmount:      breakdown.TaxAmount,
		Total:          breakdown.Total,
		Currency:       currency,
		PaymentMethod:  req.PaymentMethod,
		PaymentStatus:  req.PaymentStatus,
		Priority:       req.Priority,
		Notes:          req.Notes,
		Status:         domain.OrderStatusDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}

	return order, nil
}

// Confirm gates the DRAFT -> CONFIRMED transition behind the availability
// check. It is non-reentrant per draft, and the repository compare-and-set
// discards a late confirmation against a draft that was cancelled while the
// check was running.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	if !s.markInFlight(id) {
		return nil, ErrConfirmInFlight
	}
	defer s.clearInFlight(id)

	order, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderStatusDraft {
		return nil, fmt.Errorf("%w: order is %s", ErrIllegalTransition, order.Status)
	}

	checkCtx, cancel := context.WithTimeout(ctx, s.checkTimeout)
	defer cancel()

	availability, err := s.checker.Check(checkCtx, order)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAvailabilityCheckFailed, err)
	}
	if !availability.Available {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, describeShortages(availability.Shortages))
	}

	payload, err := json.Marshal(map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"session_id":   order.SessionID,
		"customer_id":  order.CustomerID,
		"total":        order.Total,
		"currency":     order.Currency,
		"confirmed_at": time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal confirmation payload: %w", err)
	}

	if err := s.repo.ConfirmOrder(ctx, id, EventOrderConfirmed, payload); err != nil {
		return nil, err
	}

	return s.repo.GetOrderByID(ctx, id)
}

// Cancel moves a draft to cancelled; terminal orders cannot be cancelled here.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	err := s.repo.UpdateStatus(ctx, id, domain.OrderStatusDraft, domain.OrderStatusCancelled)
	if err != nil {
		return nil, err
	}
	return s.repo.GetOrderByID(ctx, id)
}

func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.repo.GetOrderByID(ctx, id)
}

func (s *Service) ListOrdersByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error) {
	return s.repo.ListOrdersByCustomer(ctx, customerID)
}

func (s *Service) markInFlight(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.inFlight[id]; exists {
		return false
	}
	s.inFlight[id] = struct{}{}
	return true
}

func (s *Service) clearInFlight(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, id)
}

func describeShortages(shortages []inventory.Shortage) string {
	if len(shortages) == 0 {
		return "insufficient stock"
	}
	out := ""
	for i, sh := range shortages {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s requested %d available %d", sh.ProductID, sh.Requested, sh.Available)
	}
	return out
}

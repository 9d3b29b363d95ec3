package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/clearsight/pos-engine/internal/domain"
	"github.com/clearsight/pos-engine/internal/order"
	"github.com/clearsight/pos-engine/internal/pricing"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderService is the slice of the order service the handler needs.
type OrderService interface {
	Assemble(ctx context.Context, req order.AssembleRequest) (*domain.Order, error)
	Confirm(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	Cancel(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error)
}

type OrderHandler struct {
	orders OrderService
}

func NewOrderHandler(orders OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type CreateOrderRequestDTO struct {
	CustomerID     string              `json:"customer_id"`
	StoreID        string              `json:"store_id,omitempty"`
	Prescription   PrescriptionDTO     `json:"prescription,omitempty"`
	DiscountType   string              `json:"discount_type,omitempty"`
	DiscountValue  decimal.Decimal     `json:"discount_value,omitempty"`
	TaxRatePercent decimal.Decimal     `json:"tax_rate_percent,omitempty"`
	PaymentMethod  string              `json:"payment_method,omitempty"`
	PaymentStatus  string              `json:"payment_status,omitempty"`
	Priority       string              `json:"priority,omitempty"`
	Notes          string              `json:"notes,omitempty"`
}

type PrescriptionDTO struct {
	ID                string `json:"id,omitempty"`
	LensType          string `json:"lens_type,omitempty"`
	LensMaterial      string `json:"lens_material,omitempty"`
	Coatings          string `json:"coatings,omitempty"`
	PupillaryDistance string `json:"pupillary_distance,omitempty"`
}

// CreateOrder assembles and persists a draft from the session's cart and/or
// the prescription in the body.
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	assembled, err := h.orders.Assemble(r.Context(), order.AssembleRequest{
		SessionID:  sessionIDFromContext(r.Context()),
		CustomerID: req.CustomerID,
		StoreID:    req.StoreID,
		Prescription: domain.Prescription{
			ID:                req.Prescription.ID,
			LensType:          req.Prescription.LensType,
			LensMaterial:      req.Prescription.LensMaterial,
			Coatings:          req.Prescription.Coatings,
			PupillaryDistance: req.Prescription.PupillaryDistance,
		},
		Params: pricing.Parameters{
			DiscountType:   pricing.DiscountType(req.DiscountType),
			DiscountValue:  req.DiscountValue,
			TaxRatePercent: req.TaxRatePercent,
		},
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: req.PaymentStatus,
		Priority:      req.Priority,
		Notes:         req.Notes,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, assembled)
}

func (h *OrderHandler) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDFromURL(w, r)
	if !ok {
		return
	}

	confirmed, err := h.orders.Confirm(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, confirmed)
}

func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDFromURL(w, r)
	if !ok {
		return
	}

	cancelled, err := h.orders.Cancel(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cancelled)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDFromURL(w, r)
	if !ok {
		return
	}

	found, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, found)
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	customerID := r.URL.Query().Get("customer_id")
	if customerID == "" {
		respondError(w, http.StatusBadRequest, "missing_customer", "customer_id query parameter is required")
		return
	}

	orders, err := h.orders.ListOrdersByCustomer(r.Context(), customerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}

	respondJSON(w, http.StatusOK, orders)
}

func orderIDFromURL(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

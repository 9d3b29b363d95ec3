// Package httpapi is the REST surface over the catalog, cart and order
// services.
package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/clearsight/pos-engine/internal/cart"
	"github.com/clearsight/pos-engine/internal/catalog"
	"github.com/clearsight/pos-engine/internal/order"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// handleServiceError maps the service error taxonomy onto HTTP statuses.
// Availability failures are flagged retryable so the register can offer a
// retry instead of a dead end.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, cart.ErrCartNotFound):
		respondError(w, http.StatusNotFound, "cart_not_found", err.Error())
	case errors.Is(err, cart.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "item_not_found", err.Error())
	case errors.Is(err, order.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "order_not_found", err.Error())
	case errors.Is(err, cart.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, order.ErrEmptyOrder):
		respondError(w, http.StatusBadRequest, "empty_order", err.Error())
	case errors.Is(err, order.ErrNoCustomer):
		respondError(w, http.StatusBadRequest, "missing_customer", err.Error())
	case errors.Is(err, cart.ErrInsufficientStock):
		respondError(w, http.StatusConflict, "insufficient_stock", err.Error())
	case errors.Is(err, order.ErrUnavailable):
		respondError(w, http.StatusConflict, "unavailable", err.Error())
	case errors.Is(err, order.ErrAvailabilityCheckFailed):
		respondJSON(w, http.StatusConflict, ErrorResponse{
			Error:     err.Error(),
			Code:      "availability_check_failed",
			Retryable: true,
		})
	case errors.Is(err, order.ErrConfirmInFlight):
		respondError(w, http.StatusConflict, "confirm_in_flight", err.Error())
	case errors.Is(err, order.ErrIllegalTransition):
		respondError(w, http.StatusConflict, "illegal_transition", err.Error())
	default:
		log.Printf("internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

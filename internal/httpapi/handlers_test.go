package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clearsight/pos-engine/internal/cart"
	"github.com/clearsight/pos-engine/internal/catalog"
	"github.com/clearsight/pos-engine/internal/domain"
	"github.com/clearsight/pos-engine/internal/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type catalogMock struct {
	products map[string]*domain.Product
	err      error
}

func (m *catalogMock) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return p, nil
}

func (m *catalogMock) ListProducts(context.Context, string, string) ([]*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Product
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

type cartServiceMock struct {
	cart *domain.Cart
	err  error

	gotSessionID string
	gotProductID string
	gotQuantity  int
	cleared      bool
}

func (m *cartServiceMock) GetCart(_ context.Context, sessionID string) (*domain.Cart, error) {
	m.gotSessionID = sessionID
	return m.cart, m.err
}

func (m *cartServiceMock) AddItem(_ context.Context, sessionID, _, productID string, quantity int) (*domain.Cart, error) {
	m.gotSessionID, m.gotProductID, m.gotQuantity = sessionID, productID, quantity
	return m.cart, m.err
}

func (m *cartServiceMock) UpdateQuantity(_ context.Context, sessionID, productID string, quantity int) (*domain.Cart, error) {
	m.gotSessionID, m.gotProductID, m.gotQuantity = sessionID, productID, quantity
	return m.cart, m.err
}

func (m *cartServiceMock) RemoveItem(_ context.Context, sessionID, productID string) (*domain.Cart, error) {
	m.gotSessionID, m.gotProductID = sessionID, productID
	return m.cart, m.err
}

func (m *cartServiceMock) Clear(_ context.Context, sessionID string) error {
	m.gotSessionID = sessionID
	m.cleared = true
	return m.err
}

type orderServiceMock struct {
	order  *domain.Order
	orders []*domain.Order
	err    error

	gotRequest order.AssembleRequest
	gotID      uuid.UUID
}

func (m *orderServiceMock) Assemble(_ context.Context, req order.AssembleRequest) (*domain.Order, error) {
	m.gotRequest = req
	return m.order, m.err
}

func (m *orderServiceMock) Confirm(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	m.gotID = id
	return m.order, m.err
}

func (m *orderServiceMock) Cancel(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	m.gotID = id
	return m.order, m.err
}

func (m *orderServiceMock) GetOrder(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	m.gotID = id
	return m.order, m.err
}

func (m *orderServiceMock) ListOrdersByCustomer(context.Context, string) ([]*domain.Order, error) {
	return m.orders, m.err
}

func testRouter(cat catalog.Reader, carts CartService, orders OrderService) http.Handler {
	if cat == nil {
		cat = &catalogMock{}
	}
	if carts == nil {
		carts = &cartServiceMock{}
	}
	if orders == nil {
		orders = &orderServiceMock{}
	}
	return NewRouter(cat, carts, orders, 5*time.Second)
}

func doRequest(t *testing.T, handler http.Handler, method, path, sessionID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	request := httptest.NewRequest(method, path, &buf)
	if sessionID != "" {
		request.Header.Set("X-Session-ID", sessionID)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func TestGetProduct_Success(t *testing.T) {
	cat := &catalogMock{products: map[string]*domain.Product{
		"p1": {ID: "p1", Name: "Aviator Frame", UnitPrice: decimal.NewFromInt(120), StockQuantity: 5},
	}}
	router := testRouter(cat, nil, nil)

	recorder := doRequest(t, router, "GET", "/api/v1/products/p1", "", nil)

	require.Equal(t, http.StatusOK, recorder.Code)
	var product domain.Product
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&product))
	assert.Equal(t, "Aviator Frame", product.Name)
}

func TestGetProduct_NotFound(t *testing.T) {
	router := testRouter(&catalogMock{products: map[string]*domain.Product{}}, nil, nil)

	recorder := doRequest(t, router, "GET", "/api/v1/products/ghost", "", nil)

	require.Equal(t, http.StatusNotFound, recorder.Code)
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.Equal(t, "product_not_found", resp.Code)
}

func TestGetCart_RequiresSessionHeader(t *testing.T) {
	router := testRouter(nil, &cartServiceMock{cart: &domain.Cart{}}, nil)

	recorder := doRequest(t, router, "GET", "/api/v1/cart/", "", nil)

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.Equal(t, "missing_session", resp.Code)
}

func TestAddItem_Success(t *testing.T) {
	carts := &cartServiceMock{cart: &domain.Cart{
		SessionID: "s1",
		Items:     []domain.LineItem{{ProductID: "p1", Quantity: 2}},
	}}
	router := testRouter(nil, carts, nil)

	recorder := doRequest(t, router, "POST", "/api/v1/cart/items", "s1",
		AddItemRequestDTO{ProductID: "p1", Quantity: 2})

	require.Equal(t, http.StatusCreated, recorder.Code)
	assert.Equal(t, "s1", carts.gotSessionID)
	assert.Equal(t, "p1", carts.gotProductID)
	assert.Equal(t, 2, carts.gotQuantity)
}

func TestAddItem_InsufficientStockMapsTo409(t *testing.T) {
	carts := &cartServiceMock{err: fmt.Errorf("add: %w", cart.ErrInsufficientStock)}
	router := testRouter(nil, carts, nil)

	recorder := doRequest(t, router, "POST", "/api/v1/cart/items", "s1",
		AddItemRequestDTO{ProductID: "p1", Quantity: 5})

	require.Equal(t, http.StatusConflict, recorder.Code)
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.Equal(t, "insufficient_stock", resp.Code)
}

func TestAddItem_InvalidQuantity(t *testing.T) {
	router := testRouter(nil, &cartServiceMock{}, nil)

	recorder := doRequest(t, router, "POST", "/api/v1/cart/items", "s1",
		AddItemRequestDTO{ProductID: "p1", Quantity: 0})

	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestUpdateQuantity_PassesThrough(t *testing.T) {
	carts := &cartServiceMock{cart: &domain.Cart{SessionID: "s1"}}
	router := testRouter(nil, carts, nil)

	recorder := doRequest(t, router, "PUT", "/api/v1/cart/items/p1", "s1",
		UpdateQuantityRequestDTO{Quantity: 3})

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "p1", carts.gotProductID)
	assert.Equal(t, 3, carts.gotQuantity)
}

func TestUpdateQuantity_ZeroIsAllowed(t *testing.T) {
	// zero removes the line; the service handles it
	carts := &cartServiceMock{cart: &domain.Cart{SessionID: "s1"}}
	router := testRouter(nil, carts, nil)

	recorder := doRequest(t, router, "PUT", "/api/v1/cart/items/p1", "s1",
		UpdateQuantityRequestDTO{Quantity: 0})

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 0, carts.gotQuantity)
}

func TestClearCart(t *testing.T) {
	carts := &cartServiceMock{}
	router := testRouter(nil, carts, nil)

	recorder := doRequest(t, router, "DELETE", "/api/v1/cart/", "s1", nil)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, carts.cleared)
}

func TestCreateOrder_Success(t *testing.T) {
	id := uuid.New()
	orders := &orderServiceMock{order: &domain.Order{
		ID:          id,
		OrderNumber: domain.NewOrderNumber(id),
		Status:      domain.OrderStatusDraft,
		Total:       decimal.NewFromInt(110),
	}}
	router := testRouter(nil, nil, orders)

	recorder := doRequest(t, router, "POST", "/api/v1/orders/", "s1", CreateOrderRequestDTO{
		CustomerID:     "cust-1",
		TaxRatePercent: decimal.NewFromInt(10),
	})

	require.Equal(t, http.StatusCreated, recorder.Code)
	assert.Equal(t, "s1", orders.gotRequest.SessionID, "session header must flow into assembly")
	assert.Equal(t, "cust-1", orders.gotRequest.CustomerID)

	var created domain.Order
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&created))
	assert.Equal(t, domain.OrderStatusDraft, created.Status)
}

func TestCreateOrder_EmptyOrderMapsTo400(t *testing.T) {
	orders := &orderServiceMock{err: order.ErrEmptyOrder}
	router := testRouter(nil, nil, orders)

	recorder := doRequest(t, router, "POST", "/api/v1/orders/", "s1",
		CreateOrderRequestDTO{CustomerID: "cust-1"})

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.Equal(t, "empty_order", resp.Code)
}

func TestConfirmOrder_UnavailableMapsTo409(t *testing.T) {
	orders := &orderServiceMock{err: fmt.Errorf("%w: frame-aviator", order.ErrUnavailable)}
	router := testRouter(nil, nil, orders)

	recorder := doRequest(t, router, "POST", "/api/v1/orders/"+uuid.NewString()+"/confirm", "", nil)

	require.Equal(t, http.StatusConflict, recorder.Code)
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.Equal(t, "unavailable", resp.Code)
	assert.False(t, resp.Retryable)
}

func TestConfirmOrder_CheckFailureIsRetryable(t *testing.T) {
	orders := &orderServiceMock{err: fmt.Errorf("%w: timeout", order.ErrAvailabilityCheckFailed)}
	router := testRouter(nil, nil, orders)

	recorder := doRequest(t, router, "POST", "/api/v1/orders/"+uuid.NewString()+"/confirm", "", nil)

	require.Equal(t, http.StatusConflict, recorder.Code)
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.Equal(t, "availability_check_failed", resp.Code)
	assert.True(t, resp.Retryable)
}

func TestConfirmOrder_InvalidID(t *testing.T) {
	router := testRouter(nil, nil, &orderServiceMock{})

	recorder := doRequest(t, router, "POST", "/api/v1/orders/not-a-uuid/confirm", "", nil)

	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestCancelOrder_IllegalTransitionMapsTo409(t *testing.T) {
	orders := &orderServiceMock{err: order.ErrIllegalTransition}
	router := testRouter(nil, nil, orders)

	recorder := doRequest(t, router, "POST", "/api/v1/orders/"+uuid.NewString()+"/cancel", "", nil)

	require.Equal(t, http.StatusConflict, recorder.Code)
}

func TestGetOrder_NotFound(t *testing.T) {
	orders := &orderServiceMock{err: order.ErrOrderNotFound}
	router := testRouter(nil, nil, orders)

	recorder := doRequest(t, router, "GET", "/api/v1/orders/"+uuid.NewString(), "", nil)

	require.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestListOrders_RequiresCustomerID(t *testing.T) {
	router := testRouter(nil, nil, &orderServiceMock{})

	recorder := doRequest(t, router, "GET", "/api/v1/orders/", "", nil)

	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestListOrders_EmptyListIsAnArray(t *testing.T) {
	router := testRouter(nil, nil, &orderServiceMock{})

	recorder := doRequest(t, router, "GET", "/api/v1/orders/?customer_id=cust-1", "", nil)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, "[]", recorder.Body.String())
}

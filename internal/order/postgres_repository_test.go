package order

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/clearsight/pos-engine/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) (*PostgresRepository, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	creds := &Credentials{
		Host:              host,
		Port:              port.Int(),
		User:              "testuser",
		Password:          "testpass",
		DBName:            "testdb",
		MigrationsDirPath: "../../migrations/orders",
	}

	repo, err := NewPostgresRepository(creds)
	require.NoError(t, err)

	err = repo.RunMigrations(creds)
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

func newTestOrder(customerID string) *domain.Order {
	id := uuid.New()
	return &domain.Order{
		ID:          id,
		OrderNumber: domain.NewOrderNumber(id),
		SessionID:   "session-1",
		CustomerID:  customerID,
		StoreID:     "store-1",
		Items: []domain.OrderItem{
			{
				ProductID: "frame-aviator",
				Label:     "Aviator Frame",
				Quantity:  1,
				UnitPrice: decimal.RequireFromString("120.00"),
				LineTotal: decimal.RequireFromString("120.00"),
			},
		},
		Subtotal:       decimal.RequireFromString("120.00"),
		DiscountAmount: decimal.RequireFromString("12.00"),
		TaxAmount:      decimal.RequireFromString("10.80"),
		Total:          decimal.RequireFromString("118.80"),
		Currency:       "USD",
		PaymentMethod:  "cash",
		PaymentStatus:  "pending",
		Priority:       "normal",
		Status:         domain.OrderStatusDraft,
	}
}

func TestCreateOrder_RoundTrip(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := newTestOrder("cust-1")

	require.NoError(t, repo.CreateOrder(ctx, order))

	fetched, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, fetched.ID)
	assert.Equal(t, order.OrderNumber, fetched.OrderNumber)
	assert.Equal(t, order.CustomerID, fetched.CustomerID)
	assert.Equal(t, order.Status, fetched.Status)
	assert.True(t, fetched.Subtotal.Equal(order.Subtotal), "subtotal %s", fetched.Subtotal)
	assert.True(t, fetched.DiscountAmount.Equal(order.DiscountAmount))
	assert.True(t, fetched.TaxAmount.Equal(order.TaxAmount))
	assert.True(t, fetched.Total.Equal(order.Total))
	require.Len(t, fetched.Items, 1)
	assert.Equal(t, "frame-aviator", fetched.Items[0].ProductID)
	assert.True(t, fetched.Items[0].UnitPrice.Equal(order.Items[0].UnitPrice))
}

func TestCreateOrder_ResaveDraftReplaces(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := newTestOrder("cust-1")
	require.NoError(t, repo.CreateOrder(ctx, order))

	order.Notes = "second save"
	order.Total = decimal.RequireFromString("99.00")
	require.NoError(t, repo.CreateOrder(ctx, order))

	fetched, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "second save", fetched.Notes)
	assert.True(t, fetched.Total.Equal(decimal.RequireFromString("99.00")))
}

func TestCreateOrder_ResaveConfirmedIsIgnored(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := newTestOrder("cust-1")
	require.NoError(t, repo.CreateOrder(ctx, order))
	require.NoError(t, repo.ConfirmOrder(ctx, order.ID, "order-confirmed", []byte(`{}`)))

	order.Notes = "late edit"
	require.NoError(t, repo.CreateOrder(ctx, order))

	fetched, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, fetched.Notes, "confirmed order must not be editable")
	assert.Equal(t, domain.OrderStatusConfirmed, fetched.Status)
}

func TestGetOrderByID_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetOrderByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestUpdateStatus_CompareAndSet(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := newTestOrder("cust-1")
	require.NoError(t, repo.CreateOrder(ctx, order))

	require.NoError(t, repo.UpdateStatus(ctx, order.ID, domain.OrderStatusDraft, domain.OrderStatusCancelled))

	// a second transition out of the terminal state loses the compare-and-set
	err := repo.UpdateStatus(ctx, order.ID, domain.OrderStatusDraft, domain.OrderStatusConfirmed)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	fetched, _ := repo.GetOrderByID(ctx, order.ID)
	assert.Equal(t, domain.OrderStatusCancelled, fetched.Status)
}

func TestUpdateStatus_MissingOrder(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.UpdateStatus(context.Background(), uuid.New(), domain.OrderStatusDraft, domain.OrderStatusCancelled)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestConfirmOrder_WritesOutboxEventAtomically(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := newTestOrder("cust-1")
	require.NoError(t, repo.CreateOrder(ctx, order))

	payload, _ := json.Marshal(map[string]string{"order_id": order.ID.String()})
	require.NoError(t, repo.ConfirmOrder(ctx, order.ID, "order-confirmed", payload))

	fetched, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, fetched.Status)

	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, order.ID.String(), events[0].AggregateID)
	assert.Equal(t, "order-confirmed", events[0].EventType)
	assert.JSONEq(t, string(payload), string(events[0].Payload))
}

func TestConfirmOrder_LostRaceLeavesNoEvent(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := newTestOrder("cust-1")
	require.NoError(t, repo.CreateOrder(ctx, order))
	require.NoError(t, repo.UpdateStatus(ctx, order.ID, domain.OrderStatusDraft, domain.OrderStatusCancelled))

	err := repo.ConfirmOrder(ctx, order.ID, "order-confirmed", []byte(`{}`))
	assert.ErrorIs(t, err, ErrIllegalTransition)

	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events, "a failed confirm must not leave an outbox row")
}

func TestMarkEventAsProcessed(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := newTestOrder("cust-1")
	require.NoError(t, repo.CreateOrder(ctx, order))
	require.NoError(t, repo.ConfirmOrder(ctx, order.ID, "order-confirmed", []byte(`{}`)))

	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)

	require.NoError(t, repo.MarkEventAsProcessed(ctx, events[0].ID))

	events, err = repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestListOrdersByCustomer_NewestFirst(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	customerID := "cust-list-test"

	order1 := newTestOrder(customerID)
	require.NoError(t, repo.CreateOrder(ctx, order1))

	// Small sleep to ensure different created_at timestamps
	time.Sleep(10 * time.Millisecond)

	order2 := newTestOrder(customerID)
	require.NoError(t, repo.CreateOrder(ctx, order2))

	orders, err := repo.ListOrdersByCustomer(ctx, customerID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, order2.ID, orders[0].ID)
	assert.Equal(t, order1.ID, orders[1].ID)
}

package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-orders/internal/models"
	"ms-orders/internal/order/db"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, db.CreateTables(context.Background(), bunDB))

	t.Cleanup(func() { bunDB.Close() })
	return &db.DB{Bun: bunDB}
}

func sampleOrder(key string) models.Order {
	now := time.Now()
	return models.Order{
		OrderID:        uuid.NewString(),
		IdempotencyKey: key,
		UserID:         "user123",
		EventID:        "event456",
		SubtotalCents:  3500,
		TaxCents:       350,
		TotalCents:     3850,
		Status:         models.OrderStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestCreateAndGetOrder(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	order := sampleOrder(uuid.NewString())
	require.NoError(t, d.CreateOrder(ctx, order))

	got, err := d.GetOrderByID(ctx, order.OrderID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, order.OrderID, got.OrderID)
	assert.Equal(t, int64(3850), got.TotalCents)
	assert.Equal(t, models.OrderStatusPending, got.Status)
}

func TestGetOrderByID_NotFound(t *testing.T) {
	d := setupTestDB(t)

	got, err := d.GetOrderByID(context.Background(), "nope")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetOrderByIdempotencyKey(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	key := uuid.NewString()

	got, err := d.GetOrderByIdempotencyKey(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)

	order := sampleOrder(key)
	require.NoError(t, d.CreateOrder(ctx, order))

	got, err = d.GetOrderByIdempotencyKey(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, order.OrderID, got.OrderID)
}

// Two orders racing on the same idempotency key: the second insert must
// fail in a way IsUniqueViolation recognizes.
func TestCreateOrder_DuplicateIdempotencyKey(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	key := uuid.NewString()

	require.NoError(t, d.CreateOrder(ctx, sampleOrder(key)))

	err := d.CreateOrder(ctx, sampleOrder(key))
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err))
}

func TestUpdateOrderStatus(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	order := sampleOrder(uuid.NewString())
	require.NoError(t, d.CreateOrder(ctx, order))
	require.NoError(t, d.UpdateOrderStatus(ctx, order.OrderID, models.OrderStatusConfirmed))

	got, err := d.GetOrderByID(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, got.Status)
}

func TestOrderItems_InsertAndGet(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	order := sampleOrder(uuid.NewString())
	require.NoError(t, d.CreateOrder(ctx, order))

	items := []models.OrderItem{
		{ItemID: uuid.NewString(), OrderID: order.OrderID, SeatID: "10", SeatCode: "A10", SeatPriceCents: 1500},
		{ItemID: uuid.NewString(), OrderID: order.OrderID, SeatID: "11", SeatCode: "A11", SeatPriceCents: 2000},
	}
	require.NoError(t, d.InsertOrderItems(ctx, items))

	got, err := d.GetOrderItems(ctx, order.OrderID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1500)+int64(2000), got[0].SeatPriceCents+got[1].SeatPriceCents)
}

func TestInsertOrderItems_EmptyIsNoOp(t *testing.T) {
	d := setupTestDB(t)
	assert.NoError(t, d.InsertOrderItems(context.Background(), nil))
}

func TestTickets_InsertAndGet(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	order := sampleOrder(uuid.NewString())
	require.NoError(t, d.CreateOrder(ctx, order))

	ticket := models.Ticket{
		TicketID:   uuid.NewString(),
		OrderID:    order.OrderID,
		SeatID:     "10",
		TicketCode: "TICKET-" + uuid.NewString(),
		QRCode:     []byte{0x89, 0x50, 0x4e, 0x47},
		IssuedAt:   time.Now(),
	}
	require.NoError(t, d.InsertTicket(ctx, ticket))

	got, err := d.GetTicketsByOrder(ctx, order.OrderID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ticket.TicketCode, got[0].TicketCode)
	assert.NotEmpty(t, got[0].QRCode)
}

func TestInsertTicket_DuplicateCode(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	order := sampleOrder(uuid.NewString())
	require.NoError(t, d.CreateOrder(ctx, order))

	code := "TICKET-" + uuid.NewString()
	first := models.Ticket{TicketID: uuid.NewString(), OrderID: order.OrderID, SeatID: "10", TicketCode: code, IssuedAt: time.Now()}
	require.NoError(t, d.InsertTicket(ctx, first))

	second := models.Ticket{TicketID: uuid.NewString(), OrderID: order.OrderID, SeatID: "11", TicketCode: code, IssuedAt: time.Now()}
	err := d.InsertTicket(ctx, second)
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, db.IsUniqueViolation(nil))
	assert.False(t, db.IsUniqueViolation(errors.New("connection refused")))
	assert.True(t, db.IsUniqueViolation(errors.New(`pq: duplicate key value violates unique constraint "orders_idempotency_key_key"`)))
	assert.True(t, db.IsUniqueViolation(errors.New("UNIQUE constraint failed: orders.idempotency_key")))
}

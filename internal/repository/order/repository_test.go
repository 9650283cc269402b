package order_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/orderdash/orderdash/internal/config"
	"github.com/orderdash/orderdash/internal/database"
	"github.com/orderdash/orderdash/internal/entity"
	order "github.com/orderdash/orderdash/internal/repository/order"
)

const testSchema = `
CREATE TABLE orders (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    order_number VARCHAR(50) NOT NULL UNIQUE,
    customer_name VARCHAR(255) NOT NULL,
    product_name VARCHAR(255) NOT NULL,
    quantity INTEGER NOT NULL,
    price NUMERIC NOT NULL,
    total NUMERIC NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'Pending',
    order_date TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    notes TEXT NOT NULL DEFAULT ''
);
CREATE INDEX idx_orders_status ON orders (status);
CREATE INDEX idx_orders_order_date ON orders (order_date);
`

func newTestRepo(t *testing.T) (*order.Repository, *database.Connections) {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "orders.db")
	conns, err := database.Open(config.Database{Driver: "sqlite", WriterDSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conns.Close() })

	_, err = conns.Writer.ExecContext(context.Background(), testSchema)
	require.NoError(t, err)

	return order.NewRepository(conns), conns
}

func newOrder(number string) *entity.Order {
	price := decimal.RequireFromString("9.99")
	return &entity.Order{
		OrderNumber:  number,
		CustomerName: "Alice",
		ProductName:  "Widget",
		Quantity:     3,
		Price:        price,
		Total:        price.Mul(decimal.NewFromInt(3)),
		Status:       entity.StatusPending,
		Notes:        "first order",
	}
}

func countOrders(t *testing.T, conns *database.Connections) int {
	t.Helper()
	n, err := conns.Reader.NewSelect().Model((*entity.Order)(nil)).Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestCreateAndGet(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	o := newOrder("ORD-1")
	require.NoError(t, repo.Create(ctx, o))
	require.Greater(t, o.ID, int64(0))
	require.False(t, o.OrderDate.IsZero())
	require.False(t, o.UpdatedAt.IsZero())

	stored, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, "ORD-1", stored.OrderNumber)
	require.Equal(t, "Alice", stored.CustomerName)
	require.Equal(t, 3, stored.Quantity)
	require.True(t, stored.Total.Equal(decimal.RequireFromString("29.97")), "total = %s", stored.Total)
	require.Equal(t, entity.StatusPending, stored.Status)
	require.Equal(t, "first order", stored.Notes)
}

func TestCreateDefaultsStatus(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	o := newOrder("ORD-1")
	o.Status = ""
	require.NoError(t, repo.Create(ctx, o))

	stored, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, entity.StatusPending, stored.Status)
}

func TestCreateDuplicateNumber(t *testing.T) {
	repo, conns := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newOrder("ORD-1")))

	err := repo.Create(ctx, newOrder("ORD-1"))
	require.ErrorIs(t, err, order.ErrDuplicateNumber)
	require.Equal(t, 1, countOrders(t, conns))
}

func TestGetByIDNotFound(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.GetByID(context.Background(), 404)
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i, number := range []string{"ORD-1", "ORD-2", "ORD-3"} {
		o := newOrder(number)
		o.OrderDate = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, repo.Create(ctx, o))
	}

	orders, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	require.Equal(t, "ORD-3", orders[0].OrderNumber)
	require.Equal(t, "ORD-1", orders[2].OrderNumber)

	// A newer order moves to the front.
	newest := newOrder("ORD-4")
	newest.OrderDate = base.Add(48 * time.Hour)
	require.NoError(t, repo.Create(ctx, newest))

	orders, err = repo.List(ctx)
	require.NoError(t, err)
	require.Equal(t, "ORD-4", orders[0].OrderNumber)
}

func TestUpdateReplacesMutableFields(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	o := newOrder("ORD-1")
	require.NoError(t, repo.Create(ctx, o))

	updated := *o
	updated.OrderNumber = "ORD-9" // must be ignored; the number is frozen
	updated.CustomerName = "Bob"
	updated.Quantity = 5
	updated.Price = decimal.RequireFromString("2.00")
	updated.Total = decimal.RequireFromString("10.00")
	updated.Status = entity.StatusProcessing
	updated.Notes = "rush"
	require.NoError(t, repo.Update(ctx, o.ID, &updated))

	stored, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, "ORD-1", stored.OrderNumber)
	require.Equal(t, "Bob", stored.CustomerName)
	require.Equal(t, 5, stored.Quantity)
	require.True(t, stored.Total.Equal(decimal.RequireFromString("10.00")))
	require.Equal(t, entity.StatusProcessing, stored.Status)
	require.Equal(t, "rush", stored.Notes)
}

func TestUpdateNotFound(t *testing.T) {
	repo, _ := newTestRepo(t)

	err := repo.Update(context.Background(), 404, newOrder("ORD-1"))
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestUpdateStatusTouchesOnlyStatus(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	o := newOrder("ORD-1")
	require.NoError(t, repo.Create(ctx, o))
	before, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)

	require.NoError(t, repo.UpdateStatus(ctx, o.ID, entity.StatusCompleted))

	after, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, entity.StatusCompleted, after.Status)
	require.Equal(t, before.OrderNumber, after.OrderNumber)
	require.Equal(t, before.CustomerName, after.CustomerName)
	require.Equal(t, before.ProductName, after.ProductName)
	require.Equal(t, before.Quantity, after.Quantity)
	require.True(t, before.Price.Equal(after.Price))
	require.True(t, before.Total.Equal(after.Total))
	require.Equal(t, before.Notes, after.Notes)
	require.True(t, before.OrderDate.Equal(after.OrderDate))
}

func TestUpdateStatusNotFound(t *testing.T) {
	repo, _ := newTestRepo(t)

	err := repo.UpdateStatus(context.Background(), 404, entity.StatusCompleted)
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestDelete(t *testing.T) {
	repo, conns := newTestRepo(t)
	ctx := context.Background()

	o := newOrder("ORD-1")
	require.NoError(t, repo.Create(ctx, o))
	require.NoError(t, repo.Delete(ctx, o.ID))
	require.Equal(t, 0, countOrders(t, conns))

	_, err := repo.GetByID(ctx, o.ID)
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestDeleteNotFound(t *testing.T) {
	repo, conns := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newOrder("ORD-1")))

	err := repo.Delete(ctx, 404)
	require.ErrorIs(t, err, order.ErrNotFound)
	require.Equal(t, 1, countOrders(t, conns))
}

func TestNumberExists(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	o := newOrder("ORD-1")
	require.NoError(t, repo.Create(ctx, o))

	exists, err := repo.NumberExists(ctx, "ORD-1", 0)
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = repo.NumberExists(ctx, "ORD-2", 0)
	require.NoError(t, err)
	require.False(t, exists)

	// Excluding the row itself supports update-time re-validation.
	exists, err = repo.NumberExists(ctx, "ORD-1", o.ID)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestNumberExistsCaseSensitive(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newOrder("ORD-1")))

	exists, err := repo.NumberExists(ctx, "ord-1", 0)
	require.NoError(t, err)
	require.False(t, exists)
}

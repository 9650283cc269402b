package seeder

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/orderdash/orderdash/internal/database"
	"github.com/orderdash/orderdash/internal/entity"
)

// Module provides the seeder to Fx.
var Module = fx.Provide(New)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger}
}

// Orders seeds example orders if they are missing.
func (s *Seeder) Orders(ctx context.Context) error {
	now := time.Now().UTC()
	samples := []entity.Order{
		{
			OrderNumber:  "ORD-1001",
			CustomerName: "Alice Johnson",
			ProductName:  "Widget",
			Quantity:     3,
			Price:        decimal.RequireFromString("9.99"),
			Status:       entity.StatusPending,
			Notes:        "Deliver before Friday",
		},
		{
			OrderNumber:  "ORD-1002",
			CustomerName: "Bob Lee",
			ProductName:  "Gadget",
			Quantity:     1,
			Price:        decimal.RequireFromString("149.50"),
			Status:       entity.StatusProcessing,
		},
		{
			OrderNumber:  "ORD-1003",
			CustomerName: "Carol Diaz",
			ProductName:  "Sprocket",
			Quantity:     10,
			Price:        decimal.RequireFromString("2.25"),
			Status:       entity.StatusCompleted,
		},
	}

	for _, sample := range samples {
		order := sample
		order.Total = order.Price.Mul(decimal.NewFromInt(int64(order.Quantity)))
		order.OrderDate = now
		order.UpdatedAt = now
		exists, err := s.db.NewSelect().
			Model((*entity.Order)(nil)).
			Where("order_number = ?", order.OrderNumber).
			Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if _, err := s.db.NewInsert().Model(&order).Exec(ctx); err != nil {
			return err
		}
	}

	s.logger.Info("seeded orders", zap.Int("count", len(samples)))
	return nil
}

package order

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/orderdash/orderdash/internal/database"
	"github.com/orderdash/orderdash/internal/entity"
)

var repoTracer = otel.Tracer("github.com/orderdash/orderdash/repository/order")

// ErrNotFound is returned when no order matches the given id.
var ErrNotFound = errors.New("order not found")

// ErrDuplicateNumber is returned when an insert or update hits the unique
// index on order_number. The index is the authoritative uniqueness guard;
// the service-level NumberExists check only provides an early, friendlier
// rejection.
var ErrDuplicateNumber = errors.New("order number already exists")

// Repository owns all persistence for orders. Every operation runs inside a
// scoped transaction that commits on success and rolls back on any failure.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// List returns all orders, newest order_date first. A storage failure is
// propagated so callers can tell an empty table apart from an unreachable
// store.
func (r *Repository) List(ctx context.Context) ([]entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.List")
	defer span.End()

	var orders []entity.Order
	err := r.reader.RunInTx(ctx, &sql.TxOptions{ReadOnly: true}, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().Model(&orders).Order("order_date DESC").Scan(ctx)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}

// GetByID fetches an order by primary key using the read connection.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := r.reader.RunInTx(ctx, &sql.TxOptions{ReadOnly: true}, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().Model(order).Where("id = ?", id).Scan(ctx)
	})
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// Create inserts a new order. Timestamps are stamped here; status defaults to
// Pending when absent. The generated id is written back onto the model.
func (r *Repository) Create(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Create", trace.WithAttributes(attribute.String("order.number", order.OrderNumber)))
	defer span.End()

	now := time.Now().UTC()
	if order.OrderDate.IsZero() {
		order.OrderDate = now
	}
	order.UpdatedAt = now
	if order.Status == "" {
		order.Status = entity.StatusPending
	}

	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(order).Exec(ctx)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		if isUniqueViolation(err) {
			return ErrDuplicateNumber
		}
		return err
	}
	return nil
}

// Update replaces the mutable fields of an existing order. order_number and
// order_date stay frozen. Returns ErrNotFound when no row matches id.
func (r *Repository) Update(ctx context.Context, id int64, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Update", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order.ID = id
	order.UpdatedAt = time.Now().UTC()

	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := existsInTx(ctx, tx, id); err != nil {
			return err
		}
		_, err := tx.NewUpdate().
			Model(order).
			Column("customer_name", "product_name", "quantity", "price", "total", "status", "notes", "updated_at").
			Where("id = ?", id).
			Exec(ctx)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "update failed")
		}
		return err
	}
	return nil
}

// UpdateStatus mutates only the status column (and updated_at).
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status entity.Status) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.UpdateStatus", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.status", string(status)),
	))
	defer span.End()

	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := existsInTx(ctx, tx, id); err != nil {
			return err
		}
		_, err := tx.NewUpdate().
			Model((*entity.Order)(nil)).
			Set("status = ?", status).
			Set("updated_at = ?", time.Now().UTC()).
			Where("id = ?", id).
			Exec(ctx)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "update failed")
		}
		return err
	}
	return nil
}

// Delete removes an order. Hard delete; returns ErrNotFound when no row
// matched.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*entity.Order)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "delete failed")
		}
		return err
	}
	return nil
}

// NumberExists reports whether another live order already carries the given
// order number. When excludeID > 0 that row is ignored, so update-time
// re-validation does not conflict with the record itself.
func (r *Repository) NumberExists(ctx context.Context, number string, excludeID int64) (bool, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.NumberExists", trace.WithAttributes(attribute.String("order.number", number)))
	defer span.End()

	var count int
	err := r.reader.RunInTx(ctx, &sql.TxOptions{ReadOnly: true}, func(ctx context.Context, tx bun.Tx) error {
		q := tx.NewSelect().
			Model((*entity.Order)(nil)).
			Where("order_number = ?", number)
		if excludeID > 0 {
			q = q.Where("id != ?", excludeID)
		}
		n, err := q.Count(ctx)
		count = n
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count failed")
		return false, err
	}
	return count > 0, nil
}

// existsInTx distinguishes "no row matched" from "row unchanged" before an
// update; MySQL reports zero affected rows for both.
func existsInTx(ctx context.Context, tx bun.Tx, id int64) error {
	exists, err := tx.NewSelect().
		Model((*entity.Order)(nil)).
		Where("id = ?", id).
		Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation recognises unique-index violations across the supported
// drivers.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}

	// modernc/mattn sqlite drivers expose no typed error through the shim.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

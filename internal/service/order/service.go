package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/orderdash/orderdash/internal/cache"
	"github.com/orderdash/orderdash/internal/config"
	"github.com/orderdash/orderdash/internal/entity"
	"github.com/orderdash/orderdash/internal/messaging"
	repo "github.com/orderdash/orderdash/internal/repository/order"
	"github.com/orderdash/orderdash/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/orderdash/orderdash/service/order")

const listCacheKey = "orders:list"

// Input carries raw order fields as submitted. Quantity and price stay
// strings so the service owns parsing and can report every violation in one
// pass, regardless of whether the intent arrived as a form or JSON.
type Input struct {
	OrderNumber  string
	CustomerName string
	ProductName  string
	Quantity     string
	Price        string
	Status       string
	Notes        string
}

// Service encapsulates business logic around orders.
type Service struct {
	repo      *repo.Repository
	cache     cache.Store
	cacheTTL  time.Duration
	logger    *zap.Logger
	publisher messaging.Client
	messaging messagingConfig
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
	Publisher  messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:      p.Repository,
		cache:     p.Cache,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		logger:    p.Logger,
		publisher: p.Publisher,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
		},
	}
}

// List returns all orders, newest first, consulting the cache when available.
func (s *Service) List(ctx context.Context) ([]entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.List")
	defer span.End()

	if orders, ok := s.listFromCache(ctx); ok {
		return orders, nil
	}

	orders, err := s.repo.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load orders", errorbank.WithCause(err))
	}

	s.storeListInCache(ctx, orders)
	return orders, nil
}

// Get retrieves an order by id, consulting cache when available.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if order, err := s.getFromCache(ctx, id); err == nil {
		return order, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("orders cache read failed", zap.Int64("id", id), zap.Error(err))
	}

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	if err := s.storeInCache(ctx, order); err != nil {
		s.logger.Warn("orders cache write failed", zap.Int64("id", id), zap.Error(err))
	}

	return order, nil
}

// Create validates the input and persists a new order. Validation collects
// every violation before rejecting; no store mutation happens on failure.
// The stored total is always quantity x price, never the client's value.
func (s *Service) Create(ctx context.Context, in Input) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Create", trace.WithAttributes(attribute.String("order.number", in.OrderNumber)))
	defer span.End()

	parsed, violations := s.validate(ctx, in, 0)
	if len(violations) > 0 {
		return nil, errorbank.Unprocessable("validation failed", errorbank.WithViolations(violations))
	}

	order := &entity.Order{
		OrderNumber:  strings.TrimSpace(in.OrderNumber),
		CustomerName: parsed.customerName,
		ProductName:  parsed.productName,
		Quantity:     parsed.quantity,
		Price:        parsed.price,
		Total:        parsed.total,
		Status:       parsed.status,
		Notes:        strings.TrimSpace(in.Notes),
	}

	if err := s.repo.Create(ctx, order); err != nil {
		if errors.Is(err, repo.ErrDuplicateNumber) {
			// Unique index caught a create that raced past the early check.
			return nil, errorbank.Unprocessable("validation failed",
				errorbank.WithViolations([]string{"Order number already exists"}))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create order", errorbank.WithCause(err))
	}

	s.invalidateCache(ctx, order.ID)
	if err := s.storeInCache(ctx, order); err != nil {
		s.logger.Warn("orders cache write failed", zap.Int64("id", order.ID), zap.Error(err))
	}

	s.publishEvent(ctx, EventOrderCreated, order)
	return order, nil
}

// Update validates the input and replaces the mutable fields of an existing
// order. The order number is frozen after creation and ignored here.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Update", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	parsed, violations := s.validateFields(in)
	if len(violations) > 0 {
		return nil, errorbank.Unprocessable("validation failed", errorbank.WithViolations(violations))
	}

	existing.CustomerName = parsed.customerName
	existing.ProductName = parsed.productName
	existing.Quantity = parsed.quantity
	existing.Price = parsed.price
	existing.Total = parsed.total
	existing.Status = parsed.status
	existing.Notes = strings.TrimSpace(in.Notes)

	if err := s.repo.Update(ctx, id, existing); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to update order", errorbank.WithCause(err))
	}

	s.invalidateCache(ctx, id)
	return existing, nil
}

// UpdateStatus changes only the status of an order. Any of the four statuses
// is reachable from any other; no transition graph is enforced.
func (s *Service) UpdateStatus(ctx context.Context, id int64, rawStatus string) error {
	ctx, span := serviceTracer.Start(ctx, "OrderService.UpdateStatus", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.status", rawStatus),
	))
	defer span.End()

	status, err := entity.ParseStatus(rawStatus)
	if err != nil {
		return errorbank.BadRequest("invalid status", errorbank.WithCause(err))
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to update status", errorbank.WithCause(err))
	}

	s.invalidateCache(ctx, id)

	if order, err := s.repo.GetByID(ctx, id); err == nil {
		s.publishEvent(ctx, EventOrderStatusChanged, order)
	}
	return nil
}

// Delete removes an order permanently.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to delete order", errorbank.WithCause(err))
	}

	s.invalidateCache(ctx, id)
	return nil
}

// parsedInput holds the typed result of a successful validation pass.
type parsedInput struct {
	customerName string
	productName  string
	quantity     int
	price        decimal.Decimal
	total        decimal.Decimal
	status       entity.Status
}

// validate runs the full rule set for create, including the order number
// checks. excludeID is forwarded to the uniqueness lookup.
func (s *Service) validate(ctx context.Context, in Input, excludeID int64) (parsedInput, []string) {
	var violations []string

	number := strings.TrimSpace(in.OrderNumber)
	if number == "" {
		violations = append(violations, "Order number is required")
	} else if s.numberTaken(ctx, number, excludeID) {
		violations = append(violations, "Order number already exists")
	}

	parsed, fieldViolations := s.validateFields(in)
	return parsed, append(violations, fieldViolations...)
}

// validateFields checks everything except the order number; used on update
// where the number is frozen.
func (s *Service) validateFields(in Input) (parsedInput, []string) {
	var (
		parsed     parsedInput
		violations []string
	)

	parsed.customerName = strings.TrimSpace(in.CustomerName)
	if parsed.customerName == "" {
		violations = append(violations, "Customer name is required")
	}

	parsed.productName = strings.TrimSpace(in.ProductName)
	if parsed.productName == "" {
		violations = append(violations, "Product name is required")
	}

	quantity, err := strconv.Atoi(strings.TrimSpace(in.Quantity))
	if err != nil || quantity <= 0 {
		violations = append(violations, "Quantity must be greater than 0")
	} else {
		parsed.quantity = quantity
	}

	price, err := decimal.NewFromString(strings.TrimSpace(in.Price))
	if err != nil || !price.IsPositive() {
		violations = append(violations, "Price must be greater than 0")
	} else {
		parsed.price = price
	}

	if len(violations) == 0 {
		parsed.total = parsed.price.Mul(decimal.NewFromInt(int64(parsed.quantity)))
	}

	parsed.status = entity.StatusPending
	if raw := strings.TrimSpace(in.Status); raw != "" {
		status, err := entity.ParseStatus(raw)
		if err != nil {
			violations = append(violations, "Invalid status")
		} else {
			parsed.status = status
		}
	}

	return parsed, violations
}

// numberTaken asks the store whether the order number is already in use. A
// lookup failure is logged and treated as "not taken": the unique index
// remains the authoritative guard and will reject the insert.
func (s *Service) numberTaken(ctx context.Context, number string, excludeID int64) bool {
	exists, err := s.repo.NumberExists(ctx, number, excludeID)
	if err != nil {
		s.logger.Warn("order number lookup failed", zap.String("number", number), zap.Error(err))
		return false
	}
	return exists
}

func (s *Service) cacheKey(id int64) string {
	return fmt.Sprintf("orders:%d", id)
}

func (s *Service) getFromCache(ctx context.Context, id int64) (*entity.Order, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	bytes, err := s.cache.Get(ctx, s.cacheKey(id))
	if err != nil {
		return nil, err
	}
	var order entity.Order
	if err := json.Unmarshal(bytes, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) storeInCache(ctx context.Context, order *entity.Order) error {
	if s.cache == nil || order == nil {
		return nil
	}
	bytes, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, s.cacheKey(order.ID), bytes, s.cacheTTL)
}

func (s *Service) listFromCache(ctx context.Context) ([]entity.Order, bool) {
	if s.cache == nil {
		return nil, false
	}
	bytes, err := s.cache.Get(ctx, listCacheKey)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("orders list cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var orders []entity.Order
	if err := json.Unmarshal(bytes, &orders); err != nil {
		return nil, false
	}
	return orders, true
}

func (s *Service) storeListInCache(ctx context.Context, orders []entity.Order) {
	if s.cache == nil {
		return
	}
	bytes, err := json.Marshal(orders)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, listCacheKey, bytes, s.cacheTTL); err != nil {
		s.logger.Warn("orders list cache write failed", zap.Error(err))
	}
}

// invalidateCache drops the list entry and the per-order entry after any
// mutation.
func (s *Service) invalidateCache(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, listCacheKey); err != nil {
		s.logger.Warn("orders list cache invalidation failed", zap.Error(err))
	}
	if id > 0 {
		if err := s.cache.Delete(ctx, s.cacheKey(id)); err != nil {
			s.logger.Warn("orders cache invalidation failed", zap.Int64("id", id), zap.Error(err))
		}
	}
}

func (s *Service) publishEvent(ctx context.Context, eventType string, order *entity.Order) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	event := OrderEvent{
		Type:        eventType,
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		Status:      string(order.Status),
		Total:       order.Total.String(),
		OccurredAt:  time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal order event", zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, []byte(fmt.Sprintf("order-%d", order.ID)), payload); err != nil {
		s.logger.Error("publish order event", zap.String("type", eventType), zap.Error(err))
	}
}

// Event types emitted on the bus.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent is emitted when an order is created or its status changes.
type OrderEvent struct {
	Type        string    `json:"type"`
	ID          int64     `json:"id"`
	OrderNumber string    `json:"order_number"`
	Status      string    `json:"status"`
	Total       string    `json:"total"`
	OccurredAt  time.Time `json:"occurred_at"`
}

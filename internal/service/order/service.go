package order

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/storefront/internal/cache"
	"github.com/Additional-Code/storefront/internal/config"
	"github.com/Additional-Code/storefront/internal/entity"
	"github.com/Additional-Code/storefront/internal/event"
	"github.com/Additional-Code/storefront/internal/pagination"
	repo "github.com/Additional-Code/storefront/internal/repository/order"
	"github.com/Additional-Code/storefront/pkg/errorbank"
)

const instrumentation = "github.com/Additional-Code/storefront/service/order"

var serviceTracer = otel.Tracer(instrumentation)

// Service encapsulates business logic around orders.
type Service struct {
	repo     *repo.Repository
	cache    cache.Store
	cacheTTL time.Duration
	logger   *zap.Logger
	events   *event.Publisher
	created  metric.Int64Counter
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
	Events     *event.Publisher
}

// NewService wires a new Service instance.
func NewService(p Params) (*Service, error) {
	created, err := otel.Meter(instrumentation).Int64Counter("storefront.orders.created", metric.WithDescription("Orders created"))
	if err != nil {
		return nil, err
	}

	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		repo:     p.Repository,
		cache:    p.Cache,
		cacheTTL: p.Config.Cache.DefaultTTL,
		logger:   logger,
		events:   p.Events,
		created:  created,
	}, nil
}

// Get retrieves an order by id, consulting cache when available.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	key := cache.Key("orders", id)
	if order, err := cache.GetJSON[entity.Order](ctx, s.cache, key); err == nil {
		return order, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("orders cache read failed", zap.Int64("id", id), zap.Error(err))
	}

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found", errorbank.WithDetail("order_id", id))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("load order", zap.Int64("id", id), zap.Error(err))
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	if err := cache.SetJSON(ctx, s.cache, key, order, s.cacheTTL); err != nil {
		s.logger.Warn("orders cache write failed", zap.Int64("id", id), zap.Error(err))
	}
	return order, nil
}

// Create persists a new order. An owner that does not exist is an integrity
// violation and nothing is stored.
func (s *Service) Create(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errorbank.BadRequest("order payload is required")
	}
	ctx, span := serviceTracer.Start(ctx, "OrderService.Create", trace.WithAttributes(attribute.Int64("order.user_id", order.UserID)))
	defer span.End()

	if err := s.repo.Create(ctx, order); err != nil {
		if errors.Is(err, repo.ErrUserMissing) {
			return errorbank.Integrity("user does not exist", errorbank.WithDetail("user_id", order.UserID), errorbank.WithCause(err))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("create order", zap.Int64("user_id", order.UserID), zap.Error(err))
		return errorbank.Internal("failed to create order", errorbank.WithCause(err))
	}
	span.SetAttributes(attribute.Int64("order.id", order.ID))

	s.created.Add(ctx, 1)
	s.events.Publish(ctx, event.OrderCreated, event.OrderKey(order.ID), event.FromOrder(order))
	s.logger.Info("order created", zap.Int64("id", order.ID), zap.Int64("user_id", order.UserID))
	return nil
}

// ListByUser returns one page of the user's orders in insertion order. A user
// without any orders yields NotFound rather than an empty page.
func (s *Service) ListByUser(ctx context.Context, userID int64, page pagination.Params) ([]entity.Order, pagination.Meta, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.ListByUser", trace.WithAttributes(
		attribute.Int64("order.user_id", userID),
		attribute.Int("page.number", page.Page),
		attribute.Int("page.size", page.Size),
	))
	defer span.End()

	orders, total, err := s.repo.ListByUser(ctx, userID, page.Limit(), page.Offset())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("list orders", zap.Int64("user_id", userID), zap.Error(err))
		return nil, pagination.Meta{}, errorbank.Internal("failed to list orders", errorbank.WithCause(err))
	}
	if total == 0 {
		return nil, pagination.Meta{}, errorbank.NotFound("no orders found for user", errorbank.WithDetail("user_id", userID))
	}
	return orders, pagination.NewMeta(page, total), nil
}

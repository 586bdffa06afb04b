package user

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
	repo "github.com/Additional-Code/storefront/internal/repository/user"
	"github.com/Additional-Code/storefront/pkg/errorbank"
)

const instrumentation = "github.com/Additional-Code/storefront/service/user"

var serviceTracer = otel.Tracer(instrumentation)

// Service encapsulates business logic around users.
type Service struct {
	repo     *repo.Repository
	cache    cache.Store
	cacheTTL time.Duration
	logger   *zap.Logger
	events   *event.Publisher
	created  metric.Int64Counter
	deleted  metric.Int64Counter
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
	meter := otel.Meter(instrumentation)
	created, err := meter.Int64Counter("storefront.users.created", metric.WithDescription("Users created"))
	if err != nil {
		return nil, err
	}
	deleted, err := meter.Int64Counter("storefront.users.deleted", metric.WithDescription("Users deleted"))
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
		deleted:  deleted,
	}, nil
}

// Get retrieves a user by id, consulting cache when available.
func (s *Service) Get(ctx context.Context, id int64) (*entity.User, error) {
	ctx, span := serviceTracer.Start(ctx, "UserService.Get", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	key := cache.Key("users", id)
	if user, err := cache.GetJSON[entity.User](ctx, s.cache, key); err == nil {
		return user, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("users cache read failed", zap.Int64("id", id), zap.Error(err))
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("user not found", errorbank.WithDetail("user_id", id))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("load user", zap.Int64("id", id), zap.Error(err))
		return nil, errorbank.Internal("failed to load user", errorbank.WithCause(err))
	}

	if err := cache.SetJSON(ctx, s.cache, key, user, s.cacheTTL); err != nil {
		s.logger.Warn("users cache write failed", zap.Int64("id", id), zap.Error(err))
	}
	return user, nil
}

// Create persists a new user and fills in its id and creation time.
func (s *Service) Create(ctx context.Context, user *entity.User) error {
	if user == nil {
		return errorbank.BadRequest("user payload is required")
	}
	ctx, span := serviceTracer.Start(ctx, "UserService.Create")
	defer span.End()

	if err := s.repo.Create(ctx, user); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("create user", zap.Error(err))
		return errorbank.Internal("failed to create user", errorbank.WithCause(err))
	}
	span.SetAttributes(attribute.Int64("user.id", user.ID))

	s.created.Add(ctx, 1)
	s.events.Publish(ctx, event.UserCreated, event.UserKey(user.ID), event.FromUser(user))
	s.logger.Info("user created", zap.Int64("id", user.ID))
	return nil
}

// Delete removes a user. Users that still own orders are rejected with a conflict.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := serviceTracer.Start(ctx, "UserService.Delete", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	if err := s.repo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return errorbank.NotFound("user not found", errorbank.WithDetail("user_id", id))
		case errors.Is(err, repo.ErrHasOrders):
			return errorbank.Conflict("user still has orders", errorbank.WithDetail("user_id", id))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("delete user", zap.Int64("id", id), zap.Error(err))
		return errorbank.Internal("failed to delete user", errorbank.WithCause(err))
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, cache.Key("users", id)); err != nil {
			s.logger.Warn("users cache invalidation failed", zap.Int64("id", id), zap.Error(err))
		}
	}

	s.deleted.Add(ctx, 1)
	s.events.Publish(ctx, event.UserDeleted, event.UserKey(id), event.User{ID: id})
	s.logger.Info("user deleted", zap.Int64("id", id))
	return nil
}

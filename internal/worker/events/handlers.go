// Package events holds the worker handlers that react to storefront domain events.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/storefront/internal/cache"
	"github.com/Additional-Code/storefront/internal/event"
	"github.com/Additional-Code/storefront/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/storefront/worker/events")

// Module registers the event handlers with the worker engine.
var Module = fx.Module("worker_events",
	fx.Provide(
		fx.Annotate(NewAuditHandler, fx.ResultTags(`group:"worker.handlers"`)),
		fx.Annotate(NewCacheEvictionHandler, fx.ResultTags(`group:"worker.handlers"`)),
	),
)

// NewAuditHandler logs every domain event with its decoded identifiers.
func NewAuditHandler(logger *zap.Logger) worker.HandlerRegistration {
	handler := func(ctx context.Context, env event.Envelope) error {
		_, span := workerTracer.Start(ctx, "worker.events.audit", trace.WithAttributes(
			attribute.String("event.type", string(env.Type)),
		))
		defer span.End()

		fields := []zap.Field{
			zap.String("type", string(env.Type)),
			zap.Time("occurred_at", env.OccurredAt),
		}

		switch env.Type {
		case event.OrderCreated:
			var o event.Order
			if err := json.Unmarshal(env.Payload, &o); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "decode error")
				return fmt.Errorf("decode %s: %w", env.Type, err)
			}
			fields = append(fields, zap.Int64("order_id", o.ID), zap.Int64("user_id", o.UserID), zap.String("title", o.Title))
		default:
			var u event.User
			if err := json.Unmarshal(env.Payload, &u); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "decode error")
				return fmt.Errorf("decode %s: %w", env.Type, err)
			}
			fields = append(fields, zap.Int64("user_id", u.ID))
		}

		logger.Info("domain event", fields...)
		return nil
	}

	return worker.HandlerRegistration{
		Name:    "audit",
		Events:  []event.Type{event.UserCreated, event.UserDeleted, event.OrderCreated},
		Handler: handler,
	}
}

// NewCacheEvictionHandler drops cached users once their deletion is observed,
// covering API replicas other than the one that served the delete.
func NewCacheEvictionHandler(store cache.Store, logger *zap.Logger) worker.HandlerRegistration {
	handler := func(ctx context.Context, env event.Envelope) error {
		var u event.User
		if err := json.Unmarshal(env.Payload, &u); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		if err := store.Delete(ctx, cache.Key("users", u.ID)); err != nil {
			return fmt.Errorf("evict user %d: %w", u.ID, err)
		}
		logger.Debug("evicted cached user", zap.Int64("user_id", u.ID))
		return nil
	}

	return worker.HandlerRegistration{
		Name:    "cache-eviction",
		Events:  []event.Type{event.UserDeleted},
		Handler: handler,
	}
}

package order

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/storefront/internal/database"
	"github.com/Additional-Code/storefront/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/storefront/repository/order")

var (
	// ErrNotFound is returned when an order is missing.
	ErrNotFound = errors.New("order not found")
	// ErrUserMissing is returned when the owning user does not exist.
	ErrUserMissing = errors.New("referenced user does not exist")
)

// Repository encapsulates read/write access for orders.
type Repository struct {
	conns *database.Connections
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{conns: conns}
}

// Create persists a new order using the write connection. The storage layer
// enforces that order.UserID exists and assigns the creation time.
func (r *Repository) Create(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Create", trace.WithAttributes(attribute.Int64("order.user_id", order.UserID)))
	defer span.End()

	err := r.conns.WithWriter(ctx, func(ctx context.Context, db bun.IDB) error {
		if _, err := db.NewInsert().Model(order).Exec(ctx); err != nil {
			return err
		}
		return database.LoadDefaults(ctx, db, order, order.CreatedAt)
	})
	if database.IsForeignKeyViolation(err) {
		span.SetStatus(codes.Error, "foreign key violation")
		return ErrUserMissing
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByID fetches an order by primary key using the read replica when available.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := r.conns.WithReader(ctx, func(ctx context.Context, db bun.IDB) error {
		return db.NewSelect().Model(order).Where("id = ?", id).Scan(ctx)
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

// ListByUser returns one page of a user's orders in insertion order together
// with the total number of orders the user owns.
func (r *Repository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]entity.Order, int, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ListByUser", trace.WithAttributes(
		attribute.Int64("order.user_id", userID),
		attribute.Int("page.limit", limit),
		attribute.Int("page.offset", offset),
	))
	defer span.End()

	orders := make([]entity.Order, 0, limit)
	var total int
	err := r.conns.WithReader(ctx, func(ctx context.Context, db bun.IDB) error {
		var err error
		total, err = db.NewSelect().
			Model(&orders).
			Where("user_id = ?", userID).
			OrderExpr("id ASC").
			Limit(limit).
			Offset(offset).
			ScanAndCount(ctx)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, 0, err
	}
	span.SetAttributes(attribute.Int("page.total", total))
	return orders, total, nil
}

package user

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

var repoTracer = otel.Tracer("github.com/Additional-Code/storefront/repository/user")

var (
	// ErrNotFound is returned when a user is missing.
	ErrNotFound = errors.New("user not found")
	// ErrHasOrders is returned when a delete is rejected because orders still reference the user.
	ErrHasOrders = errors.New("user still owns orders")
)

// Repository encapsulates read/write access for users. Every method runs a
// single statement inside its own session.
type Repository struct {
	conns *database.Connections
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{conns: conns}
}

// Create inserts user and fills in the generated ID and the creation time
// assigned by the database.
func (r *Repository) Create(ctx context.Context, user *entity.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	ctx, span := repoTracer.Start(ctx, "UserRepository.Create", trace.WithAttributes(attribute.String("user.email", user.Email)))
	defer span.End()

	err := r.conns.WithWriter(ctx, func(ctx context.Context, db bun.IDB) error {
		if _, err := db.NewInsert().Model(user).Exec(ctx); err != nil {
			return err
		}
		return database.LoadDefaults(ctx, db, user, user.CreatedAt)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByID fetches a user by primary key using the read replica when available.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	ctx, span := repoTracer.Start(ctx, "UserRepository.GetByID", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	user := new(entity.User)
	err := r.conns.WithReader(ctx, func(ctx context.Context, db bun.IDB) error {
		return db.NewSelect().Model(user).Where("id = ?", id).Scan(ctx)
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
	return user, nil
}

// Delete removes a user by primary key.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := repoTracer.Start(ctx, "UserRepository.Delete", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	var affected int64
	err := r.conns.WithWriter(ctx, func(ctx context.Context, db bun.IDB) error {
		res, err := db.NewDelete().Model((*entity.User)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	switch {
	case database.IsForeignKeyViolation(err):
		span.SetStatus(codes.Error, "referenced by orders")
		return ErrHasOrders
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return err
	case affected == 0:
		span.SetStatus(codes.Error, "not found")
		return ErrNotFound
	}
	return nil
}

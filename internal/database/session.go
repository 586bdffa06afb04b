package database

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// SessionFunc is a unit of work executed on a single checked-out connection.
type SessionFunc func(ctx context.Context, db bun.IDB) error

// WithReader runs fn on a connection taken from the reader pool.
func (c *Connections) WithReader(ctx context.Context, fn SessionFunc) error {
	return withSession(ctx, c.Reader, fn)
}

// WithWriter runs fn on a connection taken from the writer pool.
func (c *Connections) WithWriter(ctx context.Context, fn SessionFunc) error {
	return withSession(ctx, c.Writer, fn)
}

// withSession checks out one connection, hands it to fn and returns it to the
// pool on every exit path, panics included.
func withSession(ctx context.Context, db *bun.DB, fn SessionFunc) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	return fn(ctx, conn)
}

// LoadDefaults re-reads model by primary key when createdAt is still zero
// after an insert, which happens on drivers without RETURNING (MySQL).
func LoadDefaults(ctx context.Context, db bun.IDB, model any, createdAt time.Time) error {
	if !createdAt.IsZero() {
		return nil
	}
	if err := db.NewSelect().Model(model).WherePK().Scan(ctx); err != nil {
		return fmt.Errorf("reload inserted row: %w", err)
	}
	return nil
}

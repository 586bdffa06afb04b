package seeder

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/storefront/internal/database"
	"github.com/Additional-Code/storefront/internal/entity"
)

// Module provides the seeder to Fx.
var Module = fx.Provide(New)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// Sample is one seeded user with the orders it owns.
type Sample struct {
	User   entity.User
	Orders []entity.Order
}

// Samples is the fixed local dataset.
var Samples = []Sample{
	{
		User: entity.User{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
		Orders: []entity.Order{
			{Title: "Difference engine", Description: "Brass gears, assorted"},
			{Title: "Punched cards", Description: "Box of 500"},
		},
	},
	{
		User: entity.User{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com"},
		Orders: []entity.Order{
			{Title: "Nanosecond wire", Description: "11.8 inches"},
		},
	},
	{
		User: entity.User{FirstName: "Alan", LastName: "Turing", Email: "alan@example.com"},
	},
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger}
}

// Run inserts the sample users and their orders in one transaction. Users are
// matched by email, and orders are only added to users that have none, so
// running it twice changes nothing.
func (s *Seeder) Run(ctx context.Context) error {
	var users, orders int
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		now := time.Now().UTC()
		for _, sample := range Samples {
			user := sample.User
			found, err := s.findUser(ctx, tx, user.Email)
			if err != nil {
				return err
			}
			if found != nil {
				user = *found
			} else {
				user.CreatedAt = now
				if _, err := tx.NewInsert().Model(&user).Exec(ctx); err != nil {
					return fmt.Errorf("seed user %s: %w", user.Email, err)
				}
				users++
			}

			owned, err := tx.NewSelect().Model((*entity.Order)(nil)).Where("user_id = ?", user.ID).Count(ctx)
			if err != nil {
				return err
			}
			if owned > 0 {
				continue
			}
			for _, o := range sample.Orders {
				order := o
				order.UserID = user.ID
				order.CreatedAt = now
				if _, err := tx.NewInsert().Model(&order).Exec(ctx); err != nil {
					return fmt.Errorf("seed order %q: %w", order.Title, err)
				}
				orders++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("seeded data", zap.Int("users", users), zap.Int("orders", orders))
	}
	return nil
}

func (s *Seeder) findUser(ctx context.Context, db bun.IDB, email string) (*entity.User, error) {
	var matches []entity.User
	if err := db.NewSelect().Model(&matches).Where("email = ?", email).OrderExpr("id ASC").Limit(1).Scan(ctx); err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

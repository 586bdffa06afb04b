package user

import (
	"context"
	"errors"
	"testing"

	"github.com/uptrace/bun"

	"github.com/Additional-Code/storefront/internal/database/dbtest"
	"github.com/Additional-Code/storefront/internal/entity"
)

func TestCreateGetDelete(t *testing.T) {
	conns := dbtest.Open(t)
	repo := NewRepository(conns)
	ctx := context.Background()

	first := &entity.User{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
	second := &entity.User{FirstName: "Alan", LastName: "Turing", Email: "alan@example.com"}
	for _, u := range []*entity.User{first, second} {
		if err := repo.Create(ctx, u); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}
	if first.ID == 0 || second.ID == 0 || first.ID == second.ID {
		t.Fatalf("expected distinct generated ids, got %d and %d", first.ID, second.ID)
	}
	if first.CreatedAt.IsZero() || second.CreatedAt.IsZero() {
		t.Fatal("expected Create to fill in the database-assigned created_at")
	}

	got, err := repo.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if got.FirstName != "Ada" || got.LastName != "Lovelace" || got.Email != "ada@example.com" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be assigned by the database")
	}

	if err := repo.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := repo.GetByID(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestDeleteRejectedWhileOrdersExist(t *testing.T) {
	conns := dbtest.Open(t)
	repo := NewRepository(conns)
	ctx := context.Background()

	u := &entity.User{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com"}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	err := conns.WithWriter(ctx, func(ctx context.Context, db bun.IDB) error {
		_, err := db.NewInsert().Model(&entity.Order{Title: "compiler", UserID: u.ID}).Exec(ctx)
		return err
	})
	if err != nil {
		t.Fatalf("insert order: %v", err)
	}

	if err := repo.Delete(ctx, u.ID); !errors.Is(err, ErrHasOrders) {
		t.Fatalf("expected ErrHasOrders, got %v", err)
	}
	if _, err := repo.GetByID(ctx, u.ID); err != nil {
		t.Fatalf("user should survive a rejected delete: %v", err)
	}
}

package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"

	"github.com/Additional-Code/storefront/internal/cache"
	"github.com/Additional-Code/storefront/internal/config"
	"github.com/Additional-Code/storefront/internal/database/dbtest"
	"github.com/Additional-Code/storefront/internal/entity"
	"github.com/Additional-Code/storefront/internal/event"
	"github.com/Additional-Code/storefront/internal/event/eventtest"
	orderrepo "github.com/Additional-Code/storefront/internal/repository/order"
	repo "github.com/Additional-Code/storefront/internal/repository/user"
	"github.com/Additional-Code/storefront/pkg/errorbank"
)

type memoryCache map[string][]byte

func (m memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return v, nil
}

func (m memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m[key] = value
	return nil
}

func (m memoryCache) Delete(_ context.Context, key string) error {
	delete(m, key)
	return nil
}

type fixture struct {
	svc    *Service
	cache  memoryCache
	events *eventtest.Recorder
	orders *orderrepo.Repository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conns := dbtest.Open(t)
	publisher, rec := eventtest.NewPublisher(t)
	store := memoryCache{}

	svc, err := NewService(Params{
		Repository: repo.NewRepository(conns),
		Cache:      store,
		Config:     config.Config{Cache: config.Cache{DefaultTTL: time.Minute}},
		Logger:     zaptest.NewLogger(t),
		Events:     publisher,
	})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return fixture{svc: svc, cache: store, events: rec, orders: orderrepo.NewRepository(conns)}
}

func TestCreateGetDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := &entity.User{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com"}
	if err := f.svc.Create(ctx, user); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if user.ID == 0 || user.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp to be assigned: %+v", user)
	}

	got, err := f.svc.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	want := []string{"Grace", "Hopper", "grace@example.com"}
	if diff := cmp.Diff(want, []string{got.FirstName, got.LastName, got.Email}); diff != "" {
		t.Fatalf("user mismatch (-want +got):\n%s", diff)
	}
	if _, ok := f.cache[cache.Key("users", user.ID)]; !ok {
		t.Fatal("expected Get to populate the cache")
	}

	if err := f.svc.Delete(ctx, user.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, ok := f.cache[cache.Key("users", user.ID)]; ok {
		t.Fatal("expected Delete to invalidate the cache")
	}
	if _, err := f.svc.Get(ctx, user.ID); !errorbank.IsKind(err, errorbank.KindNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}

	if diff := cmp.Diff([]event.Type{event.UserCreated, event.UserDeleted}, f.events.Types(t)); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteMissingUser(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Delete(context.Background(), 404)
	if !errorbank.IsKind(err, errorbank.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if got := f.events.Types(t); len(got) != 0 {
		t.Fatalf("expected no events, got %v", got)
	}
}

func TestDeleteUserWithOrdersConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := &entity.User{FirstName: "Alan", LastName: "Turing", Email: "alan@example.com"}
	if err := f.svc.Create(ctx, user); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := f.orders.Create(ctx, &entity.Order{Title: "bombe", UserID: user.ID}); err != nil {
		t.Fatalf("create order: %v", err)
	}

	err := f.svc.Delete(ctx, user.ID)
	if !errorbank.IsKind(err, errorbank.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := f.svc.Get(ctx, user.ID); err != nil {
		t.Fatalf("user should still exist: %v", err)
	}
}

func TestGetServesFromCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cached := entity.User{ID: 77, FirstName: "Cached", LastName: "Only", Email: "cache@example.com"}
	if err := cache.SetJSON(ctx, f.cache, cache.Key("users", 77), cached, 0); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	got, err := f.svc.Get(ctx, 77)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Email != "cache@example.com" {
		t.Fatalf("expected cached user, got %+v", got)
	}
}

func TestCreateRejectsNil(t *testing.T) {
	f := newFixture(t)
	if err := f.svc.Create(context.Background(), nil); !errorbank.IsKind(err, errorbank.KindBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/segmentio/kafka-go"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zaptest"

	"github.com/Additional-Code/storefront/internal/config"
)

func TestNewClientFallsBackToNoop(t *testing.T) {
	var cfg config.Config
	cfg.Messaging.Kafka.Topic = "storefront.events"

	client, err := NewClient(fxtest.NewLifecycle(t), cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if client.Topic() != "storefront.events" {
		t.Fatalf("unexpected topic %q", client.Topic())
	}
	if err := client.Publish(context.Background(), Message{Value: []byte("x")}); err != nil {
		t.Fatalf("noop publish returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := client.Consume(ctx, nil); err == nil {
		t.Fatal("noop consume should return the context error")
	}
}

func TestNewClientRejectsUnknownDriver(t *testing.T) {
	var cfg config.Config
	cfg.Messaging.Enabled = true
	cfg.Messaging.Driver = "nats"

	if _, err := NewClient(fxtest.NewLifecycle(t), cfg, zaptest.NewLogger(t)); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestFromKafkaCopiesHeaders(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	in := kafka.Message{
		Topic:   "storefront.events",
		Key:     []byte("user-1"),
		Value:   []byte(`{}`),
		Offset:  42,
		Time:    ts,
		Headers: []kafka.Header{{Key: "event-type", Value: []byte("user.created")}},
	}

	want := Message{
		Topic:   "storefront.events",
		Key:     []byte("user-1"),
		Value:   []byte(`{}`),
		Headers: map[string]string{"event-type": "user.created"},
		Offset:  42,
		Time:    ts,
	}
	if diff := cmp.Diff(want, fromKafka(in)); diff != "" {
		t.Fatalf("message mismatch (-want +got):\n%s", diff)
	}
}

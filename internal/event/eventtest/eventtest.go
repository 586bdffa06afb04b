// Package eventtest records published domain events in memory.
package eventtest

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/Additional-Code/storefront/internal/config"
	"github.com/Additional-Code/storefront/internal/event"
	"github.com/Additional-Code/storefront/internal/messaging"
)

// Recorder is a messaging.Client that keeps every published message.
type Recorder struct {
	mu       sync.Mutex
	messages []messaging.Message
}

var _ messaging.Client = (*Recorder)(nil)

// NewPublisher returns an enabled publisher writing into a fresh Recorder.
func NewPublisher(t testing.TB) (*event.Publisher, *Recorder) {
	t.Helper()
	var cfg config.Config
	cfg.Messaging.Enabled = true
	rec := &Recorder{}
	return event.NewPublisher(rec, cfg, zaptest.NewLogger(t)), rec
}

func (r *Recorder) Publish(_ context.Context, msg messaging.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

func (r *Recorder) Consume(ctx context.Context, _ messaging.Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (r *Recorder) Topic() string { return "eventtest" }

// Types lists the event types published so far, in order.
func (r *Recorder) Types(t testing.TB) []event.Type {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]event.Type, 0, len(r.messages))
	for _, msg := range r.messages {
		env, err := event.Decode(msg)
		if err != nil {
			t.Fatalf("decode recorded event: %v", err)
		}
		out = append(out, env.Type)
	}
	return out
}

package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/storefront/internal/config"
	"github.com/Additional-Code/storefront/internal/event"
	"github.com/Additional-Code/storefront/internal/messaging"
)

const maxBackoff = 30 * time.Second

// EventHandler processes one decoded domain event.
type EventHandler func(context.Context, event.Envelope) error

// HandlerRegistration binds domain event types to a handler.
type HandlerRegistration struct {
	Name    string
	Events  []event.Type
	Handler EventHandler
}

// Params collects dependencies via Fx.
type Params struct {
	fx.In

	Client        messaging.Client
	Logger        *zap.Logger
	Config        config.Config
	Registrations []HandlerRegistration `group:"worker.handlers"`
}

// Engine orchestrates background message consumption.
type Engine struct {
	client        messaging.Client
	logger        *zap.Logger
	cfg           config.Config
	registrations map[event.Type][]HandlerRegistration
	cancel        context.CancelFunc
	wg            *sync.WaitGroup
}

// NewEngine constructs the worker Engine.
func NewEngine(p Params) *Engine {
	reg := make(map[event.Type][]HandlerRegistration)
	for _, r := range p.Registrations {
		if r.Handler == nil {
			continue
		}
		for _, typ := range r.Events {
			reg[typ] = append(reg[typ], r)
		}
	}

	return &Engine{
		client:        p.Client,
		logger:        p.Logger,
		cfg:           p.Config,
		registrations: reg,
	}
}

// Module wires the engine into Fx lifecycle.
var Module = fx.Options(
	fx.Provide(NewEngine),
	fx.Invoke(func(lc fx.Lifecycle, engine *Engine) {
		lc.Append(fx.Hook{
			OnStart: engine.start,
			OnStop:  engine.stop,
		})
	}),
)

func (e *Engine) start(ctx context.Context) error {
	if !e.cfg.Messaging.Enabled || !e.cfg.Messaging.Workers.Enabled {
		e.logger.Info("worker engine disabled")

		return nil
	}
	if len(e.registrations) == 0 {
		e.logger.Info("worker engine has no handlers; skipping")

		return nil
	}

	concurrency := e.cfg.Messaging.Workers.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.wg = &sync.WaitGroup{}

	for i := 0; i < concurrency; i++ {
		workerID := i
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.consumeLoop(runCtx, workerID)
		}()
	}

	e.logger.Info("worker engine started", zap.Int("workers", concurrency), zap.String("topic", e.client.Topic()))

	return nil
}

func (e *Engine) stop(ctx context.Context) error {
	if e.cancel == nil {
		return nil
	}
	e.cancel()
	done := make(chan struct{})
	go func() {
		if e.wg != nil {
			e.wg.Wait()
		}
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		e.logger.Info("worker engine stopped")

		return nil
	}
}

// Dispatch decodes msg and runs every handler registered for its event type.
// Undecodable messages are logged and dropped so they cannot block the partition.
func (e *Engine) Dispatch(ctx context.Context, msg messaging.Message) error {
	env, err := event.Decode(msg)
	if err != nil {
		e.logger.Warn("dropping undecodable message", zap.Int64("offset", msg.Offset), zap.Error(err))

		return nil
	}

	handlers, ok := e.registrations[env.Type]
	if !ok {
		e.logger.Debug("no handler for event", zap.String("type", string(env.Type)))

		return nil
	}

	for _, r := range handlers {
		if err := r.Handler(ctx, env); err != nil {
			e.logger.Error("event handler failed", zap.String("handler", r.Name), zap.String("type", string(env.Type)), zap.Error(err))

			return err
		}
	}
	return nil
}

func (e *Engine) consumeLoop(ctx context.Context, workerID int) {
	backoff := time.Second
	logger := e.logger.With(zap.Int("worker", workerID))
	for {
		if ctx.Err() != nil {
			return
		}

		err := e.client.Consume(ctx, e.Dispatch)
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}

		logger.Error("consume loop error", zap.Error(err), zap.Duration("backoff", backoff))

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}

		if backoff < maxBackoff {
			backoff *= 2
		}
	}
}

// Package event defines the domain events emitted after successful writes
// and publishes them over the messaging client.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/storefront/internal/config"
	"github.com/Additional-Code/storefront/internal/entity"
	"github.com/Additional-Code/storefront/internal/messaging"
)

// Type names a domain event.
type Type string

const (
	UserCreated  Type = "user.created"
	UserDeleted  Type = "user.deleted"
	OrderCreated Type = "order.created"
)

// HeaderType carries the event type alongside the payload.
const HeaderType = "event-type"

// Envelope is the JSON body of every published event.
type Envelope struct {
	Type       Type            `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// User is the payload of user events.
type User struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Order is the payload of order events.
type Order struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// FromUser builds a user payload.
func FromUser(u *entity.User) User {
	return User{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email, CreatedAt: u.CreatedAt}
}

// FromOrder builds an order payload.
func FromOrder(o *entity.Order) Order {
	return Order{ID: o.ID, Title: o.Title, UserID: o.UserID, CreatedAt: o.CreatedAt}
}

// Module provides the event publisher to Fx.
var Module = fx.Provide(NewPublisher)

// Publisher emits domain events. Failures are logged and never returned:
// the write that triggered the event has already committed.
type Publisher struct {
	client  messaging.Client
	enabled bool
	logger  *zap.Logger
	now     func() time.Time
}

// NewPublisher wires a Publisher on top of the messaging client.
func NewPublisher(client messaging.Client, cfg config.Config, logger *zap.Logger) *Publisher {
	return &Publisher{
		client:  client,
		enabled: cfg.Messaging.Enabled,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Publish encodes payload into an Envelope and sends it keyed by key.
func (p *Publisher) Publish(ctx context.Context, typ Type, key string, payload any) {
	if p == nil || !p.enabled || p.client == nil {
		return
	}

	msg, err := p.encode(typ, key, payload)
	if err != nil {
		p.logger.Error("encode event", zap.String("type", string(typ)), zap.Error(err))
		return
	}
	if err := p.client.Publish(ctx, msg); err != nil {
		p.logger.Error("publish event", zap.String("type", string(typ)), zap.String("key", key), zap.Error(err))
		return
	}
	p.logger.Debug("event published", zap.String("type", string(typ)), zap.String("key", key))
}

func (p *Publisher) encode(typ Type, key string, payload any) (messaging.Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return messaging.Message{}, err
	}
	body, err := json.Marshal(Envelope{Type: typ, OccurredAt: p.now(), Payload: raw})
	if err != nil {
		return messaging.Message{}, err
	}
	return messaging.Message{
		Key:     []byte(key),
		Value:   body,
		Headers: map[string]string{HeaderType: string(typ)},
	}, nil
}

// Decode parses an envelope from a consumed message.
func Decode(msg messaging.Message) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		env.Type = Type(msg.Headers[HeaderType])
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("decode envelope: missing event type")
	}
	return env, nil
}

// UserKey and OrderKey partition events by record.
func UserKey(id int64) string  { return fmt.Sprintf("user-%d", id) }
func OrderKey(id int64) string { return fmt.Sprintf("order-%d", id) }

package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Event is one audit record flowing through the bus: logins, registrations,
// role grants and token revocations all publish here.
type Event interface {
	EventType() string
	EventID() string
	OccurredAt() time.Time
	Payload() interface{}
}

type BaseEvent struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) EventID() string {
	return e.ID
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

func (e BaseEvent) Payload() interface{} {
	return e.Data
}

type Handler func(ctx context.Context, event Event) error

// EventBus is an in-process dispatcher keyed by event type. Publish never
// blocks the caller on handler work; the auth and rbac flows publish from
// the request path and must not wait on audit sinks.
type EventBus struct {
	handlers map[string][]Handler
	logger   *slog.Logger
	mu       sync.RWMutex
}

func NewEventBus(logger *slog.Logger) *EventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventBus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

func (b *EventBus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.logger.Debug("event handler registered",
		"event_type", eventType,
		"handlers", len(b.handlers[eventType]))
}

// Publish fans the event out to every subscribed handler, each on its own
// goroutine. Handler errors are logged and swallowed; an audit sink failure
// must never fail a login.
func (b *EventBus) Publish(ctx context.Context, event Event) error {
	for _, handler := range b.handlersFor(event.EventType()) {
		go func(h Handler) {
			if err := h(ctx, event); err != nil {
				b.logger.Error("event handler failed",
					"event_type", event.EventType(),
					"event_id", event.EventID(),
					"error", err)
			}
		}(handler)
	}
	return nil
}

// PublishSync runs the handlers inline and stops at the first failure. The
// CLI event commands use it; nothing on the request path should.
func (b *EventBus) PublishSync(ctx context.Context, event Event) error {
	for _, handler := range b.handlersFor(event.EventType()) {
		if err := handler(ctx, event); err != nil {
			b.logger.Error("event handler failed",
				"event_type", event.EventType(),
				"event_id", event.EventID(),
				"error", err)
			return fmt.Errorf("handler failed for event %s: %w", event.EventType(), err)
		}
	}
	return nil
}

// handlersFor snapshots the handler list so a concurrent Subscribe cannot
// race the dispatch loop.
func (b *EventBus) handlersFor(eventType string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	registered := b.handlers[eventType]
	if len(registered) == 0 {
		return nil
	}
	out := make([]Handler, len(registered))
	copy(out, registered)
	return out
}

// Package events provides in-process pub/sub for session lifecycle
// notifications, used to invalidate cached calendar views and feed the
// external calendar sync.
package events

import (
	"sync"
	"time"
)

// Session event types.
const (
	SessionCreated     = "session.created"
	SessionUpdated     = "session.updated"
	SessionCancelled   = "session.cancelled"
	SessionCompleted   = "session.completed"
	SessionRescheduled = "session.rescheduled"
	SessionDeleted     = "session.deleted"
	SeriesGenerated    = "session.series_generated"
)

// Event represents a lightweight domain event. Dates lists the calendar
// days the event touched, so subscribers can invalidate precisely.
type Event struct {
	Type      string
	SessionID int64
	ClientID  int64
	Dates     []time.Time
	CreatedAt time.Time
}

// Handler reacts to an event.
type Handler func(event Event)

// Bus provides in-process pub/sub for events.
type Bus struct {
	subscribers map[string][]Handler
	mu          sync.RWMutex
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a given event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers a handler for every session event type.
func (b *Bus) SubscribeAll(handler Handler) {
	for _, t := range []string{
		SessionCreated, SessionUpdated, SessionCancelled,
		SessionCompleted, SessionRescheduled, SessionDeleted, SeriesGenerated,
	} {
		b.Subscribe(t, handler)
	}
}

// Publish notifies subscribers of the event type.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		handler(event)
	}
}

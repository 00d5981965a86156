package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventPostSynced     = "post_synced"
	EventCycleCompleted = "cycle_completed"
	EventCycleFailed    = "cycle_failed"
)

// PostSyncedPayload — снимок доставленного поста для подписчиков.
type PostSyncedPayload struct {
	CycleID string `json:"cycle_id"`
	PostID  string `json:"post_id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
}

// CyclePayload — итог цикла для подписчиков.
type CyclePayload struct {
	CycleID        string `json:"cycle_id"`
	State          string `json:"state"`
	ItemsExamined  int    `json:"items_examined"`
	ItemsDelivered int    `json:"items_delivered"`
	ErrorCount     int    `json:"error_count"`
	Reason         string `json:"reason,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}

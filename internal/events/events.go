package events

import (
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
)

const (
	EventBookingCancelled = "booking_cancelled"
	EventEffectFailed     = "cancellation_effect_failed"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// BookingCancelledPayload is emitted once per committed cancellation.
type BookingCancelledPayload struct {
	BookingID      int64     `json:"booking_id"`
	UserID         string    `json:"user_id"`
	OfferID        int64     `json:"offer_id"`
	PartnerID      int64     `json:"partner_id"`
	Reason         string    `json:"reason"`
	RefundEligible bool      `json:"refund_eligible"`
	RefundID       string    `json:"refund_id,omitempty"`
	PolicyApplied  string    `json:"policy_applied"`
	CancelledAt    time.Time `json:"cancelled_at"`
}

// EffectFailedPayload describes a secondary effect that failed or was dropped
// after the status commit.
type EffectFailedPayload struct {
	BookingID int64          `json:"booking_id"`
	Effect    string         `json:"effect"`
	Status    string         `json:"status"`
	Error     string         `json:"error"`
	Data      map[string]any `json:"data,omitempty"`
	At        time.Time      `json:"at"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the payload into v.
func (e *Event) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	logger      *zerolog.Logger
}

// NewEventBus constructs an empty bus. logger may be nil.
func NewEventBus(logger *zerolog.Logger) *EventBus {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &EventBus{subscribers: make(map[string][]EventHandler), logger: logger}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type. A failing handler does not
// stop the rest.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for i, handler := range handlers {
		if err := handler(event); err != nil {
			b.logger.Error().Err(err).
				Str("event_type", event.Type).
				Int("handler", i).
				Msg("event handler failed")
		}
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	ev, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}

	b.Publish(&ev)
	return nil
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}

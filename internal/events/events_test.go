package events

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus(nil)

	var received *Event
	var callCount int

	bus.Subscribe(EventEffectFailed, func(event *Event) error {
		received = event
		callCount++
		return nil
	})

	err := bus.PublishJSON(EventEffectFailed, EffectFailedPayload{
		BookingID: 7,
		Effect:    "refund",
		Status:    "failed",
		Error:     "gateway timeout",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, callCount)
	require.NotNil(t, received)
	assert.Equal(t, EventEffectFailed, received.Type)

	var decoded EffectFailedPayload
	require.NoError(t, received.Decode(&decoded))
	assert.Equal(t, int64(7), decoded.BookingID)
	assert.Equal(t, "gateway timeout", decoded.Error)
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus(nil)
	var count1, count2 int

	bus.Subscribe("event", func(_ *Event) error { count1++; return nil })
	bus.Subscribe("event", func(_ *Event) error { count2++; return nil })

	bus.Publish(&Event{Type: "event"})

	assert.Equal(t, 1, count1)
	assert.Equal(t, 1, count2)
}

func TestEventBusHandlerErrorDoesNotStopOthers(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	bus := NewEventBus(&logger)

	var secondCalled bool
	bus.Subscribe("event", func(_ *Event) error { return errors.New("redis down") })
	bus.Subscribe("event", func(_ *Event) error { secondCalled = true; return nil })

	bus.Publish(&Event{Type: "event"})

	assert.True(t, secondCalled)
	assert.Contains(t, buf.String(), "redis down")
	assert.Contains(t, buf.String(), `"event_type":"event"`)
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus(nil)
	assert.NotPanics(t, func() { bus.Publish(&Event{Type: "unknown"}) })
	assert.NoError(t, bus.PublishJSON("unknown", nil))

	var nilBus *EventBus
	assert.NoError(t, nilBus.PublishJSON("unknown", nil))
}

func TestNewJSONEvent(t *testing.T) {
	event, err := NewJSONEvent(EventBookingCancelled, BookingCancelledPayload{BookingID: 123, Reason: "sick"})
	require.NoError(t, err)

	assert.Equal(t, EventBookingCancelled, event.Type)
	assert.False(t, event.CreatedAt.IsZero())

	var decoded BookingCancelledPayload
	require.NoError(t, event.Decode(&decoded))
	assert.Equal(t, int64(123), decoded.BookingID)
	assert.Equal(t, "sick", decoded.Reason)
}

func TestNewJSONEventUnsupportedPayload(t *testing.T) {
	_, err := NewJSONEvent("bad", make(chan int))
	assert.Error(t, err)
}

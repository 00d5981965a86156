package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusPublishSubscribe(t *testing.T) {
	bus := NewEventBus()

	var received []string
	bus.Subscribe(EventPostSynced, func(ev *Event) error {
		var payload PostSyncedPayload
		require.NoError(t, json.Unmarshal(ev.Payload, &payload))
		received = append(received, payload.PostID)
		return nil
	})

	err := bus.PublishJSON(EventPostSynced, PostSyncedPayload{CycleID: "c1", PostID: "p1"})
	require.NoError(t, err)
	err = bus.PublishJSON(EventPostSynced, PostSyncedPayload{CycleID: "c1", PostID: "p2"})
	require.NoError(t, err)

	assert.Equal(t, []string{"p1", "p2"}, received)
}

func TestEventBusIgnoresUnsubscribedTypes(t *testing.T) {
	bus := NewEventBus()

	called := false
	bus.Subscribe(EventCycleFailed, func(ev *Event) error {
		called = true
		return nil
	})

	require.NoError(t, bus.PublishJSON(EventCycleCompleted, CyclePayload{CycleID: "c1"}))
	assert.False(t, called)
}

func TestEventBusNilReceiver(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON(EventPostSynced, PostSyncedPayload{}))
}

func TestEventBusSetsCreatedAt(t *testing.T) {
	bus := NewEventBus()

	bus.Subscribe(EventCycleCompleted, func(ev *Event) error {
		assert.False(t, ev.CreatedAt.IsZero())
		return nil
	})

	require.NoError(t, bus.PublishJSON(EventCycleCompleted, CyclePayload{CycleID: "c1"}))
}

package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var received []Event
	dispatcher.Subscribe(EventSessionIssued, func(_ context.Context, event Event) error {
		received = append(received, event)
		return nil
	})

	event := Event{
		ID:        "evt-1",
		Type:      EventSessionIssued,
		Username:  "alice",
		Timestamp: time.Now(),
	}
	require.NoError(t, dispatcher.Publish(context.Background(), event))

	require.Len(t, received, 1)
	assert.Equal(t, "evt-1", received[0].ID)
	assert.Equal(t, "alice", received[0].Username)
}

func TestDispatcherIgnoresUnrelatedTypes(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	called := false
	dispatcher.Subscribe(EventSessionRevoked, func(_ context.Context, _ Event) error {
		called = true
		return nil
	})

	require.NoError(t, dispatcher.Publish(context.Background(), Event{Type: EventSessionIssued}))
	assert.False(t, called)
}

func TestDispatcherContinuesPastHandlerErrors(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var order []string
	dispatcher.Subscribe(EventSessionIssued, func(_ context.Context, _ Event) error {
		order = append(order, "first")
		return errors.New("handler failure")
	})
	dispatcher.Subscribe(EventSessionIssued, func(_ context.Context, _ Event) error {
		order = append(order, "second")
		return nil
	})

	require.NoError(t, dispatcher.Publish(context.Background(), Event{Type: EventSessionIssued}))
	assert.Equal(t, []string{"first", "second"}, order)
}

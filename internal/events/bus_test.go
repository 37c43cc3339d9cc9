package events

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	ch, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	bus.Publish(Event{Type: RunStarted, RunID: "run-1"})

	select {
	case e := <-ch:
		assert.Equal(t, RunStarted, e.Type)
		assert.Equal(t, "run-1", e.RunID)
		assert.False(t, e.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("expected event on subscriber channel")
	}
}

func TestBus_UnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	ch, unsubscribe := bus.Subscribe()
	unsubscribe()

	_, open := <-ch
	assert.False(t, open)

	// Idempotent
	unsubscribe()
}

func TestBus_SlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	ch, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	// Overfill the buffer; Publish must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			bus.Publish(Event{Type: FundScored})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publish blocked on slow subscriber")
	}

	// Buffer holds the first 256 events
	require.Len(t, ch, 256)
}

func TestBus_NilBusIsSafe(t *testing.T) {
	var bus *Bus
	bus.Publish(Event{Type: RunCompleted}) // must not panic
}

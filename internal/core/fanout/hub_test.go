package fanout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetingtimer/internal/wire"
)

func TestPublishWithoutSubscribersIsDropped(t *testing.T) {
	hub := New(nil)
	hub.Publish(wire.Event{Action: wire.ActionTimerTick, TimeLeft: 3})
	assert.Equal(t, int64(1), hub.Dropped())
}

func TestPublishReachesEverySubscriber(t *testing.T) {
	hub := New(nil)
	panel := hub.Subscribe("panel", 4)
	overlay := hub.Subscribe("overlay", 4)
	defer panel.Close()
	defer overlay.Close()

	hub.Publish(wire.Event{Action: wire.ActionTimerTick, TimeLeft: 59})

	require.Len(t, panel.C, 1)
	require.Len(t, overlay.C, 1)
	assert.Equal(t, 59, (<-panel.C).TimeLeft)
	assert.Equal(t, 59, (<-overlay.C).TimeLeft)
}

func TestFullSubscriberDoesNotBlock(t *testing.T) {
	hub := New(nil)
	sub := hub.Subscribe("slow", 1)
	defer sub.Close()

	hub.Publish(wire.Event{Action: wire.ActionTimerTick, TimeLeft: 2})
	hub.Publish(wire.Event{Action: wire.ActionTimerTick, TimeLeft: 1})

	assert.Equal(t, int64(1), hub.Dropped())
	assert.Equal(t, 2, (<-sub.C).TimeLeft)
}

func TestFilteredSubscription(t *testing.T) {
	hub := New(nil)
	sub := hub.SubscribeFiltered("overlay-only", 2, func(event wire.Event) bool {
		return event.Action == wire.ActionShowTimerOverlay
	})
	defer sub.Close()

	hub.Publish(wire.Event{Action: wire.ActionTimerTick, TimeLeft: 5})
	hub.Publish(wire.Event{Action: wire.ActionShowTimerOverlay, TimeLeft: 60})

	require.Len(t, sub.C, 1)
	assert.Equal(t, wire.ActionShowTimerOverlay, (<-sub.C).Action)
}

func TestCloseIsIdempotent(t *testing.T) {
	hub := New(nil)
	sub := hub.Subscribe("panel", 1)
	assert.Equal(t, 1, hub.Len())

	sub.Close()
	sub.Close()

	assert.Equal(t, 0, hub.Len())
	_, ok := <-sub.C
	assert.False(t, ok)
}

// Package fanout pushes engine events to whichever observers currently exist.
//
// Delivery is best effort: an event published while nobody is subscribed, or
// while a subscriber's buffer is full, is dropped without error. Observers
// compensate through the store polling fallback.
package fanout

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"meetingtimer/internal/wire"
)

// Hub distributes events to live subscriptions.
type Hub struct {
	mu      sync.Mutex
	subs    map[*Subscription]struct{}
	logger  *slog.Logger
	dropped atomic.Int64
}

// Subscription is one observer's event stream.
type Subscription struct {
	Name string
	C    <-chan wire.Event

	ch     chan wire.Event
	hub    *Hub
	once   sync.Once
	filter func(wire.Event) bool
}

// New creates an empty hub.
func New(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		logger: logger.With("component", "fanout"),
	}
}

// Subscribe registers a new subscription with the given buffer size.
func (hub *Hub) Subscribe(name string, buffer int) *Subscription {
	return hub.SubscribeFiltered(name, buffer, nil)
}

// SubscribeFiltered registers a subscription that only receives events for
// which filter returns true. A nil filter accepts everything.
func (hub *Hub) SubscribeFiltered(name string, buffer int, filter func(wire.Event) bool) *Subscription {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan wire.Event, buffer)
	sub := &Subscription{Name: name, C: ch, ch: ch, hub: hub, filter: filter}

	hub.mu.Lock()
	hub.subs[sub] = struct{}{}
	hub.mu.Unlock()
	return sub
}

// Publish delivers the event to every subscription without blocking.
func (hub *Hub) Publish(event wire.Event) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	if len(hub.subs) == 0 {
		hub.dropped.Add(1)
		hub.logger.Debug("no observers", "event", event.String())
		return
	}
	for sub := range hub.subs {
		if sub.filter != nil && !sub.filter(event) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			hub.dropped.Add(1)
			hub.logger.Debug("observer busy, event dropped", "observer", sub.Name, "event", event.String())
		}
	}
}

// Len returns the number of live subscriptions.
func (hub *Hub) Len() int {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	return len(hub.subs)
}

// Dropped returns how many deliveries were skipped.
func (hub *Hub) Dropped() int64 {
	return hub.dropped.Load()
}

// Close unregisters the subscription and closes its channel. Safe to call
// more than once.
func (sub *Subscription) Close() {
	sub.once.Do(func() {
		sub.hub.mu.Lock()
		delete(sub.hub.subs, sub)
		close(sub.ch)
		sub.hub.mu.Unlock()
	})
}

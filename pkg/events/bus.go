package events

import (
	"sync"

	"github.com/jscyril/tiny_audio_player/api"
)

var allEventTypes = []api.EventType{
	api.EventTrackStarted,
	api.EventTrackEnded,
	api.EventStateChange,
	api.EventTracklistChanged,
	api.EventError,
}

// EventBus fans engine events out to subscriber channels. Publishing never
// blocks: a full subscriber misses the event.
type EventBus struct {
	subscribers map[api.EventType][]chan api.AudioEvent
	closed      bool
	mu          sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[api.EventType][]chan api.AudioEvent),
	}
}

// Subscribe returns a channel receiving events of the given types.
// With no types it receives every event.
func (b *EventBus) Subscribe(types ...api.EventType) <-chan api.AudioEvent {
	if len(types) == 0 {
		types = allEventTypes
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan api.AudioEvent, 16)
	if b.closed {
		close(ch)
		return ch
	}
	for _, t := range types {
		b.subscribers[t] = append(b.subscribers[t], ch)
	}
	return ch
}

// Publish broadcasts an event to all subscribers of that event type
func (b *EventBus) Publish(event api.AudioEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for _, ch := range b.subscribers[event.Type] {
		select {
		case ch <- event:
		default:
		}
	}
}

// Unsubscribe removes ch from every type it listens to and closes it.
// Unknown or already removed channels are ignored.
func (b *EventBus) Unsubscribe(ch <-chan api.AudioEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var found chan api.AudioEvent
	for eventType, subs := range b.subscribers {
		for i, sub := range subs {
			if sub == ch {
				b.subscribers[eventType] = append(subs[:i], subs[i+1:]...)
				found = sub
				break
			}
		}
	}
	if found != nil {
		close(found)
	}
}

// Close closes all subscriber channels. Later calls are no-ops.
func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	seen := make(map[chan api.AudioEvent]bool)
	for _, subs := range b.subscribers {
		for _, ch := range subs {
			if !seen[ch] {
				close(ch)
				seen[ch] = true
			}
		}
	}
	b.subscribers = make(map[api.EventType][]chan api.AudioEvent)
}

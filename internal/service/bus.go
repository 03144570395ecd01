package service

import (
	"sync"
	"time"
)

// Resources published on the bus.
const (
	ResourceDataset    = "dataset"
	ResourceVisibility = "visibility"
	ResourceTiles      = "tiles"
)

// Event represents a state change.
type Event struct {
	Resource string    `json:"resource"` // dataset, visibility, tiles
	Action   string    `json:"action"`   // reseeded, loaded, updated, exported
	ID       string    `json:"id"`       // snapshot id, layer id or file name
	Time     time.Time `json:"time"`
}

// EventBus is a fan-out pub/sub for change events. Slow subscribers miss
// events rather than block publishers.
type EventBus struct {
	mu     sync.RWMutex
	subs   map[chan Event]struct{}
	closed bool
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[chan Event]struct{})}
}

// Publish stamps e and sends it to every subscriber without blocking.
func (b *EventBus) Publish(e Event) {
	if b == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe returns a buffered channel of events. After Close it returns a
// closed channel.
func (b *EventBus) Subscribe() chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *EventBus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

// Len reports the number of subscribers.
func (b *EventBus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes every subscriber channel. Later Subscribe calls get closed
// channels.
func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		close(ch)
	}
	b.subs = make(map[chan Event]struct{})
	b.closed = true
}

// Package events carries bot activity notifications from the core to the
// presentation layer. The core publishes; presenters subscribe. Publishing
// never blocks the decision cycle.
package events

import (
	"sync"
	"time"
)

// Kind classifies an event for presenters.
type Kind string

const (
	KindModeChanged Kind = "mode_changed"
	KindCycle       Kind = "cycle"
	KindSignal      Kind = "signal"
	KindOrder       Kind = "order"
	KindTradeClosed Kind = "trade_closed"
	KindNews        Kind = "news"
	KindError       Kind = "error"
)

// Event is one activity notification.
type Event struct {
	Kind    Kind
	At      time.Time
	Message string
	Fields  map[string]interface{}
}

// Bus fans events out to subscribers. Slow subscribers lose events rather
// than stalling the publisher.
type Bus struct {
	mu   sync.RWMutex
	subs []chan Event
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a new subscriber and returns its channel. The channel
// is buffered; events published while it is full are dropped for that
// subscriber.
func (b *Bus) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Event, buffer)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

// Publish delivers the event to every subscriber that has room.
func (b *Bus) Publish(kind Kind, message string, fields map[string]interface{}) {
	ev := Event{Kind: kind, At: time.Now(), Message: message, Fields: fields}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close closes all subscriber channels. Publish must not be called after
// Close.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}

// Package events carries state changes from the session manager, the
// synchronizer and the transaction orchestrator to whatever renders them.
package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/campus-bazaar/internal/model"
)

// Kind identifies an event.
type Kind string

// Event kinds.
const (
	SessionConnected   Kind = "session.connected"
	SessionReset       Kind = "session.reset"
	SyncStarted        Kind = "sync.started"
	SyncCompleted      Kind = "sync.completed"
	SyncFailed         Kind = "sync.failed"
	OperationSubmitted Kind = "operation.submitted"
	OperationConfirmed Kind = "operation.confirmed"
	OperationFailed    Kind = "operation.failed"
)

// Event is a single notification. Only the fields relevant to Kind are set.
type Event struct {
	Time      time.Time
	Err       error
	Operation *model.Operation
	Kind      Kind
	Reason    string
	Session   model.Session
	Count     int
}

// Bus fans events out to subscribers. Publishing never blocks: a subscriber
// whose buffer is full misses the event.
type Bus struct {
	subs map[int]chan Event
	next int
	mu   sync.RWMutex
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe returns a channel receiving every event published after the call
// and a function that unsubscribes and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers e to all subscribers. A nil bus discards events.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		select {
		case ch <- e:
		default:
			slog.Debug("Dropping event for slow subscriber", "subscriber", id, "kind", e.Kind)
		}
	}
}

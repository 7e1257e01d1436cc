// Package wallet provides wallet providers and the session manager that
// turns provider state into a bound ledger handle.
package wallet

import (
	"log/slog"
	"sync"

	"github.com/Veraticus/campus-bazaar/internal/service"
)

// notifier fans provider events out to subscribers without blocking.
type notifier struct {
	subs map[int]chan<- service.WalletEvent
	next int
	mu   sync.Mutex
}

func (n *notifier) subscribe(ch chan<- service.WalletEvent) func() {
	n.mu.Lock()
	if n.subs == nil {
		n.subs = make(map[int]chan<- service.WalletEvent)
	}
	id := n.next
	n.next++
	n.subs[id] = ch
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}

func (n *notifier) emit(kind service.WalletEventKind, value string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.subs {
		select {
		case ch <- service.WalletEvent{Kind: kind, Value: value}:
		default:
			slog.Warn("Dropped wallet event", "kind", kind)
		}
	}
}

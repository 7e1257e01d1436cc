package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Veraticus/campus-bazaar/internal/common"
	"github.com/Veraticus/campus-bazaar/internal/events"
	"github.com/Veraticus/campus-bazaar/internal/model"
	"github.com/Veraticus/campus-bazaar/internal/service"
)

// ErrSessionChanged is returned when the wallet's account or network
// changed while a session or handle was being built.
var ErrSessionChanged = fmt.Errorf("%w: wallet changed while connecting", common.ErrWalletUnavailable)

// Manager owns the wallet session and the ledger handle bound to it.
// Any provider account or network change discards both.
type Manager struct {
	provider  service.WalletProvider
	binder    service.LedgerBinder
	bus       *events.Bus
	handle    service.Ledger
	listeners map[int]func(reason string)
	session   model.Session
	nextID    int
	mu        sync.Mutex
	watch     sync.Once

	// generation counts resets. A rebuild started in an older generation
	// is discarded.
	generation uint64
}

// NewManager creates a disconnected session manager.
func NewManager(provider service.WalletProvider, binder service.LedgerBinder, bus *events.Bus) *Manager {
	return &Manager{provider: provider, binder: binder, bus: bus}
}

func (m *Manager) available() bool {
	return m.provider != nil && m.provider.Available()
}

func (m *Manager) currentGeneration() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

// OnReset registers fn to run synchronously inside every Reset, before the
// reset is published on the bus. It returns a function that removes fn.
func (m *Manager) OnReset(fn func(reason string)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listeners == nil {
		m.listeners = make(map[int]func(string))
	}
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// Session returns the current session.
func (m *Manager) Session() model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Connected reports whether an account is connected.
func (m *Manager) Connected() bool {
	return m.Session().Connected()
}

// Connect requests account access and binds a signing ledger handle to the
// first returned account.
func (m *Manager) Connect(ctx context.Context) (model.Session, error) {
	if !m.available() {
		return model.Session{}, fmt.Errorf("%w: no wallet provider", common.ErrWalletUnavailable)
	}
	generation := m.currentGeneration()

	accounts, err := m.provider.RequestAccounts(ctx)
	if err != nil {
		return model.Session{}, fmt.Errorf("account request failed: %w", err)
	}
	if len(accounts) == 0 {
		return model.Session{}, fmt.Errorf("%w: provider returned no accounts", common.ErrWalletUnavailable)
	}

	network, err := m.provider.Network(ctx)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to read network: %w", err)
	}

	handle, err := m.binder.Bind(ctx, accounts[0])
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to bind ledger for %s: %w", accounts[0], err)
	}

	session := model.Session{Account: accounts[0], Network: network}
	m.mu.Lock()
	if m.generation != generation {
		m.mu.Unlock()
		slog.Info("Discarding wallet connection made before a wallet change", "account", session.Account)
		return model.Session{}, ErrSessionChanged
	}
	m.session = session
	m.handle = handle
	m.mu.Unlock()

	slog.Info("Wallet connected", "account", session.Account, "network", session.Network)
	m.bus.Publish(events.Event{Kind: events.SessionConnected, Session: session})
	return session, nil
}

// EnsureHandle returns the current ledger handle, building it from the
// provider state when none exists. Without a connected account the handle is
// read-only.
func (m *Manager) EnsureHandle(ctx context.Context) (service.Ledger, error) {
	if !m.available() {
		return nil, fmt.Errorf("%w: no wallet provider", common.ErrWalletUnavailable)
	}

	m.mu.Lock()
	if m.handle != nil {
		handle := m.handle
		m.mu.Unlock()
		return handle, nil
	}
	session := m.session
	generation := m.generation
	m.mu.Unlock()

	if session.Network == "" {
		network, err := m.provider.Network(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read network: %w", err)
		}
		session.Network = network
	}

	handle, err := m.binder.Bind(ctx, session.Account)
	if err != nil {
		return nil, fmt.Errorf("failed to bind ledger: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != generation {
		return nil, ErrSessionChanged
	}
	// A concurrent Connect wins over this rebuild.
	if m.handle != nil {
		return m.handle, nil
	}
	if m.session.Account == session.Account {
		m.session.Network = session.Network
		m.handle = handle
	}
	return handle, nil
}

// Watch subscribes to provider account and network changes. Only the first
// call subscribes; the subscription ends with ctx.
func (m *Manager) Watch(ctx context.Context) {
	if m.provider == nil {
		return
	}
	m.watch.Do(func() {
		ch := make(chan service.WalletEvent, 8)
		unsubscribe := m.provider.Subscribe(ch)

		go func() {
			defer unsubscribe()
			for {
				select {
				case <-ctx.Done():
					return
				case ev := <-ch:
					slog.Info("Wallet state changed", "kind", ev.Kind, "value", ev.Value)
					m.Reset(string(ev.Kind))
				}
			}
		}()
	})
}

// Reset discards the session and ledger handle, runs the OnReset listeners
// and announces the reset so every holder of derived state reloads from
// scratch.
func (m *Manager) Reset(reason string) {
	m.mu.Lock()
	m.session = model.Session{}
	m.handle = nil
	m.generation++
	listeners := make([]func(string), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(reason)
	}
	m.bus.Publish(events.Event{Kind: events.SessionReset, Reason: reason})
}

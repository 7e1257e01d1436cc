package wallet

import (
	"context"
	"fmt"
	"sync"

	"github.com/Veraticus/campus-bazaar/internal/common"
	"github.com/Veraticus/campus-bazaar/internal/service"
)

// Static is a provider with a fixed account list. It approves every request
// unless told to reject, and is used by demo mode and tests.
type Static struct {
	network  string
	accounts []string
	notify   notifier
	mu       sync.Mutex
	reject   bool
	absent   bool
}

// NewStatic creates a provider on network exposing accounts.
func NewStatic(network string, accounts ...string) *Static {
	return &Static{network: network, accounts: accounts}
}

// Unavailable returns a provider that reports no wallet present.
func Unavailable() *Static {
	return &Static{absent: true}
}

// Available implements service.WalletProvider.
func (s *Static) Available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.absent
}

// RequestAccounts implements service.WalletProvider.
func (s *Static) RequestAccounts(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.absent:
		return nil, common.ErrWalletUnavailable
	case s.reject:
		return nil, fmt.Errorf("%w: account access declined", common.ErrUserRejected)
	}
	out := make([]string, len(s.accounts))
	copy(out, s.accounts)
	return out, nil
}

// Network implements service.WalletProvider.
func (s *Static) Network(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.absent {
		return "", common.ErrWalletUnavailable
	}
	return s.network, nil
}

// Subscribe implements service.WalletProvider.
func (s *Static) Subscribe(ch chan<- service.WalletEvent) func() {
	return s.notify.subscribe(ch)
}

// Reject makes subsequent account requests fail as declined.
func (s *Static) Reject(reject bool) {
	s.mu.Lock()
	s.reject = reject
	s.mu.Unlock()
}

// SetAccounts replaces the account list and notifies subscribers.
func (s *Static) SetAccounts(accounts ...string) {
	s.mu.Lock()
	s.accounts = accounts
	s.mu.Unlock()

	first := ""
	if len(accounts) > 0 {
		first = accounts[0]
	}
	s.notify.emit(service.WalletAccountsChanged, first)
}

// SetNetwork switches the network and notifies subscribers.
func (s *Static) SetNetwork(network string) {
	s.mu.Lock()
	s.network = network
	s.mu.Unlock()

	s.notify.emit(service.WalletNetworkChanged, network)
}

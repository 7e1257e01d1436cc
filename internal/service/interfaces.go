// Package service defines the interfaces shared between application packages.
package service

import (
	"context"
	"math/big"
	"time"

	"github.com/Veraticus/campus-bazaar/internal/model"
)

// Ledger is the consumed interface of the marketplace contract.
// Listing ids are 1-based; a record with id 0 is an empty slot.
type Ledger interface {
	ListingCount(ctx context.Context) (uint64, error)
	GetListing(ctx context.Context, id uint64) (model.Listing, error)
	CreateListing(ctx context.Context, listing model.NewListing) (TxHandle, error)
	ToggleAvailability(ctx context.Context, id uint64) (TxHandle, error)
	BuyOrRent(ctx context.Context, id uint64, value *big.Int) (TxHandle, error)
}

// TxHandle is a submitted ledger mutation.
type TxHandle interface {
	Hash() string
	// Wait blocks until the mutation is confirmed or known to have failed.
	Wait(ctx context.Context) error
}

// LedgerBinder builds a ledger handle whose mutations are signed by account.
// An empty account yields a read-only handle.
type LedgerBinder interface {
	Bind(ctx context.Context, account string) (Ledger, error)
}

// WalletEventKind is a provider-level notification.
type WalletEventKind string

// Wallet notifications.
const (
	WalletAccountsChanged WalletEventKind = "accounts_changed"
	WalletNetworkChanged  WalletEventKind = "network_changed"
)

// WalletEvent is delivered to provider subscribers.
type WalletEvent struct {
	Kind  WalletEventKind
	Value string
}

// WalletProvider is the user-controlled agent that authorizes transactions.
type WalletProvider interface {
	// Available reports whether a provider is present at all.
	Available() bool
	// RequestAccounts asks the user for account access. Declining returns
	// an error wrapping common.ErrUserRejected.
	RequestAccounts(ctx context.Context) ([]string, error)
	// Network returns the current chain identifier.
	Network(ctx context.Context) (string, error)
	// Subscribe registers ch for account and network change notifications
	// and returns a function that cancels the subscription.
	Subscribe(ch chan<- WalletEvent) (unsubscribe func())
}

// Storage is the local persistence layer.
type Storage interface {
	// Listing snapshot operations
	ReplaceListings(ctx context.Context, network string, listings []model.Listing) error
	GetListings(ctx context.Context, network string) ([]model.Listing, error)
	GetSnapshotTime(ctx context.Context, network string) (time.Time, error)
	GetSnapshotNetworks(ctx context.Context) ([]string, error)

	// Preference operations
	GetPreference(ctx context.Context, key string) (string, error)
	SetPreference(ctx context.Context, key, value string) error

	// Operation journal
	SaveOperation(ctx context.Context, op *model.Operation) error
	GetOperations(ctx context.Context, limit int) ([]model.Operation, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

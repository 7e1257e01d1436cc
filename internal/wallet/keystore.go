package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/campus-bazaar/internal/common"
	"github.com/Veraticus/campus-bazaar/internal/service"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// DefaultPollInterval is how often the chain id is checked for changes.
const DefaultPollInterval = 15 * time.Second

// Approver asks the user to authorize wallet access.
// Declining returns an error wrapping common.ErrUserRejected.
type Approver interface {
	// SelectAccount picks the account to connect from the keystore's accounts.
	SelectAccount(ctx context.Context, accounts []string) (string, error)
	// Passphrase unlocks account for signing.
	Passphrase(ctx context.Context, account string) (string, error)
}

// ChainReader reports the chain the wallet signs for. *ethclient.Client satisfies it.
type ChainReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// Keystore is a wallet provider over an encrypted go-ethereum key directory.
// Account access and every unlock go through the Approver.
type Keystore struct {
	ks           *keystore.KeyStore
	chain        ChainReader
	approver     Approver
	unlocked     map[ethcommon.Address]bool
	retry        service.RetryOptions
	notify       notifier
	selected     string
	pollInterval time.Duration
	mu           sync.Mutex
}

// NewKeystore creates a provider. A nil ks yields a provider that reports
// itself unavailable.
func NewKeystore(ks *keystore.KeyStore, chain ChainReader, approver Approver, pollInterval time.Duration) *Keystore {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Keystore{
		ks:           ks,
		chain:        chain,
		approver:     approver,
		pollInterval: pollInterval,
		unlocked:     make(map[ethcommon.Address]bool),
		retry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     2 * time.Second,
			Multiplier:   2,
		},
	}
}

// Available implements service.WalletProvider.
func (k *Keystore) Available() bool {
	return k != nil && k.ks != nil && k.chain != nil
}

// RequestAccounts implements service.WalletProvider. The approved account is
// returned first and remembered until the keystore's wallets change.
func (k *Keystore) RequestAccounts(ctx context.Context) ([]string, error) {
	if !k.Available() {
		return nil, common.ErrWalletUnavailable
	}

	var addresses []string
	for _, acct := range k.ks.Accounts() {
		addresses = append(addresses, acct.Address.Hex())
	}
	if len(addresses) == 0 {
		return nil, fmt.Errorf("%w: keystore has no accounts", common.ErrWalletUnavailable)
	}

	k.mu.Lock()
	selected := k.selected
	k.mu.Unlock()

	if selected == "" {
		if k.approver == nil {
			return nil, fmt.Errorf("%w: no approver to confirm account access", common.ErrUserRejected)
		}
		chosen, err := k.approver.SelectAccount(ctx, addresses)
		if err != nil {
			return nil, err
		}
		if !containsFold(addresses, chosen) {
			return nil, fmt.Errorf("%w: account %s is not in the keystore", common.ErrUserRejected, chosen)
		}
		selected = chosen

		k.mu.Lock()
		k.selected = selected
		k.mu.Unlock()
	}

	out := []string{selected}
	for _, addr := range addresses {
		if !strings.EqualFold(addr, selected) {
			out = append(out, addr)
		}
	}
	return out, nil
}

// Network implements service.WalletProvider.
func (k *Keystore) Network(ctx context.Context) (string, error) {
	if !k.Available() {
		return "", common.ErrWalletUnavailable
	}

	var id *big.Int
	err := common.WithRetry(ctx, func() error {
		var err error
		id, err = k.chain.ChainID(ctx)
		if err != nil {
			return &common.RetryableError{Err: err, Retryable: true}
		}
		return nil
	}, k.retry)
	if err != nil {
		return "", fmt.Errorf("failed to read chain id: %w", err)
	}
	return id.String(), nil
}

// Subscribe implements service.WalletProvider. Events are produced while Run is active.
func (k *Keystore) Subscribe(ch chan<- service.WalletEvent) func() {
	return k.notify.subscribe(ch)
}

// Transactor implements ledger.Signer. The account is unlocked once with a
// passphrase from the Approver and stays unlocked until the wallets change.
func (k *Keystore) Transactor(ctx context.Context, account string, chainID *big.Int) (*bind.TransactOpts, error) {
	if !k.Available() {
		return nil, common.ErrWalletUnavailable
	}

	acct, err := k.ks.Find(accounts.Account{Address: ethcommon.HexToAddress(account)})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrWalletUnavailable, err)
	}

	k.mu.Lock()
	unlocked := k.unlocked[acct.Address]
	k.mu.Unlock()

	if !unlocked {
		if k.approver == nil {
			return nil, fmt.Errorf("%w: no approver to unlock %s", common.ErrUserRejected, acct.Address.Hex())
		}
		passphrase, err := k.approver.Passphrase(ctx, acct.Address.Hex())
		if err != nil {
			return nil, err
		}
		if err := k.ks.Unlock(acct, passphrase); err != nil {
			if errors.Is(err, keystore.ErrDecrypt) {
				return nil, &common.LedgerError{
					Message: "Incorrect passphrase",
					Err:     fmt.Errorf("%w: %w", common.ErrUserRejected, err),
				}
			}
			return nil, fmt.Errorf("failed to unlock %s: %w", acct.Address.Hex(), err)
		}

		k.mu.Lock()
		k.unlocked[acct.Address] = true
		k.mu.Unlock()
	}

	return bind.NewKeyStoreTransactorWithChainID(k.ks, acct, chainID)
}

// Run watches the keystore for wallets arriving or leaving and polls the
// chain id, notifying subscribers of either change. It blocks until ctx ends.
func (k *Keystore) Run(ctx context.Context) error {
	if !k.Available() {
		return common.ErrWalletUnavailable
	}

	sink := make(chan accounts.WalletEvent, 8)
	sub := k.ks.Subscribe(sink)
	defer sub.Unsubscribe()

	ticker := time.NewTicker(k.pollInterval)
	defer ticker.Stop()

	last, err := k.chain.ChainID(ctx)
	if err != nil {
		slog.Warn("Initial chain id probe failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-sub.Err():
			return err

		case ev := <-sink:
			if ev.Kind != accounts.WalletArrived && ev.Kind != accounts.WalletDropped {
				continue
			}
			k.forget()
			slog.Info("Keystore wallets changed", "url", ev.Wallet.URL().String())
			k.notify.emit(service.WalletAccountsChanged, ev.Wallet.URL().String())

		case <-ticker.C:
			id, err := k.chain.ChainID(ctx)
			if err != nil {
				slog.Debug("Chain id probe failed", "error", err)
				continue
			}
			if last != nil && id.Cmp(last) != 0 {
				slog.Info("Network changed", "from", last, "to", id)
				k.forget()
				k.notify.emit(service.WalletNetworkChanged, id.String())
			}
			last = id
		}
	}
}

// forget drops the approved account and relocks every unlocked key.
func (k *Keystore) forget() {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.selected = ""
	for addr := range k.unlocked {
		if err := k.ks.Lock(addr); err != nil {
			slog.Debug("Failed to lock account", "account", addr.Hex(), "error", err)
		}
	}
	k.unlocked = make(map[ethcommon.Address]bool)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/campus-bazaar/internal/catalog"
	"github.com/Veraticus/campus-bazaar/internal/common"
	"github.com/Veraticus/campus-bazaar/internal/config"
	"github.com/Veraticus/campus-bazaar/internal/engine"
	"github.com/Veraticus/campus-bazaar/internal/events"
	"github.com/Veraticus/campus-bazaar/internal/ledger"
	"github.com/Veraticus/campus-bazaar/internal/model"
	"github.com/Veraticus/campus-bazaar/internal/service"
	"github.com/Veraticus/campus-bazaar/internal/storage"
	"github.com/Veraticus/campus-bazaar/internal/wallet"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/ethclient"
)

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(config.DatabasePath())
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// appOptions selects how the marketplace is wired.
type appOptions struct {
	approver wallet.Approver
	progress catalog.ProgressReporter
	demo     bool
}

// app is the wired marketplace: session, catalog and orchestrator sharing one bus.
type app struct {
	bus     *events.Bus
	session *wallet.Manager
	syncer  *catalog.Synchronizer
	orch    *engine.Orchestrator
	store   service.Storage
	cancel  context.CancelFunc
	closers []func()
	demo    bool
}

// chain is the ledger side of an app: who signs and where the contract lives.
type chain struct {
	provider service.WalletProvider
	binder   service.LedgerBinder
	close    func()
	timeout  time.Duration
}

// newApp wires the marketplace against the configured chain, or against an
// in-process ledger when opts.demo is set. Background watchers stop when ctx
// ends or Close is called.
func newApp(ctx context.Context, opts appOptions) (*app, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	var c chain
	if opts.demo {
		c = demoChain()
	} else {
		c, err = dialChain(ctx, opts.approver)
	}
	if err != nil {
		cancel()
		_ = store.Close()
		return nil, err
	}

	a := &app{
		bus:    events.NewBus(),
		store:  store,
		cancel: cancel,
		demo:   opts.demo,
	}
	if c.close != nil {
		a.closers = append(a.closers, c.close)
	}

	a.session = wallet.NewManager(c.provider, c.binder, a.bus)
	a.session.Watch(ctx)

	syncOpts := []catalog.Option{catalog.WithStore(store)}
	if opts.progress != nil {
		syncOpts = append(syncOpts, catalog.WithProgress(opts.progress))
	}
	a.syncer = catalog.NewSynchronizer(a.session, catalog.NewCache(), a.bus, syncOpts...)
	a.syncer.Start(ctx)

	a.orch = engine.NewWithConfig(a.session, a.syncer, a.bus, store, engine.Config{ConfirmTimeout: c.timeout})
	return a, nil
}

// Close stops background work and releases the database and chain connection.
func (a *app) Close() {
	a.cancel()
	for _, c := range a.closers {
		c()
	}
	if err := a.store.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}

// dialChain connects to the configured RPC endpoint and opens the keystore.
func dialChain(ctx context.Context, approver wallet.Approver) (chain, error) {
	ledgerCfg, err := config.LoadLedgerConfig()
	if err != nil {
		return chain{}, err
	}
	walletCfg := config.LoadWalletConfig()

	client, err := ethclient.DialContext(ctx, ledgerCfg.RPCURL)
	if err != nil {
		return chain{}, fmt.Errorf("failed to connect to %s: %w", ledgerCfg.RPCURL, err)
	}

	ks := keystore.NewKeyStore(walletCfg.KeystoreDir, keystore.StandardScryptN, keystore.StandardScryptP)
	provider := wallet.NewKeystore(ks, client, approver, walletCfg.PollInterval)
	go func() {
		if err := provider.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("Keystore watcher stopped", "error", err)
		}
	}()

	binder, err := ledger.NewClient(client, ledgerCfg.ContractAddress, provider)
	if err != nil {
		client.Close()
		return chain{}, err
	}

	slog.Debug("Ledger configured",
		"rpc", ledgerCfg.RPCURL,
		"contract", ledgerCfg.ContractAddress,
		"keystore", walletCfg.KeystoreDir)

	return chain{
		provider: provider,
		binder:   binder,
		close:    client.Close,
		timeout:  ledgerCfg.ConfirmTimeout,
	}, nil
}

// demoChain is an in-process ledger seeded with sample listings and a
// wallet that approves the demo account without prompting.
func demoChain() chain {
	return chain{
		provider: wallet.NewStatic(demoNetwork, demoAccount),
		binder:   ledger.NewMemory(demoListings()...),
		timeout:  config.DefaultConfirmTimeout,
	}
}

// syncedListing synchronizes and looks id up in the fresh snapshot.
func (a *app) syncedListing(ctx context.Context, id uint64) (model.Listing, error) {
	if err := a.syncer.Sync(ctx); err != nil {
		return model.Listing{}, err
	}
	l, ok := a.syncer.Cache().Listing(id)
	if !ok {
		return model.Listing{}, fmt.Errorf("listing %d: %w", id, common.ErrNotFound)
	}
	return l, nil
}

package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/Veraticus/campus-bazaar/internal/common"
	"github.com/Veraticus/campus-bazaar/internal/events"
	"github.com/Veraticus/campus-bazaar/internal/model"
	"github.com/Veraticus/campus-bazaar/internal/service"
)

// HandleSource supplies a ledger handle for the current session.
// *wallet.Manager satisfies it.
type HandleSource interface {
	EnsureHandle(ctx context.Context) (service.Ledger, error)
	Session() model.Session
}

// ResetNotifier runs a callback synchronously on every session reset.
// *wallet.Manager satisfies it.
type ResetNotifier interface {
	OnReset(fn func(reason string)) (remove func())
}

// maxPrealloc bounds the slice capacity taken from the ledger's count.
const maxPrealloc = 1024

// SnapshotStore persists the last good snapshot per network.
type SnapshotStore interface {
	ReplaceListings(ctx context.Context, network string, listings []model.Listing) error
}

// ProgressReporter follows the per-slot progress of a synchronization.
type ProgressReporter interface {
	Start(total int)
	Advance()
	Finish()
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithStore writes every successful snapshot to store.
func WithStore(store SnapshotStore) Option {
	return func(s *Synchronizer) { s.store = store }
}

// WithProgress reports slot reads to p.
func WithProgress(p ProgressReporter) Option {
	return func(s *Synchronizer) { s.progress = p }
}

// Synchronizer replaces the cache with the ledger's full listing set.
// Synchronizations are serialized.
type Synchronizer struct {
	source   HandleSource
	cache    *Cache
	bus      *events.Bus
	store    SnapshotStore
	progress ProgressReporter
	mu       sync.Mutex
}

// NewSynchronizer creates a synchronizer filling cache.
func NewSynchronizer(source HandleSource, cache *Cache, bus *events.Bus, opts ...Option) *Synchronizer {
	s := &Synchronizer{source: source, cache: cache, bus: bus}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cache returns the cache this synchronizer fills.
func (s *Synchronizer) Cache() *Cache {
	return s.cache
}

// Sync reads slots 1..listingCount, drops empty slots and swaps the result
// into the cache. On failure the previous snapshot stays and the error is
// recorded in the cache state. Returned errors wrap common.ErrSyncFailure.
func (s *Synchronizer) Sync(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.cache.load()
	s.bus.Publish(events.Event{Kind: events.SyncStarted})

	listings, err := s.read(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", common.ErrSyncFailure, err)
		if !s.cache.fail(start, err) {
			slog.Debug("Cache reset during failed sync")
		}
		common.LogError(err, "Listing sync failed", nil)
		s.bus.Publish(events.Event{Kind: events.SyncFailed, Err: err})
		return err
	}

	network := s.source.Session().Network
	if !s.cache.replace(start, network, listings) {
		// The session was reset mid-sync; the snapshot belongs to the old session.
		slog.Info("Discarding listings read before session reset", "count", len(listings))
		return nil
	}

	if s.store != nil {
		if err := s.store.ReplaceListings(ctx, network, listings); err != nil {
			slog.Warn("Failed to persist listing snapshot", "network", network, "error", err)
		}
	}

	slog.Debug("Listings synchronized", "count", len(listings), "network", network)
	s.bus.Publish(events.Event{Kind: events.SyncCompleted, Count: len(listings)})
	return nil
}

func (s *Synchronizer) read(ctx context.Context) ([]model.Listing, error) {
	handle, err := s.source.EnsureHandle(ctx)
	if err != nil {
		return nil, err
	}

	count, err := handle.ListingCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read listing count: %w", err)
	}

	if count > math.MaxInt {
		return nil, fmt.Errorf("ledger reported an impossible listing count %d", count)
	}

	if s.progress != nil {
		s.progress.Start(int(count))
		defer s.progress.Finish()
	}

	listings := make([]model.Listing, 0, min(count, maxPrealloc))
	for id := uint64(1); id <= count; id++ {
		l, err := handle.GetListing(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to read listing %d: %w", id, err)
		}
		if s.progress != nil {
			s.progress.Advance()
		}
		if l.IsEmptySlot() {
			continue
		}
		listings = append(listings, l)
	}
	return listings, nil
}

// Start clears the cache on every session reset until ctx ends. When the
// source is a ResetNotifier the cache is cleared inside the reset itself;
// otherwise resets arrive through the bus. It returns once the
// subscription exists.
func (s *Synchronizer) Start(ctx context.Context) {
	if n, ok := s.source.(ResetNotifier); ok {
		remove := n.OnReset(s.clear)
		go func() {
			<-ctx.Done()
			remove()
		}()
		return
	}

	ch, unsubscribe := s.bus.Subscribe(0)
	go func() {
		defer unsubscribe()
		s.listen(ctx, ch)
	}()
}

func (s *Synchronizer) clear(reason string) {
	slog.Info("Clearing listing cache", "reason", reason)
	s.cache.Clear()
}

func (s *Synchronizer) listen(ctx context.Context, ch <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			if e.Kind == events.SessionReset {
				s.clear(e.Reason)
			}
		}
	}
}

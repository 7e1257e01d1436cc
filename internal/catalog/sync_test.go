package catalog

import (
	"context"
	"errors"
	"math"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/campus-bazaar/internal/common"
	"github.com/Veraticus/campus-bazaar/internal/events"
	"github.com/Veraticus/campus-bazaar/internal/ledger"
	"github.com/Veraticus/campus-bazaar/internal/model"
	"github.com/Veraticus/campus-bazaar/internal/service"
	"github.com/Veraticus/campus-bazaar/internal/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "0x00000000000000000000000000000000000000a1"

func threeSlots() *ledger.Memory {
	return ledger.NewMemory(
		model.Listing{ID: 1, Owner: owner, Title: "Bike", PriceMinorUnits: big.NewInt(10), IsAvailable: true, CreatedAt: 1},
		model.Listing{},
		model.Listing{ID: 3, Owner: owner, Title: "Lamp", PriceMinorUnits: big.NewInt(20), IsAvailable: true, CreatedAt: 2},
	)
}

type recordingStore struct {
	network  string
	listings []model.Listing
	mu       sync.Mutex
}

func (r *recordingStore) ReplaceListings(_ context.Context, network string, listings []model.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.network = network
	r.listings = listings
	return nil
}

type countingProgress struct {
	total, advanced int
	finished        bool
}

func (p *countingProgress) Start(total int) { p.total = total }
func (p *countingProgress) Advance()        { p.advanced++ }
func (p *countingProgress) Finish()         { p.finished = true }

func newSync(mem *ledger.Memory, provider *wallet.Static, opts ...Option) (*Synchronizer, *events.Bus) {
	bus := events.NewBus()
	manager := wallet.NewManager(provider, mem, bus)
	return NewSynchronizer(manager, NewCache(), bus, opts...), bus
}

func TestSync_SkipsEmptySlots(t *testing.T) {
	store := &recordingStore{}
	progress := &countingProgress{}
	s, _ := newSync(threeSlots(), wallet.NewStatic("31337", owner), WithStore(store), WithProgress(progress))

	require.NoError(t, s.Sync(context.Background()))

	state := s.Cache().State()
	assert.True(t, state.Loaded)
	assert.False(t, state.Failed())
	require.Len(t, state.Listings, 2)
	assert.Equal(t, uint64(1), state.Listings[0].ID)
	assert.Equal(t, uint64(3), state.Listings[1].ID)
	for _, l := range state.Listings {
		assert.NotZero(t, l.ID)
	}

	assert.Equal(t, "31337", store.network)
	assert.Len(t, store.listings, 2)
	assert.Equal(t, 3, progress.total)
	assert.Equal(t, 3, progress.advanced)
	assert.True(t, progress.finished)
}

func TestSync_ReplacesNotMerges(t *testing.T) {
	mem := threeSlots()
	s, _ := newSync(mem, wallet.NewStatic("31337", owner))
	require.NoError(t, s.Sync(context.Background()))

	mem.ClearSlot(1)
	require.NoError(t, s.Sync(context.Background()))

	state := s.Cache().State()
	require.Len(t, state.Listings, 1)
	assert.Equal(t, "Lamp", state.Listings[0].Title)
}

func TestSync_WalletAbsent(t *testing.T) {
	bus := events.NewBus()
	ch, unsub := bus.Subscribe(8)
	defer unsub()

	manager := wallet.NewManager(wallet.Unavailable(), threeSlots(), bus)
	s := NewSynchronizer(manager, NewCache(), bus)

	err := s.Sync(context.Background())
	assert.ErrorIs(t, err, common.ErrSyncFailure)
	assert.ErrorIs(t, err, common.ErrWalletUnavailable)

	state := s.Cache().State()
	assert.Empty(t, state.Listings)
	assert.True(t, state.Failed())

	assert.Equal(t, events.SyncStarted, (<-ch).Kind)
	failed := <-ch
	assert.Equal(t, events.SyncFailed, failed.Kind)
	assert.ErrorIs(t, failed.Err, common.ErrSyncFailure)
}

func TestSync_FailurePreservesLastGoodSnapshot(t *testing.T) {
	mem := threeSlots()
	s, _ := newSync(mem, wallet.NewStatic("31337", owner))
	require.NoError(t, s.Sync(context.Background()))

	mem.FailReadAt(3, errors.New("rpc timeout"))
	err := s.Sync(context.Background())
	require.ErrorIs(t, err, common.ErrSyncFailure)

	state := s.Cache().State()
	assert.True(t, state.Loaded)
	assert.True(t, state.Failed())
	assert.Len(t, state.Listings, 2)

	mem.FailReadAt(3, nil)
	require.NoError(t, s.Sync(context.Background()))
	assert.False(t, s.Cache().State().Failed())
}

func TestSync_CountFailure(t *testing.T) {
	mem := threeSlots()
	mem.FailCount(errors.New("connection refused"))
	s, _ := newSync(mem, wallet.NewStatic("31337", owner))

	err := s.Sync(context.Background())
	assert.ErrorIs(t, err, common.ErrSyncFailure)
	assert.False(t, s.Cache().State().Loaded)
}

func TestSync_ClearsOnSessionReset(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, bus := newSync(threeSlots(), wallet.NewStatic("31337", owner))
	s.Start(ctx)
	require.NoError(t, s.Sync(ctx))
	require.True(t, s.Cache().State().Loaded)

	// A burst larger than any subscriber buffer must not hide the reset.
	for range 64 {
		bus.Publish(events.Event{Kind: events.SyncStarted})
	}
	s.source.(*wallet.Manager).Reset("network_changed")

	state := s.Cache().State()
	assert.False(t, state.Loaded)
	assert.Empty(t, state.Listings)
	assert.Empty(t, state.Network)
}

// fixedSource hands out one ledger and cannot notify resets.
type fixedSource struct {
	ledger service.Ledger
}

func (f fixedSource) EnsureHandle(context.Context) (service.Ledger, error) { return f.ledger, nil }
func (f fixedSource) Session() model.Session                               { return model.Session{Network: "31337"} }

// countingLedger reports count slots, serves failAt-1 empty ones and then fails.
type countingLedger struct {
	service.Ledger
	count  uint64
	failAt uint64
}

func (c countingLedger) ListingCount(context.Context) (uint64, error) { return c.count, nil }

func (c countingLedger) GetListing(_ context.Context, id uint64) (model.Listing, error) {
	if id >= c.failAt {
		return model.Listing{}, errors.New("slot unreadable")
	}
	return model.Listing{}, nil
}

func TestSync_HugeListingCount(t *testing.T) {
	tests := []struct {
		name    string
		count   uint64
		wantErr string
	}{
		{name: "larger than memory", count: 1 << 62, wantErr: "slot unreadable"},
		{name: "larger than int", count: math.MaxUint64, wantErr: "impossible listing count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := fixedSource{ledger: countingLedger{count: tt.count, failAt: 3}}
			s := NewSynchronizer(src, NewCache(), events.NewBus())

			var err error
			require.NotPanics(t, func() { err = s.Sync(context.Background()) })
			assert.ErrorIs(t, err, common.ErrSyncFailure)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, s.Cache().State().Failed())
		})
	}
}

func TestSync_ClearsOnBusResetWithoutNotifier(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handle, err := threeSlots().Bind(ctx, "")
	require.NoError(t, err)

	bus := events.NewBus()
	s := NewSynchronizer(fixedSource{ledger: handle}, NewCache(), bus)
	s.Start(ctx)
	require.NoError(t, s.Sync(ctx))

	bus.Publish(events.Event{Kind: events.SessionReset, Reason: "accounts_changed"})

	assert.Eventually(t, func() bool {
		return !s.Cache().State().Loaded
	}, time.Second, 5*time.Millisecond)
}

func TestCache_Listing(t *testing.T) {
	s, _ := newSync(threeSlots(), wallet.NewStatic("31337", owner))
	require.NoError(t, s.Sync(context.Background()))

	l, ok := s.Cache().Listing(3)
	require.True(t, ok)
	assert.Equal(t, "Lamp", l.Title)

	_, ok = s.Cache().Listing(2)
	assert.False(t, ok)
}

func TestCache_ReplaceLosesToClear(t *testing.T) {
	c := NewCache()
	start := c.load()
	c.Clear()

	assert.False(t, c.replace(start, "1", []model.Listing{{ID: 1}}))
	assert.False(t, c.State().Loaded)
}

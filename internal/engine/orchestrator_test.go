package engine

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/campus-bazaar/internal/catalog"
	"github.com/Veraticus/campus-bazaar/internal/common"
	"github.com/Veraticus/campus-bazaar/internal/events"
	"github.com/Veraticus/campus-bazaar/internal/ledger"
	"github.com/Veraticus/campus-bazaar/internal/model"
	"github.com/Veraticus/campus-bazaar/internal/service"
	"github.com/Veraticus/campus-bazaar/internal/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	seller = "0x00000000000000000000000000000000000000a1"
	buyer  = "0x00000000000000000000000000000000000000b2"
)

type memJournal struct {
	stages []model.Stage
	mu     sync.Mutex
}

func (j *memJournal) SaveOperation(_ context.Context, op *model.Operation) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.stages = append(j.stages, op.Stage)
	return nil
}

func (j *memJournal) Stages() []model.Stage {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]model.Stage(nil), j.stages...)
}

type harness struct {
	mem      *ledger.Memory
	provider *wallet.Static
	manager  *wallet.Manager
	sync     *catalog.Synchronizer
	orch     *Orchestrator
	journal  *memJournal
	events   <-chan events.Event
}

func newHarness(t *testing.T, account string, seed ...model.Listing) *harness {
	t.Helper()
	bus := events.NewBus()
	ch, unsub := bus.Subscribe(64)
	t.Cleanup(unsub)

	mem := ledger.NewMemory(seed...)
	provider := wallet.NewStatic("31337", account)
	manager := wallet.NewManager(provider, mem, bus)
	syncer := catalog.NewSynchronizer(manager, catalog.NewCache(), bus)
	journal := &memJournal{}

	return &harness{
		mem:      mem,
		provider: provider,
		manager:  manager,
		sync:     syncer,
		orch:     New(manager, syncer, bus, journal),
		journal:  journal,
		events:   ch,
	}
}

func (h *harness) kinds() []events.Kind {
	var out []events.Kind
	for {
		select {
		case e := <-h.events:
			out = append(out, e.Kind)
		default:
			return out
		}
	}
}

func bike() model.Listing {
	return model.Listing{ID: 1, Owner: seller, Title: "Bike", Type: model.ListingTypeRent, PriceMinorUnits: big.NewInt(1000), IsAvailable: true, CreatedAt: 1}
}

func TestCreate_EndToEnd(t *testing.T) {
	h := newHarness(t, seller)

	op, err := h.orch.Create(context.Background(), CreateRequest{Title: "Desk", Type: "sell", Price: "0.5"})
	require.NoError(t, err)
	assert.Equal(t, model.StageConfirmed, op.Stage)
	assert.Equal(t, model.OperationCreate, op.Kind)
	assert.Equal(t, seller, op.Account)
	assert.NotEmpty(t, op.ID)
	assert.NotEmpty(t, op.TxHash)

	calls := h.mem.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "500000000000000000", calls[0].Listing.PriceMinorUnits.String())
	assert.Equal(t, model.ListingTypeSell, calls[0].Listing.Type)

	state := h.sync.Cache().State()
	require.Len(t, state.Listings, 1)
	assert.Equal(t, "Desk", state.Listings[0].Title)
	assert.True(t, state.Listings[0].IsAvailable)

	assert.Equal(t, []model.Stage{model.StageSubmitted, model.StageConfirmed}, h.journal.Stages())
	assert.Contains(t, h.kinds(), events.OperationConfirmed)
}

func TestCreate_ValidationNeverReachesLedger(t *testing.T) {
	tests := []struct {
		name  string
		req   CreateRequest
		field string
	}{
		{"missing title", CreateRequest{Type: "sell", Price: "1"}, "title"},
		{"missing type", CreateRequest{Title: "Desk", Price: "1"}, "type"},
		{"missing price", CreateRequest{Title: "Desk", Type: "sell"}, "price"},
		{"unknown type", CreateRequest{Title: "Desk", Type: "swap", Price: "1"}, "type"},
		{"negative price", CreateRequest{Title: "Desk", Type: "sell", Price: "-1"}, "price"},
		{"zero price", CreateRequest{Title: "Desk", Type: "sell", Price: "0.000"}, "price"},
		{"below one minor unit", CreateRequest{Title: "Desk", Type: "sell", Price: "0.0000000000000000001"}, "price"},
		{"bad deposit", CreateRequest{Title: "Bike", Type: "rent", Price: "1", SecurityDeposit: "lots"}, "deposit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, seller)
			op, err := h.orch.Create(context.Background(), tt.req)

			require.ErrorIs(t, err, common.ErrValidation)
			var verr *common.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, model.StageFailed, op.Stage)
			assert.NotEmpty(t, op.Message)
			assert.Empty(t, h.mem.Calls())
			assert.False(t, h.manager.Connected(), "validation happens before connecting")
		})
	}
}

func TestCreate_RentDescription(t *testing.T) {
	h := newHarness(t, seller)
	_, err := h.orch.Create(context.Background(), CreateRequest{
		Title:           "Bike",
		Description:     "Blue, 21 speeds",
		Type:            "rent",
		Price:           "0.01",
		DurationUnit:    "day",
		SecurityDeposit: "0.05",
	})
	require.NoError(t, err)

	got := h.mem.Calls()[0].Listing.Description
	assert.Equal(t, "Blue, 21 speeds (Rent price per day) (Security deposit: 0.05 ETH)", got)
}

func TestCreateRequest_DescriptionForSaleIgnoresRentTerms(t *testing.T) {
	l, err := CreateRequest{Title: "Desk", Type: "sell", Price: "1", DurationUnit: "week", SecurityDeposit: "1"}.Validate()
	require.NoError(t, err)
	assert.Empty(t, l.Description)

	l, err = CreateRequest{Title: "Bike", Type: "rent", Price: "1", DurationUnit: "hour"}.Validate()
	require.NoError(t, err)
	assert.Equal(t, "(Rent price per hour)", l.Description)
}

func TestCreate_DeclinedConnect(t *testing.T) {
	h := newHarness(t, seller)
	h.provider.Reject(true)

	op, err := h.orch.Create(context.Background(), CreateRequest{Title: "Desk", Type: "sell", Price: "1"})
	assert.ErrorIs(t, err, common.ErrUserRejected)
	assert.Equal(t, model.StageFailed, op.Stage)
	assert.Equal(t, "Please connect your wallet first.", op.Message)
	assert.Empty(t, h.mem.Calls())
}

func TestToggle_RoundTrip(t *testing.T) {
	h := newHarness(t, seller, bike())
	ctx := context.Background()

	op, err := h.orch.Toggle(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StageConfirmed, op.Stage)
	l, _ := h.sync.Cache().Listing(1)
	assert.False(t, l.IsAvailable)

	_, err = h.orch.Toggle(ctx, 1)
	require.NoError(t, err)
	l, _ = h.sync.Cache().Listing(1)
	assert.True(t, l.IsAvailable)
	assert.False(t, h.orch.Pending(1))
}

func TestToggle_RevertMessageSurfaced(t *testing.T) {
	h := newHarness(t, buyer, bike())

	op, err := h.orch.Toggle(context.Background(), 1)
	assert.ErrorIs(t, err, common.ErrTransactionFailure)
	assert.Equal(t, common.KindTransaction, common.Classify(err))
	assert.Equal(t, model.StageFailed, op.Stage)
	assert.Equal(t, "Only owner can toggle", op.Message)
	assert.Equal(t, []model.Stage{model.StageFailed}, h.journal.Stages())
}

func TestPay_AttachesExactPrice(t *testing.T) {
	h := newHarness(t, buyer, bike())

	op, err := h.orch.Pay(context.Background(), bike())
	require.NoError(t, err)
	assert.Equal(t, model.StageConfirmed, op.Stage)

	calls := h.mem.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "buyOrRent", calls[0].Method)
	assert.Equal(t, "1000", calls[0].Value.String())

	l, _ := h.sync.Cache().Listing(1)
	assert.False(t, l.IsAvailable)
}

func TestPay_ConfirmationFailure(t *testing.T) {
	h := newHarness(t, buyer, bike())
	h.mem.FailNextConfirm("")

	op, err := h.orch.Pay(context.Background(), bike())
	assert.ErrorIs(t, err, common.ErrTransactionFailure)
	assert.Equal(t, "Payment failed.", op.Message, "generic fallback when the ledger gives no message")
	assert.Equal(t, []model.Stage{model.StageSubmitted, model.StageFailed}, h.journal.Stages())
}

func TestPay_UnknownListing(t *testing.T) {
	h := newHarness(t, buyer)
	_, err := h.orch.Pay(context.Background(), model.Listing{})
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Empty(t, h.mem.Calls())
}

// blockingLedger submits successfully and confirms only when release is closed.
type blockingLedger struct {
	service.Ledger
	release chan struct{}
}

func (b *blockingLedger) ToggleAvailability(context.Context, uint64) (service.TxHandle, error) {
	return blockingTx{release: b.release}, nil
}

type blockingTx struct {
	release chan struct{}
}

func (blockingTx) Hash() string { return "0xabc" }

func (b blockingTx) Wait(ctx context.Context) error {
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type fixedSession struct {
	handle service.Ledger
}

func (f fixedSession) Session() model.Session {
	return model.Session{Account: seller, Network: "31337"}
}

func (f fixedSession) Connect(context.Context) (model.Session, error) {
	return f.Session(), nil
}

func (f fixedSession) EnsureHandle(context.Context) (service.Ledger, error) {
	return f.handle, nil
}

type nopSyncer struct{}

func (nopSyncer) Sync(context.Context) error { return nil }

func TestToggle_RejectsSecondWhilePending(t *testing.T) {
	release := make(chan struct{})
	orch := New(fixedSession{handle: &blockingLedger{release: release}}, nopSyncer{}, events.NewBus(), nil)

	done := make(chan error, 1)
	go func() {
		_, err := orch.Toggle(context.Background(), 7)
		done <- err
	}()
	require.Eventually(t, func() bool { return orch.Pending(7) }, time.Second, time.Millisecond)

	op, err := orch.Toggle(context.Background(), 7)
	assert.ErrorIs(t, err, ErrOperationPending)
	assert.Equal(t, model.StageFailed, op.Stage)
	assert.Equal(t, "A transaction for this listing is already pending.", op.Message)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, orch.Pending(7))
}

func TestToggle_ConfirmTimeout(t *testing.T) {
	orch := NewWithConfig(fixedSession{handle: &blockingLedger{release: make(chan struct{})}}, nopSyncer{}, events.NewBus(), nil,
		Config{ConfirmTimeout: 20 * time.Millisecond})

	op, err := orch.Toggle(context.Background(), 3)
	assert.ErrorIs(t, err, common.ErrTransactionFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, model.StageFailed, op.Stage)
	assert.Equal(t, "0xabc", op.TxHash)
	assert.Contains(t, op.Message, "No confirmation received in time")
	assert.False(t, orch.Pending(3))
}

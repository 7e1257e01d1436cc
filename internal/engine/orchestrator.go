// Package engine drives ledger-mutating operations through their
// submit and confirm stages and re-synchronizes the catalog afterwards.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/Veraticus/campus-bazaar/internal/common"
	"github.com/Veraticus/campus-bazaar/internal/events"
	"github.com/Veraticus/campus-bazaar/internal/model"
	"github.com/Veraticus/campus-bazaar/internal/service"
	"github.com/google/uuid"
)

// ErrOperationPending is returned when a toggle or payment is started for a
// listing that already has one awaiting confirmation.
var ErrOperationPending = errors.New("operation already pending for listing")

// User-facing messages.
const (
	msgSubmitted      = "Transaction sent. Waiting for confirmation..."
	msgConnectFirst   = "Please connect your wallet first."
	msgPending        = "A transaction for this listing is already pending."
	msgCreated        = "Listing created on the ledger."
	msgToggled        = "Listing status updated."
	msgPaid           = "Payment confirmed."
	fallbackCreate    = "Transaction failed."
	fallbackToggle    = "Could not update listing status."
	fallbackPay       = "Payment failed."
	fallbackTimedOut  = "No confirmation received in time. The transaction may still be mined; refresh later."
	defaultConfirmFor = 5 * time.Minute
)

// SessionManager is the part of the session manager the orchestrator uses.
// *wallet.Manager satisfies it.
type SessionManager interface {
	Session() model.Session
	Connect(ctx context.Context) (model.Session, error)
	EnsureHandle(ctx context.Context) (service.Ledger, error)
}

// Syncer refreshes the catalog after a confirmed mutation.
type Syncer interface {
	Sync(ctx context.Context) error
}

// Journal records every stage an operation passes through.
type Journal interface {
	SaveOperation(ctx context.Context, op *model.Operation) error
}

// Config holds configuration options for the orchestrator.
type Config struct {
	ConfirmTimeout time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{ConfirmTimeout: defaultConfirmFor}
}

// Orchestrator runs create, toggle and pay operations. Operations on
// different listings may run concurrently; a second toggle or payment for a
// listing with one in flight is refused.
type Orchestrator struct {
	session        SessionManager
	syncer         Syncer
	bus            *events.Bus
	journal        Journal
	inFlight       map[uint64]string
	now            func() time.Time
	confirmTimeout time.Duration
	mu             sync.Mutex
}

// New creates an orchestrator with the default configuration.
func New(session SessionManager, syncer Syncer, bus *events.Bus, journal Journal) *Orchestrator {
	return NewWithConfig(session, syncer, bus, journal, DefaultConfig())
}

// NewWithConfig creates an orchestrator with custom configuration. journal may be nil.
func NewWithConfig(session SessionManager, syncer Syncer, bus *events.Bus, journal Journal, config Config) *Orchestrator {
	if config.ConfirmTimeout <= 0 {
		config.ConfirmTimeout = defaultConfirmFor
	}
	return &Orchestrator{
		session:        session,
		syncer:         syncer,
		bus:            bus,
		journal:        journal,
		inFlight:       make(map[uint64]string),
		now:            time.Now,
		confirmTimeout: config.ConfirmTimeout,
	}
}

// Create validates req and, only if it is valid, submits a new listing.
func (o *Orchestrator) Create(ctx context.Context, req CreateRequest) (model.Operation, error) {
	op := o.begin(model.OperationCreate, 0)

	listing, err := req.Validate()
	if err != nil {
		return o.fail(ctx, op, err, fallbackCreate)
	}

	slog.Info("Creating listing", "operation", op.ID, "title", listing.Title, "type", listing.Type, "price", listing.PriceMinorUnits)
	return o.run(ctx, op, fallbackCreate, msgCreated, func(ctx context.Context, l service.Ledger) (service.TxHandle, error) {
		return l.CreateListing(ctx, listing)
	})
}

// Toggle flips the availability of listing id.
func (o *Orchestrator) Toggle(ctx context.Context, id uint64) (model.Operation, error) {
	op := o.begin(model.OperationToggle, id)
	if err := o.acquire(op); err != nil {
		return o.fail(ctx, op, err, fallbackToggle)
	}
	defer o.release(id)

	return o.run(ctx, op, fallbackToggle, msgToggled, func(ctx context.Context, l service.Ledger) (service.TxHandle, error) {
		return l.ToggleAvailability(ctx, id)
	})
}

// Pay buys or rents listing, attaching exactly its price.
func (o *Orchestrator) Pay(ctx context.Context, listing model.Listing) (model.Operation, error) {
	op := o.begin(model.OperationPay, listing.ID)
	if listing.IsEmptySlot() || listing.PriceMinorUnits == nil {
		return o.fail(ctx, op, common.NewValidationError("listing", "unknown listing"), fallbackPay)
	}
	if err := o.acquire(op); err != nil {
		return o.fail(ctx, op, err, fallbackPay)
	}
	defer o.release(listing.ID)

	value := new(big.Int).Set(listing.PriceMinorUnits)
	return o.run(ctx, op, fallbackPay, msgPaid, func(ctx context.Context, l service.Ledger) (service.TxHandle, error) {
		return l.BuyOrRent(ctx, listing.ID, value)
	})
}

// Pending reports whether listing id has an operation in flight.
func (o *Orchestrator) Pending(id uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.inFlight[id]
	return ok
}

func (o *Orchestrator) begin(kind model.OperationKind, id uint64) *model.Operation {
	now := o.now()
	return &model.Operation{
		ID:        uuid.NewString(),
		Kind:      kind,
		ListingID: id,
		Stage:     model.StageIdle,
		StartedAt: now,
		UpdatedAt: now,
	}
}

func (o *Orchestrator) acquire(op *model.Operation) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if owner, ok := o.inFlight[op.ListingID]; ok {
		return common.NewUserError(msgPending, fmt.Errorf("%w %d (operation %s)", ErrOperationPending, op.ListingID, owner))
	}
	o.inFlight[op.ListingID] = op.ID
	return nil
}

func (o *Orchestrator) release(id uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inFlight, id)
}

type submitFunc func(ctx context.Context, l service.Ledger) (service.TxHandle, error)

func (o *Orchestrator) run(ctx context.Context, op *model.Operation, fallback, success string, submit submitFunc) (model.Operation, error) {
	session := o.session.Session()
	if !session.Connected() {
		var err error
		if session, err = o.session.Connect(ctx); err != nil {
			return o.fail(ctx, op, err, msgConnectFirst)
		}
	}
	op.Account = session.Account

	handle, err := o.session.EnsureHandle(ctx)
	if err != nil {
		return o.fail(ctx, op, err, msgConnectFirst)
	}

	tx, err := submit(ctx, handle)
	if err != nil {
		return o.fail(ctx, op, transactionError(err), fallback)
	}

	op.TxHash = tx.Hash()
	o.advance(ctx, op, model.StageSubmitted, msgSubmitted, events.OperationSubmitted, nil)

	waitCtx, cancel := context.WithTimeout(ctx, o.confirmTimeout)
	defer cancel()
	if err := tx.Wait(waitCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return o.fail(ctx, op, common.NewUserError(fallbackTimedOut, transactionError(err)), fallback)
		}
		return o.fail(ctx, op, transactionError(err), fallback)
	}

	o.advance(ctx, op, model.StageConfirmed, success, events.OperationConfirmed, nil)
	slog.Info("Operation confirmed", "operation", op.ID, "kind", op.Kind, "listing", op.ListingID, "tx", op.TxHash)

	if err := o.syncer.Sync(ctx); err != nil {
		slog.Warn("Re-sync after confirmed operation failed", "operation", op.ID, "error", err)
	}
	return *op, nil
}

// fail moves op to Failed with the most specific user-facing message.
func (o *Orchestrator) fail(ctx context.Context, op *model.Operation, err error, fallback string) (model.Operation, error) {
	common.LogError(err, "Operation failed", common.Fields{
		"operation": op.ID,
		"kind":      string(op.Kind),
		"listing":   op.ListingID,
		"stage":     string(op.Stage),
	})
	o.advance(ctx, op, model.StageFailed, common.UserMessage(err, fallback), events.OperationFailed, err)
	return *op, err
}

func (o *Orchestrator) advance(ctx context.Context, op *model.Operation, stage model.Stage, message string, kind events.Kind, err error) {
	op.Stage = stage
	op.Message = message
	op.UpdatedAt = o.now()

	if o.journal != nil {
		// Journal writes outlive a cancelled caller so failures are recorded too.
		if jerr := o.journal.SaveOperation(context.WithoutCancel(ctx), op); jerr != nil {
			slog.Warn("Failed to journal operation", "operation", op.ID, "stage", stage, "error", jerr)
		}
	}

	snapshot := *op
	o.bus.Publish(events.Event{Kind: kind, Operation: &snapshot, Err: err})
}

// transactionError classifies a submit or confirmation failure. Wallet
// absence and user rejection keep their own class.
func transactionError(err error) error {
	switch common.Classify(err) {
	case common.KindUserRejected, common.KindWalletUnavailable, common.KindTransaction:
		return err
	}
	return fmt.Errorf("%w: %w", common.ErrTransactionFailure, err)
}

package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/campus-bazaar/internal/common"
	"github.com/Veraticus/campus-bazaar/internal/model"
	"github.com/Veraticus/campus-bazaar/internal/service"
)

// Call records a mutation submitted to a Memory ledger.
type Call struct {
	Value     *big.Int
	Listing   model.NewListing
	Method    string
	From      string
	ListingID uint64
}

// Memory is an in-process ledger with the marketplace contract's rules.
// It backs demo mode and tests.
type Memory struct {
	now         func() time.Time
	readErrors  map[uint64]error
	countErr    error
	failSubmit  *string
	failConfirm *string
	slots       []model.Listing
	calls       []Call
	lastCreated int64
	mu          sync.Mutex
}

// NewMemory creates a ledger holding seed in slots 1..len(seed). A seed with
// ID 0 becomes an empty slot; any other ID is overwritten with its slot number.
func NewMemory(seed ...model.Listing) *Memory {
	m := &Memory{
		now:        time.Now,
		readErrors: make(map[uint64]error),
	}
	for i, l := range seed {
		l = l.Clone()
		if l.ID != 0 {
			l.ID = uint64(i + 1)
		}
		if l.PriceMinorUnits == nil {
			l.PriceMinorUnits = new(big.Int)
		}
		if l.CreatedAt > m.lastCreated {
			m.lastCreated = l.CreatedAt
		}
		m.slots = append(m.slots, l)
	}
	return m
}

// SetClock replaces the time source used for createdAt.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// ClearSlot turns slot id into an empty slot.
func (m *Memory) ClearSlot(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id >= 1 && id <= uint64(len(m.slots)) {
		m.slots[id-1] = model.Listing{PriceMinorUnits: new(big.Int)}
	}
}

// FailReadAt makes GetListing(id) fail with err; a nil err clears it.
func (m *Memory) FailReadAt(id uint64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.readErrors, id)
		return
	}
	m.readErrors[id] = err
}

// FailCount makes ListingCount fail with err; a nil err clears it.
func (m *Memory) FailCount(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countErr = err
}

// FailNextSubmit makes the next mutation revert at submission with reason.
func (m *Memory) FailNextSubmit(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSubmit = &reason
}

// FailNextConfirm makes the next mutation revert while awaiting confirmation.
// An empty reason reverts without a message.
func (m *Memory) FailNextConfirm(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failConfirm = &reason
}

// Calls returns the mutations submitted so far.
func (m *Memory) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// Listing returns the record in slot id.
func (m *Memory) Listing(id uint64) (model.Listing, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == 0 || id > uint64(len(m.slots)) {
		return model.Listing{}, false
	}
	return m.slots[id-1].Clone(), true
}

// Bind implements service.LedgerBinder.
func (m *Memory) Bind(_ context.Context, account string) (service.Ledger, error) {
	return &memoryHandle{ledger: m, from: account}, nil
}

type memoryHandle struct {
	ledger *Memory
	from   string
}

func (h *memoryHandle) ListingCount(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m := h.ledger
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.countErr != nil {
		return 0, m.countErr
	}
	return uint64(len(m.slots)), nil
}

func (h *memoryHandle) GetListing(ctx context.Context, id uint64) (model.Listing, error) {
	if err := ctx.Err(); err != nil {
		return model.Listing{}, err
	}
	m := h.ledger
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.readErrors[id]; ok {
		return model.Listing{}, err
	}
	if id == 0 || id > uint64(len(m.slots)) {
		return model.Listing{PriceMinorUnits: new(big.Int)}, nil
	}
	return m.slots[id-1].Clone(), nil
}

func (h *memoryHandle) CreateListing(_ context.Context, l model.NewListing) (service.TxHandle, error) {
	return h.submit(Call{Method: "createListing", Listing: l}, func(m *Memory) error {
		if strings.TrimSpace(l.Title) == "" {
			return errors.New("Title required")
		}
		if l.PriceMinorUnits == nil || l.PriceMinorUnits.Sign() <= 0 {
			return errors.New("Price must be > 0")
		}
		if !l.Type.Valid() {
			return errors.New("Invalid listing type")
		}

		created := m.now().Unix()
		if created <= m.lastCreated {
			created = m.lastCreated + 1
		}
		m.lastCreated = created

		m.slots = append(m.slots, model.Listing{
			ID:              uint64(len(m.slots) + 1),
			Owner:           h.from,
			Title:           l.Title,
			Description:     l.Description,
			Category:        l.Category,
			Location:        l.Location,
			Type:            l.Type,
			PriceMinorUnits: new(big.Int).Set(l.PriceMinorUnits),
			IsAvailable:     true,
			CreatedAt:       created,
		})
		return nil
	})
}

func (h *memoryHandle) ToggleAvailability(_ context.Context, id uint64) (service.TxHandle, error) {
	return h.submit(Call{Method: "toggleAvailability", ListingID: id}, func(m *Memory) error {
		slot, err := m.slot(id)
		if err != nil {
			return err
		}
		if !slot.OwnedBy(h.from) {
			return errors.New("Only owner can toggle")
		}
		slot.IsAvailable = !slot.IsAvailable
		return nil
	})
}

func (h *memoryHandle) BuyOrRent(_ context.Context, id uint64, value *big.Int) (service.TxHandle, error) {
	call := Call{Method: "buyOrRent", ListingID: id}
	if value != nil {
		call.Value = new(big.Int).Set(value)
	}
	return h.submit(call, func(m *Memory) error {
		slot, err := m.slot(id)
		if err != nil {
			return err
		}
		if !slot.IsAvailable {
			return errors.New("Listing not available")
		}
		if slot.OwnedBy(h.from) {
			return errors.New("Owner cannot buy own listing")
		}
		if value == nil || value.Cmp(slot.PriceMinorUnits) != 0 {
			return errors.New("Incorrect payment amount")
		}
		slot.IsAvailable = false
		return nil
	})
}

// slot returns a pointer to a live listing; callers hold m.mu.
func (m *Memory) slot(id uint64) (*model.Listing, error) {
	if id == 0 || id > uint64(len(m.slots)) || m.slots[id-1].IsEmptySlot() {
		return nil, errors.New("Listing does not exist")
	}
	return &m.slots[id-1], nil
}

func (h *memoryHandle) submit(call Call, apply func(m *Memory) error) (service.TxHandle, error) {
	if h.from == "" {
		return nil, fmt.Errorf("%w: %s needs a connected account", common.ErrWalletUnavailable, call.Method)
	}

	m := h.ledger
	m.mu.Lock()
	defer m.mu.Unlock()

	call.From = h.from
	m.calls = append(m.calls, call)
	hash := fmt.Sprintf("0x%064x", len(m.calls))

	if reason := m.failSubmit; reason != nil {
		m.failSubmit = nil
		return nil, revert(*reason)
	}
	if reason := m.failConfirm; reason != nil {
		m.failConfirm = nil
		return &memoryTx{hash: hash, err: revert(*reason)}, nil
	}
	if err := apply(m); err != nil {
		return nil, revert(err.Error())
	}
	return &memoryTx{hash: hash}, nil
}

// revert mimics a node rejection; an empty reason carries no message.
func revert(reason string) error {
	if reason == "" {
		return &common.LedgerError{Err: errors.New("execution reverted")}
	}
	return &common.LedgerError{Message: reason, Err: fmt.Errorf("execution reverted: %s", reason)}
}

type memoryTx struct {
	err  error
	hash string
}

func (t *memoryTx) Hash() string { return t.hash }

func (t *memoryTx) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.err
}

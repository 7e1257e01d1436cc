package model

import "time"

// OperationKind identifies a ledger-mutating operation.
type OperationKind string

const (
	// OperationCreate creates a listing.
	OperationCreate OperationKind = "create"
	// OperationToggle flips a listing's availability.
	OperationToggle OperationKind = "toggle"
	// OperationPay buys or rents a listing.
	OperationPay OperationKind = "pay"
)

// Stage is the position of an operation in its lifecycle.
type Stage string

const (
	// StageIdle is the stage before anything was sent to the ledger.
	StageIdle Stage = "idle"
	// StageSubmitted means the ledger accepted the call and confirmation is pending.
	StageSubmitted Stage = "submitted"
	// StageConfirmed means the ledger confirmed the mutation.
	StageConfirmed Stage = "confirmed"
	// StageFailed means the operation ended without a confirmed mutation.
	StageFailed Stage = "failed"
)

// Terminal reports whether no further transition can happen from s.
func (s Stage) Terminal() bool {
	return s == StageConfirmed || s == StageFailed
}

// Operation records one run of the transaction orchestrator.
type Operation struct {
	StartedAt time.Time
	UpdatedAt time.Time
	ID        string
	Kind      OperationKind
	Stage     Stage
	Account   string
	TxHash    string
	Message   string
	ListingID uint64
}

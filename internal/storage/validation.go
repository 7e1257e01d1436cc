package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/campus-bazaar/internal/model"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrNilParameter     = errors.New("parameter cannot be nil")
	ErrInvalidListing   = errors.New("invalid listing")
	ErrInvalidOperation = errors.New("invalid operation")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateListings checks every listing of a snapshot. An empty snapshot is valid.
func validateListings(listings []model.Listing) error {
	seen := make(map[uint64]bool, len(listings))
	for i, l := range listings {
		switch {
		case l.IsEmptySlot():
			return fmt.Errorf("%w at index %d: empty slot", ErrInvalidListing, i)
		case seen[l.ID]:
			return fmt.Errorf("%w at index %d: duplicate id %d", ErrInvalidListing, i, l.ID)
		case l.PriceMinorUnits == nil || l.PriceMinorUnits.Sign() < 0:
			return fmt.Errorf("%w %d: price must be non-negative", ErrInvalidListing, l.ID)
		}
		seen[l.ID] = true
	}
	return nil
}

// validateOperation validates a journal entry.
func validateOperation(op *model.Operation) error {
	if op == nil {
		return fmt.Errorf("%w: operation", ErrNilParameter)
	}
	if strings.TrimSpace(op.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidOperation)
	}

	switch op.Kind {
	case model.OperationCreate, model.OperationToggle, model.OperationPay:
	default:
		return fmt.Errorf("%w: kind %q", ErrInvalidOperation, op.Kind)
	}

	switch op.Stage {
	case model.StageIdle, model.StageSubmitted, model.StageConfirmed, model.StageFailed:
	default:
		return fmt.Errorf("%w: stage %q", ErrInvalidOperation, op.Stage)
	}

	if op.StartedAt.IsZero() {
		return fmt.Errorf("%w: missing start time", ErrInvalidOperation)
	}
	return nil
}

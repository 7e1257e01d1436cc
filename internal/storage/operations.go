package storage

import (
	"context"
	"fmt"

	"github.com/Veraticus/campus-bazaar/internal/model"
)

// DefaultOperationLimit caps GetOperations when no positive limit is given.
const DefaultOperationLimit = 50

// SaveOperation records the current stage of op, replacing its earlier entry.
func (s *SQLiteStorage) SaveOperation(ctx context.Context, op *model.Operation) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateOperation(op); err != nil {
		return err
	}

	updated := op.UpdatedAt
	if updated.IsZero() {
		updated = op.StartedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO operations (
			id, kind, listing_id, stage, account, tx_hash, message, started_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			stage = excluded.stage,
			account = excluded.account,
			tx_hash = excluded.tx_hash,
			message = excluded.message,
			updated_at = excluded.updated_at
	`, op.ID, string(op.Kind), int64(op.ListingID), string(op.Stage), op.Account, op.TxHash, op.Message,
		op.StartedAt.UTC(), updated.UTC())
	if err != nil {
		return fmt.Errorf("failed to save operation: %w", err)
	}
	return nil
}

// GetOperations returns the most recently started operations first.
func (s *SQLiteStorage) GetOperations(ctx context.Context, limit int) (ops []model.Operation, err error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultOperationLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, listing_id, stage, account, tx_hash, message, started_at, updated_at
		FROM operations
		ORDER BY started_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		var (
			op        model.Operation
			kind      string
			stage     string
			listingID int64
		)
		if err := rows.Scan(&op.ID, &kind, &listingID, &stage, &op.Account, &op.TxHash, &op.Message,
			&op.StartedAt, &op.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}
		op.Kind = model.OperationKind(kind)
		op.Stage = model.Stage(stage)
		op.ListingID = uint64(listingID)
		ops = append(ops, op)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating operations: %w", err)
	}
	return ops, nil
}

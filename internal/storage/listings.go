package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/Veraticus/campus-bazaar/internal/common"
	"github.com/Veraticus/campus-bazaar/internal/model"
)

// ReplaceListings stores listings as the snapshot for network, dropping the
// previous snapshot in the same transaction.
func (s *SQLiteStorage) ReplaceListings(ctx context.Context, network string, listings []model.Listing) (err error) {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(network, "network"); err != nil {
		return err
	}
	if err := validateListings(listings); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM listings WHERE network = ?`, network); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO listings (
			network, id, owner, title, description, category, location,
			listing_type, price_minor, is_available, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close statement: %w", closeErr)
		}
	}()

	for _, l := range listings {
		_, err = stmt.ExecContext(ctx,
			network, int64(l.ID), l.Owner, l.Title, l.Description, l.Category, l.Location,
			int(l.Type), l.PriceMinorUnits.String(), l.IsAvailable, l.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save listing %d: %w", l.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (network, listing_count, synced_at) VALUES (?, ?, ?)
		ON CONFLICT(network) DO UPDATE SET
			listing_count = excluded.listing_count,
			synced_at = excluded.synced_at
	`, network, len(listings), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record snapshot: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// GetListings returns the stored snapshot for network in ledger id order.
func (s *SQLiteStorage) GetListings(ctx context.Context, network string) (listings []model.Listing, err error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(network, "network"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, title, description, category, location,
		       listing_type, price_minor, is_available, created_at
		FROM listings
		WHERE network = ?
		ORDER BY id
	`, network)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		var (
			l        model.Listing
			id       int64
			typ      int
			priceStr string
		)
		if err := rows.Scan(&id, &l.Owner, &l.Title, &l.Description, &l.Category, &l.Location,
			&typ, &priceStr, &l.IsAvailable, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}

		price, ok := new(big.Int).SetString(priceStr, 10)
		if !ok {
			return nil, fmt.Errorf("%w %d: stored price %q", ErrInvalidListing, id, priceStr)
		}
		l.ID = uint64(id)
		l.Type = model.ListingType(typ)
		l.PriceMinorUnits = price
		listings = append(listings, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating listings: %w", err)
	}
	return listings, nil
}

// GetSnapshotTime returns when the snapshot for network was last replaced.
func (s *SQLiteStorage) GetSnapshotTime(ctx context.Context, network string) (time.Time, error) {
	if err := validateContext(ctx); err != nil {
		return time.Time{}, err
	}
	if err := validateString(network, "network"); err != nil {
		return time.Time{}, err
	}

	var syncedAt time.Time
	err := s.db.QueryRowContext(ctx, `SELECT synced_at FROM snapshots WHERE network = ?`, network).Scan(&syncedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("%w: no snapshot for network %s", common.ErrNotFound, network)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get snapshot time: %w", err)
	}
	return syncedAt, nil
}

// GetSnapshotNetworks lists the networks that have a stored snapshot, most
// recently synced first.
func (s *SQLiteStorage) GetSnapshotNetworks(ctx context.Context) (networks []string, err error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT network FROM snapshots ORDER BY synced_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		var network string
		if err := rows.Scan(&network); err != nil {
			return nil, fmt.Errorf("failed to scan network: %w", err)
		}
		networks = append(networks, network)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return networks, nil
}

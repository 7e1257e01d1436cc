// Package testutil provides shared fixtures for bazaar tests.
package testutil

import (
	"context"
	"math/big"
	"testing"

	"github.com/Veraticus/campus-bazaar/internal/model"
	"github.com/Veraticus/campus-bazaar/internal/storage"
)

// Well-known accounts used by fixtures.
const (
	Alice = "0x00000000000000000000000000000000000a11ce"
	Bob   = "0x0000000000000000000000000000000000000b0b"
)

// TestNetwork is the chain id fixtures are stored under.
const TestNetwork = "31337"

// TestDB wraps an in-memory storage seeded with fixtures.
type TestDB struct {
	Storage  *storage.SQLiteStorage
	t        *testing.T
	Listings []model.Listing
}

// SetupTestDB creates a migrated in-memory database. When listings are given
// they are stored as the TestNetwork snapshot.
//
// Example:
//
//	db := testutil.SetupTestDB(t, testutil.Listings()...)
func SetupTestDB(t *testing.T, listings ...model.Listing) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	if len(listings) > 0 {
		if err := store.ReplaceListings(ctx, TestNetwork, listings); err != nil {
			t.Fatalf("failed to seed listings: %v", err)
		}
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{
		Storage:  store,
		Listings: listings,
		t:        t,
	}
}

// MustFind returns the fixture with the given title or fails the test.
func (db *TestDB) MustFind(title string) model.Listing {
	db.t.Helper()
	for _, l := range db.Listings {
		if l.Title == title {
			return l
		}
	}
	db.t.Fatalf("no fixture titled %q", title)
	return model.Listing{}
}

// Wei parses a decimal minor-unit amount and panics on malformed input.
func Wei(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("testutil: bad amount " + s)
	}
	return v
}

// Listings returns a small catalog with ids 1..4, owned by Alice and Bob,
// covering both listing types and an unavailable item.
func Listings() []model.Listing {
	return []model.Listing{
		{
			ID: 1, Owner: Alice, Title: "Study desk", Description: "Oak, barely used",
			Category: "furniture", Location: "North dorm", Type: model.ListingTypeSell,
			PriceMinorUnits: Wei("500000000000000000"), IsAvailable: true, CreatedAt: 1700000100,
		},
		{
			ID: 2, Owner: Bob, Title: "Graphing calculator", Description: "TI-84 (Rent price per week)",
			Category: "electronics", Location: "Library", Type: model.ListingTypeRent,
			PriceMinorUnits: Wei("10000000000000000"), IsAvailable: true, CreatedAt: 1700000300,
		},
		{
			ID: 3, Owner: Alice, Title: "Bike", Description: "Single speed",
			Category: "transport", Location: "", Type: model.ListingTypeRent,
			PriceMinorUnits: Wei("20000000000000000"), IsAvailable: false, CreatedAt: 1700000200,
		},
		{
			ID: 4, Owner: Bob, Title: "Chemistry textbook", Description: "",
			Category: "books", Location: "Science hall", Type: model.ListingTypeSell,
			PriceMinorUnits: Wei("30000000000000000"), IsAvailable: true, CreatedAt: 1700000400,
		},
	}
}

package view

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/Veraticus/campus-bazaar/internal/catalog"
	"github.com/Veraticus/campus-bazaar/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtures() []model.Listing {
	return []model.Listing{
		{ID: 1, Title: "Mountain Bike", Location: "Dorm A", Category: "sports", Type: model.ListingTypeRent, CreatedAt: 100},
		{ID: 2, Title: "Desk", Description: "solid oak", Category: "furniture", Type: model.ListingTypeSell, CreatedAt: 300},
		{ID: 3, Title: "Calculator", Location: "Library", Category: "electronics", Type: model.ListingTypeSell, CreatedAt: 200},
		{ID: 4, Title: "Tent", Description: "2 person BIKE-friendly", Category: "sports", Type: model.ListingTypeRent, CreatedAt: 50},
	}
}

func ids(listings []model.Listing) []uint64 {
	out := make([]uint64, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.ID)
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name   string
		filter model.FilterState
		want   []uint64
	}{
		{"default sorts newest first", model.DefaultFilter(), []uint64{2, 3, 1, 4}},
		{"zero value matches all", model.FilterState{}, []uint64{2, 3, 1, 4}},
		{"query hits title and description", model.FilterState{Query: "  bIKe ", Category: "all", Type: "all"}, []uint64{1, 4}},
		{"query hits location", model.FilterState{Query: "library", Category: "all", Type: "all"}, []uint64{3}},
		{"category exact", model.FilterState{Category: "sports", Type: "all"}, []uint64{1, 4}},
		{"category is case sensitive", model.FilterState{Category: "Sports", Type: "all"}, []uint64{}},
		{"rent only", model.FilterState{Category: "all", Type: "rent"}, []uint64{1, 4}},
		{"sell only", model.FilterState{Category: "all", Type: "Sell"}, []uint64{2, 3}},
		{"all predicates", model.FilterState{Query: "oak", Category: "furniture", Type: "sell"}, []uint64{2}},
		{"no match", model.FilterState{Query: "piano", Category: "all", Type: "all"}, []uint64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Apply(fixtures(), tt.filter)))
		})
	}
}

func TestApply_DoesNotModifyInput(t *testing.T) {
	in := fixtures()
	_ = Apply(in, model.DefaultFilter())
	assert.Equal(t, []uint64{1, 2, 3, 4}, ids(in))
}

func TestApply_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	words := []string{"desk", "bike", "lamp", "book", ""}
	categories := []string{"furniture", "sports", "books"}

	for round := 0; round < 50; round++ {
		var listings []model.Listing
		for i := 0; i < 20; i++ {
			listings = append(listings, model.Listing{
				ID:          uint64(i + 1),
				Title:       words[rng.Intn(len(words))],
				Description: words[rng.Intn(len(words))],
				Category:    categories[rng.Intn(len(categories))],
				Type:        model.ListingType(rng.Intn(2)),
				CreatedAt:   rng.Int63n(1000),
			})
		}
		f := model.FilterState{
			Query:    words[rng.Intn(len(words))],
			Category: append(categories, model.FilterAll)[rng.Intn(len(categories)+1)],
			Type:     []string{"rent", "sell", model.FilterAll}[rng.Intn(3)],
		}

		out := Apply(listings, f)
		for i, l := range out {
			if i > 0 {
				require.GreaterOrEqual(t, out[i-1].CreatedAt, l.CreatedAt)
			}
			text := strings.ToLower(l.Title + "\x00" + l.Description + "\x00" + l.Location)
			require.Contains(t, text, f.Query)
			if f.Category != model.FilterAll {
				require.Equal(t, f.Category, l.Category)
			}
			if f.Type == "rent" {
				require.NotEqual(t, model.ListingTypeSell, l.Type)
			}
			if f.Type != model.FilterAll {
				require.Equal(t, f.Type, l.Type.String())
			}
		}
	}
}

func TestDerive(t *testing.T) {
	t.Run("not loaded", func(t *testing.T) {
		r := Derive(catalog.State{}, model.DefaultFilter())
		assert.Equal(t, StatusNotLoaded, r.Status)
	})

	t.Run("loaded but empty ledger", func(t *testing.T) {
		r := Derive(catalog.State{Loaded: true}, model.DefaultFilter())
		assert.Equal(t, StatusEmpty, r.Status)
	})

	t.Run("nothing matches", func(t *testing.T) {
		r := Derive(catalog.State{Loaded: true, Listings: fixtures()}, model.FilterState{Query: "piano"})
		assert.Equal(t, StatusEmpty, r.Status)
		assert.Equal(t, 4, r.Total)
	})

	t.Run("ready", func(t *testing.T) {
		r := Derive(catalog.State{Loaded: true, Listings: fixtures()}, model.DefaultFilter())
		assert.Equal(t, StatusReady, r.Status)
		assert.Len(t, r.Listings, 4)
	})

	t.Run("failed keeps last good listings", func(t *testing.T) {
		err := errors.New("could not load listings")
		r := Derive(catalog.State{Loaded: true, Listings: fixtures(), Err: err}, model.DefaultFilter())
		assert.Equal(t, StatusLoadFailed, r.Status)
		assert.Equal(t, err, r.Err)
		assert.Len(t, r.Listings, 4)
	})

	t.Run("failed before any load", func(t *testing.T) {
		r := Derive(catalog.State{Err: errors.New("no wallet")}, model.DefaultFilter())
		assert.Equal(t, StatusLoadFailed, r.Status)
		assert.Empty(t, r.Listings)
	})
}

func TestCategories(t *testing.T) {
	assert.Equal(t, []string{"electronics", "furniture", "sports"}, Categories(fixtures()))
	assert.Nil(t, Categories(nil))
}

func TestAction(t *testing.T) {
	const owner = "0x00000000000000000000000000000000000A11CE"
	tests := []struct {
		name    string
		account string
		want    string
		listing model.Listing
	}{
		{name: "owner toggles", account: strings.ToLower(owner), want: "toggle", listing: model.Listing{Owner: owner, Type: model.ListingTypeSell, IsAvailable: true}},
		{name: "owner toggles unavailable", account: owner, want: "toggle", listing: model.Listing{Owner: owner}},
		{name: "rent", account: "0xb0b", want: "rent", listing: model.Listing{Owner: owner, Type: model.ListingTypeRent, IsAvailable: true}},
		{name: "buy", want: "buy", listing: model.Listing{Owner: owner, Type: model.ListingTypeSell, IsAvailable: true}},
		{name: "unavailable", account: "0xb0b", want: "-", listing: model.Listing{Owner: owner, Type: model.ListingTypeSell}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Action(tt.listing, tt.account))
		})
	}
}

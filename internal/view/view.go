// Package view derives the display list from the listing cache and the
// current filter input.
package view

import (
	"sort"
	"strings"

	"github.com/Veraticus/campus-bazaar/internal/catalog"
	"github.com/Veraticus/campus-bazaar/internal/model"
)

// Status tells the renderer which of the distinct list states to show.
type Status int

const (
	// StatusNotLoaded means no synchronization has completed yet.
	StatusNotLoaded Status = iota
	// StatusLoadFailed means the last synchronization failed. Any listings
	// in the result come from the last good snapshot.
	StatusLoadFailed
	// StatusEmpty means listings loaded but none match the filter.
	StatusEmpty
	// StatusReady means at least one listing matches.
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusNotLoaded:
		return "not loaded"
	case StatusLoadFailed:
		return "load failed"
	case StatusEmpty:
		return "empty"
	case StatusReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Result is the derived, display-ordered listing set.
type Result struct {
	Err      error
	Listings []model.Listing
	Total    int
	Status   Status
}

// Derive applies f to the cache state and classifies the outcome.
func Derive(state catalog.State, f model.FilterState) Result {
	listings := Apply(state.Listings, f)
	r := Result{Listings: listings, Total: len(state.Listings), Err: state.Err}

	switch {
	case state.Failed():
		r.Status = StatusLoadFailed
	case !state.Loaded:
		r.Status = StatusNotLoaded
	case len(listings) == 0:
		r.Status = StatusEmpty
	default:
		r.Status = StatusReady
	}
	return r
}

// Apply returns the listings matching every predicate of f, newest first.
// The input slice is not modified.
func Apply(listings []model.Listing, f model.FilterState) []model.Listing {
	query := normalize(f.Query)
	category := strings.TrimSpace(f.Category)
	typ := normalize(f.Type)

	out := make([]model.Listing, 0, len(listings))
	for _, l := range listings {
		if matchesQuery(l, query) && matchesCategory(l, category) && matchesType(l, typ) {
			out = append(out, l)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt > out[j].CreatedAt
	})
	return out
}

// Categories returns the distinct non-empty categories in listings, sorted.
func Categories(listings []model.Listing) []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range listings {
		if l.Category == "" || seen[l.Category] {
			continue
		}
		seen[l.Category] = true
		out = append(out, l.Category)
	}
	sort.Strings(out)
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func matchesQuery(l model.Listing, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(l.Title), query) ||
		strings.Contains(strings.ToLower(l.Description), query) ||
		strings.Contains(strings.ToLower(l.Location), query)
}

// Category matching is exact.
func matchesCategory(l model.Listing, category string) bool {
	return category == "" || category == model.FilterAll || l.Category == category
}

func matchesType(l model.Listing, typ string) bool {
	return typ == "" || typ == model.FilterAll || l.Type.String() == typ
}

// Action names the owner-aware action on l for account: "toggle" for the
// owner, "rent" or "buy" for anyone else, "-" when the listing cannot be taken.
func Action(l model.Listing, account string) string {
	switch {
	case l.OwnedBy(account):
		return "toggle"
	case !l.IsAvailable:
		return "-"
	case l.Type == model.ListingTypeRent:
		return "rent"
	default:
		return "buy"
	}
}

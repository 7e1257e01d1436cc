// Package board serves the auxiliary listing board: a small HTTP CRUD
// service over an in-process list. It is independent of the ledger and is
// never consulted by the synchronizer.
package board

import (
	"encoding/json"
	"sync"
	"time"
)

// Defaults applied to omitted fields on create.
const (
	DefaultCategory     = "other"
	DefaultDurationUnit = "day"
	DefaultLocation     = "Not specified"
	DefaultContactEmail = "helpdapp@gmail.com"
	DefaultContactPhone = "+91 8392834933"
)

// Listing is a board entry. Price is echoed exactly as the client sent it.
type Listing struct {
	Price        json.RawMessage `json:"price"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	Type         string          `json:"type"`
	DurationUnit string          `json:"durationUnit"`
	Location     string          `json:"location"`
	ContactEmail string          `json:"contactEmail"`
	ContactPhone string          `json:"contactPhone"`
	CreatedAt    string          `json:"createdAt"`
	ID           int64           `json:"id"`
	IsAvailable  bool            `json:"isAvailable"`
}

// Store is an unbounded in-memory list with monotonically increasing ids.
type Store struct {
	now      func() time.Time
	listings []Listing
	nextID   int64
	mu       sync.RWMutex
}

// NewStore returns an empty store whose first id is 1.
func NewStore() *Store {
	return &Store{nextID: 1, now: time.Now}
}

// All returns a copy of every listing in insertion order.
func (s *Store) All() []Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Listing, len(s.listings))
	copy(out, s.listings)
	return out
}

// Add fills defaults, assigns the next id and appends l.
func (s *Store) Add(l Listing) Listing {
	if l.Category == "" {
		l.Category = DefaultCategory
	}
	if l.DurationUnit == "" {
		l.DurationUnit = DefaultDurationUnit
	}
	if l.Location == "" {
		l.Location = DefaultLocation
	}
	if l.ContactEmail == "" {
		l.ContactEmail = DefaultContactEmail
	}
	if l.ContactPhone == "" {
		l.ContactPhone = DefaultContactPhone
	}
	l.IsAvailable = true

	s.mu.Lock()
	defer s.mu.Unlock()

	l.ID = s.nextID
	s.nextID++
	l.CreatedAt = s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
	s.listings = append(s.listings, l)
	return l
}

// Toggle flips availability of the listing with the given id.
func (s *Store) Toggle(id int64) (Listing, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.listings {
		if s.listings[i].ID == id {
			s.listings[i].IsAvailable = !s.listings[i].IsAvailable
			return s.listings[i], true
		}
	}
	return Listing{}, false
}

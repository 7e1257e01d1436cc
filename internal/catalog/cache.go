// Package catalog holds the local listing cache and the synchronizer that
// refills it from the ledger.
package catalog

import (
	"sync/atomic"
	"time"

	"github.com/Veraticus/campus-bazaar/internal/model"
)

// State is an immutable view of the cache. Listings is never mutated after
// the State is published.
type State struct {
	LoadedAt time.Time
	Err      error
	Network  string
	Listings []model.Listing
	Loaded   bool
}

// Failed reports whether the most recent synchronization failed.
func (s State) Failed() bool {
	return s.Err != nil
}

// Cache holds the last synchronized listing set. Readers always see a whole
// snapshot; replacement swaps the State pointer.
type Cache struct {
	state atomic.Pointer[State]
}

// NewCache returns an empty, not yet loaded cache.
func NewCache() *Cache {
	c := &Cache{}
	c.state.Store(&State{})
	return c
}

// State returns the current snapshot.
func (c *Cache) State() State {
	return *c.state.Load()
}

// Listing looks up a cached listing by id.
func (c *Cache) Listing(id uint64) (model.Listing, bool) {
	for _, l := range c.state.Load().Listings {
		if l.ID == id {
			return l.Clone(), true
		}
	}
	return model.Listing{}, false
}

// Clear drops everything, returning the cache to not loaded.
func (c *Cache) Clear() {
	c.state.Store(&State{})
}

func (c *Cache) load() *State {
	return c.state.Load()
}

// replace installs a fresh snapshot unless the cache changed since from was read.
func (c *Cache) replace(from *State, network string, listings []model.Listing) bool {
	return c.state.CompareAndSwap(from, &State{
		Listings: listings,
		Network:  network,
		LoadedAt: time.Now(),
		Loaded:   true,
	})
}

// fail records err and keeps the last good snapshot.
func (c *Cache) fail(from *State, err error) bool {
	next := *from
	next.Err = err
	return c.state.CompareAndSwap(from, &next)
}

package model

import (
	"fmt"
	"math/big"
	"strings"
)

// ListingType distinguishes items offered for rent from items offered for sale.
// The numeric values match the ledger contract's enum.
type ListingType uint8

const (
	// ListingTypeRent marks an item offered for rent.
	ListingTypeRent ListingType = 0
	// ListingTypeSell marks an item offered for sale.
	ListingTypeSell ListingType = 1
)

// String returns the lower-case form used by filters and forms.
func (t ListingType) String() string {
	switch t {
	case ListingTypeRent:
		return "rent"
	case ListingTypeSell:
		return "sell"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// Valid reports whether t is one of the ledger's listing types.
func (t ListingType) Valid() bool {
	return t == ListingTypeRent || t == ListingTypeSell
}

// ParseListingType parses "rent" or "sell" (case-insensitive, surrounding space ignored).
func ParseListingType(s string) (ListingType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rent":
		return ListingTypeRent, nil
	case "sell":
		return ListingTypeSell, nil
	default:
		return 0, fmt.Errorf("unknown listing type %q", s)
	}
}

// Listing is the cached copy of a ledger listing record.
// Only IsAvailable changes after creation.
type Listing struct {
	PriceMinorUnits *big.Int
	Owner           string
	Title           string
	Description     string
	Category        string
	Location        string
	ID              uint64
	CreatedAt       int64
	Type            ListingType
	IsAvailable     bool
}

// IsEmptySlot reports whether the record is the ledger's empty-slot marker.
func (l Listing) IsEmptySlot() bool {
	return l.ID == 0
}

// OwnedBy reports whether account owns the listing. Addresses compare case-insensitively.
func (l Listing) OwnedBy(account string) bool {
	return account != "" && strings.EqualFold(l.Owner, account)
}

// Clone returns a copy that shares no mutable state with l.
func (l Listing) Clone() Listing {
	if l.PriceMinorUnits != nil {
		l.PriceMinorUnits = new(big.Int).Set(l.PriceMinorUnits)
	}
	return l
}

// NewListing carries the fields submitted to the ledger when creating a listing.
type NewListing struct {
	PriceMinorUnits *big.Int
	Title           string
	Description     string
	Category        string
	Location        string
	Type            ListingType
}

// ShortAddress renders an address as 0x1234...abcd.
func ShortAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

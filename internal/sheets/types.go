package sheets

import (
	"time"

	"github.com/Veraticus/campus-bazaar/internal/amount"
	"github.com/Veraticus/campus-bazaar/internal/model"
	"github.com/shopspring/decimal"
)

// ListingRow is a single row of the listing table.
type ListingRow struct {
	CreatedAt time.Time
	Price     decimal.Decimal
	Title     string
	Type      string
	Category  string
	Location  string
	Owner     string
	ID        uint64
	Available bool
}

// Snapshot is everything written by one export.
type Snapshot struct {
	SyncedAt time.Time
	Network  string
	Rows     []ListingRow
}

// Summary counts listings by type and availability.
type Summary struct {
	Total     int
	Available int
	Rent      int
	Sell      int
}

// NewSnapshot converts cached listings into export rows. Listings without
// a price are exported with a zero price.
func NewSnapshot(network string, syncedAt time.Time, listings []model.Listing) Snapshot {
	rows := make([]ListingRow, 0, len(listings))
	for _, l := range listings {
		price := decimal.Zero
		if l.PriceMinorUnits != nil {
			price = decimal.NewFromBigInt(l.PriceMinorUnits, -amount.Scale)
		}
		rows = append(rows, ListingRow{
			ID:        l.ID,
			Title:     l.Title,
			Type:      l.Type.String(),
			Category:  l.Category,
			Location:  l.Location,
			Owner:     l.Owner,
			Price:     price,
			Available: l.IsAvailable,
			CreatedAt: time.Unix(l.CreatedAt, 0).UTC(),
		})
	}
	return Snapshot{Network: network, SyncedAt: syncedAt, Rows: rows}
}

// Summarize counts the rows of s.
func (s Snapshot) Summarize() Summary {
	sum := Summary{Total: len(s.Rows)}
	for _, r := range s.Rows {
		if r.Available {
			sum.Available++
		}
		switch r.Type {
		case model.ListingTypeRent.String():
			sum.Rent++
		case model.ListingTypeSell.String():
			sum.Sell++
		}
	}
	return sum
}

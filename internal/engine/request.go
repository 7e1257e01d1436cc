package engine

import (
	"math/big"
	"strings"

	"github.com/Veraticus/campus-bazaar/internal/amount"
	"github.com/Veraticus/campus-bazaar/internal/common"
	"github.com/Veraticus/campus-bazaar/internal/model"
)

// CreateRequest is the raw listing form input.
type CreateRequest struct {
	Title           string
	Description     string
	Category        string
	Location        string
	Type            string
	Price           string
	DurationUnit    string
	SecurityDeposit string
}

// Validate checks the required fields and converts the request into the
// ledger call arguments. The returned error is a *common.ValidationError.
func (r CreateRequest) Validate() (model.NewListing, error) {
	title := strings.TrimSpace(r.Title)
	typ := strings.TrimSpace(r.Type)
	price := strings.TrimSpace(r.Price)

	switch {
	case title == "":
		return model.NewListing{}, common.NewValidationError("title", "required")
	case typ == "":
		return model.NewListing{}, common.NewValidationError("type", "required")
	case price == "":
		return model.NewListing{}, common.NewValidationError("price", "required")
	}

	listingType, err := model.ParseListingType(typ)
	if err != nil {
		return model.NewListing{}, common.NewValidationError("type", "must be rent or sell")
	}

	minor, err := amount.ParseMinorUnits(price)
	if err != nil {
		return model.NewListing{}, err
	}
	if minor.Sign() <= 0 {
		return model.NewListing{}, common.NewValidationError("price", "must be greater than 0")
	}

	if deposit := strings.TrimSpace(r.SecurityDeposit); deposit != "" && listingType == model.ListingTypeRent {
		if _, err := amount.ParseMinorUnits(deposit); err != nil {
			return model.NewListing{}, common.NewValidationError("deposit", "invalid amount format, use a value like 0.01")
		}
	}

	return model.NewListing{
		Title:           title,
		Description:     r.description(listingType),
		Category:        strings.TrimSpace(r.Category),
		Location:        strings.TrimSpace(r.Location),
		Type:            listingType,
		PriceMinorUnits: new(big.Int).Set(minor),
	}, nil
}

// description appends the rent terms to the free-text description. The terms
// are display text only; the ledger does not interpret them.
func (r CreateRequest) description(t model.ListingType) string {
	parts := []string{}
	if d := strings.TrimSpace(r.Description); d != "" {
		parts = append(parts, d)
	}
	if t == model.ListingTypeRent {
		if unit := strings.TrimSpace(r.DurationUnit); unit != "" {
			parts = append(parts, "(Rent price per "+unit+")")
		}
		if deposit := strings.TrimSpace(r.SecurityDeposit); deposit != "" {
			parts = append(parts, "(Security deposit: "+deposit+" ETH)")
		}
	}
	return strings.Join(parts, " ")
}

package ledger

import (
	"errors"
	"log/slog"
	"math/big"

	"github.com/Veraticus/campus-bazaar/internal/amount"
	"github.com/shopspring/decimal"
)

// PricePlaceholder is shown when an amount cannot be formatted.
const PricePlaceholder = "?"

// ErrUnformattable is returned for amounts that have no display form.
var ErrUnformattable = errors.New("amount cannot be formatted")

// FormatMinorUnits renders minor units as a major-unit decimal string ("0.5", "10").
func FormatMinorUnits(v *big.Int) (string, error) {
	if v == nil {
		return "", ErrUnformattable
	}
	if v.Sign() < 0 {
		return "", ErrUnformattable
	}
	return decimal.NewFromBigInt(v, -amount.Scale).String(), nil
}

// DisplayPrice is FormatMinorUnits for rendering: failures are logged and
// replaced with PricePlaceholder.
func DisplayPrice(v *big.Int) string {
	s, err := FormatMinorUnits(v)
	if err != nil {
		slog.Warn("Failed to format price", "value", v, "error", err)
		return PricePlaceholder
	}
	return s
}

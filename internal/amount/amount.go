// Package amount converts human-entered decimal currency amounts into the
// integer minor units the ledger works in. Conversion is exact: only integer
// arithmetic is used.
package amount

import (
	"math/big"
	"regexp"
	"strings"

	"github.com/Veraticus/campus-bazaar/internal/common"
)

// Scale is the number of minor-unit decimal places below one major unit.
const Scale = 18

var (
	decimalPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)
	unit           = new(big.Int).Exp(big.NewInt(10), big.NewInt(Scale), nil)
)

// ParseMinorUnits converts a decimal string such as "10.5" into minor units.
// Fractional digits past Scale are dropped, not rounded.
func ParseMinorUnits(s string) (*big.Int, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return nil, common.NewValidationError("price", "amount is empty")
	}
	if !decimalPattern.MatchString(cleaned) {
		return nil, common.NewValidationError("price", "invalid amount format, use a value like 0.01")
	}

	intPart, fracPart, _ := strings.Cut(cleaned, ".")
	if len(fracPart) > Scale {
		fracPart = fracPart[:Scale]
	}
	fracPart += strings.Repeat("0", Scale-len(fracPart))

	whole, ok := new(big.Int).SetString(intPart, 10)
	if !ok {
		return nil, common.NewValidationError("price", "invalid integer part")
	}
	frac, ok := new(big.Int).SetString(fracPart, 10)
	if !ok {
		return nil, common.NewValidationError("price", "invalid fractional part")
	}

	whole.Mul(whole, unit)
	return whole.Add(whole, frac), nil
}

// ToMinorUnits is ParseMinorUnits rendered back as a base-10 string.
func ToMinorUnits(s string) (string, error) {
	v, err := ParseMinorUnits(s)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// Unit returns a fresh copy of 10^Scale.
func Unit() *big.Int {
	return new(big.Int).Set(unit)
}

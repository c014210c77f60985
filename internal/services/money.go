package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// MinorUnitExponent is the number of decimal places between the minor unit
// reported by the gateway (paise) and the stored major unit (rupees).
const MinorUnitExponent = 2

// ErrInvalidAmount is returned for negative, non-numeric or non-finite amounts.
var ErrInvalidAmount = errors.New("invalid amount")

// ToMajorUnits converts a gateway amount in whole minor units to major units.
// The division is exact, so no precision is lost.
func ToMajorUnits(minor any) (decimal.Decimal, error) {
	amount, err := parseAmount(minor)
	if err != nil {
		return decimal.Zero, err
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s is negative", ErrInvalidAmount, amount)
	}
	if !amount.IsInteger() {
		return decimal.Zero, fmt.Errorf("%w: %s is not a whole number of minor units", ErrInvalidAmount, amount)
	}
	return amount.Shift(-MinorUnitExponent), nil
}

// ParseMajorUnits parses an amount already expressed in major units, as
// entered for cash donations. The amount must be positive.
func ParseMajorUnits(major any) (decimal.Decimal, error) {
	amount, err := parseAmount(major)
	if err != nil {
		return decimal.Zero, err
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s is not positive", ErrInvalidAmount, amount)
	}
	if err := checkMajorScale(amount); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

// checkMajorScale rejects major-unit amounts finer than one minor unit, which
// the numeric(12,2) column could not store as given.
func checkMajorScale(amount decimal.Decimal) error {
	if !amount.Shift(MinorUnitExponent).IsInteger() {
		return fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, amount, MinorUnitExponent)
	}
	return nil
}

// ParseMinorUnits parses an order amount in minor units. Gateways only accept
// whole positive minor units.
func ParseMinorUnits(minor any) (int64, error) {
	amount, err := parseAmount(minor)
	if err != nil {
		return 0, err
	}
	if !amount.IsPositive() || !amount.IsInteger() {
		return 0, fmt.Errorf("%w: %s is not a positive whole number of minor units", ErrInvalidAmount, amount)
	}
	if !amount.LessThanOrEqual(decimal.NewFromInt(math.MaxInt64)) {
		return 0, fmt.Errorf("%w: %s is too large", ErrInvalidAmount, amount)
	}
	return amount.IntPart(), nil
}

func parseAmount(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case nil:
		return decimal.Zero, fmt.Errorf("%w: amount is missing", ErrInvalidAmount)
	case decimal.Decimal:
		return n, nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, fmt.Errorf("%w: %v is not finite", ErrInvalidAmount, n)
		}
		return decimal.NewFromFloat(n), nil
	case json.Number:
		return parseAmountString(n.String())
	case string:
		return parseAmountString(n)
	default:
		return decimal.Zero, fmt.Errorf("%w: unsupported type %T", ErrInvalidAmount, v)
	}
}

func parseAmountString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is missing", ErrInvalidAmount)
	}
	// decimal.NewFromString rejects NaN and Inf spellings.
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, s)
	}
	return d, nil
}

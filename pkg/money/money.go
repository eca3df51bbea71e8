package money

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"spendsense/pkg/safe"
)

// Amount is a monetary value in minor units (1/100 of the currency unit).
// E.g., Rs 12.34 = 1234 Amount.
type Amount int64

// Scale is the number of minor units per major unit.
const Scale = 100

// ErrInvalidAmount is returned when a string cannot be read as an amount.
var ErrInvalidAmount = errors.New("invalid amount")

// currencyTokens are stripped before parsing. Longest first so "Rs." wins over "Rs".
var currencyTokens = []string{"INR", "Rs.", "RS.", "rs.", "Rs", "RS", "rs", "₹"}

var (
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// FromDecimal converts a decimal to minor units, rounding half away from zero.
// Values that do not fit in int64 minor units are rejected.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	minor := d.Shift(2).Round(0)
	if minor.GreaterThan(maxMinor) || minor.LessThan(minMinor) {
		return 0, fmt.Errorf("%w: %s out of range", ErrInvalidAmount, d)
	}
	return Amount(minor.IntPart()), nil
}

// FromMajor converts a whole number of major units.
func FromMajor(units int64) (Amount, error) {
	minor, err := safe.Mul(units, Scale)
	if err != nil {
		return 0, fmt.Errorf("%w: %d out of range", ErrInvalidAmount, units)
	}
	return Amount(minor), nil
}

// Decimal returns the amount in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -2)
}

func (a Amount) String() string {
	return a.Decimal().StringFixed(2)
}

// Parse reads amounts the way banks print them: "1,234.50", "Rs. 500", "₹99", "INR 12.5".
// No float64 is involved; more than two decimals are rounded.
func Parse(s string) (Amount, error) {
	clean := strings.TrimSpace(s)
	for _, tok := range currencyTokens {
		clean = strings.ReplaceAll(clean, tok, "")
	}
	clean = strings.ReplaceAll(clean, ",", "")
	clean = strings.TrimSpace(clean)
	if clean == "" || clean == "." {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	return parseNumber(clean, s)
}

// parseNumber converts a bare number. Whole numbers skip the decimal path.
func parseNumber(num, orig string) (Amount, error) {
	if isInteger(num) {
		n, err := strconv.ParseInt(num, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, orig)
		}
		return FromMajor(n)
	}
	d, err := decimal.NewFromString(num)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, orig)
	}
	return FromDecimal(d)
}

func isInteger(s string) bool {
	if s != "" && (s[0] == '-' || s[0] == '+') {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// MarshalJSON writes the amount as a bare JSON number ("12.50" -> 12.50).
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted numeric string.
func (a *Amount) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return nil
	}
	raw = strings.Trim(raw, `"`)
	v, err := parseNumber(raw, raw)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

/*
Package generic provides the domain-agnostic primitives of the case engine.

PURPOSE:
  Calendar days, money and error types shared by every package. Nothing in
  here knows what a MEDEVAC case is; the medevac package builds on it.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: decimal.Decimal amounts, never float64
  - Coercion: turning loosely-typed document values into safe numbers

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Totality: Coercion never fails; malformed input becomes zero

USAGE:
  total := generic.SumMoney(rate.Mul(generic.DaysDecimal(3)), airfare)
  fee := generic.CoerceMoney(raw["airfare"])

SEE ALSO:
  - time.go: TimePoint and business-day arithmetic
  - errors.go: Sentinel errors
*/
package generic

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY
// =============================================================================

func NewMoney(value float64) decimal.Decimal {
	return decimal.NewFromFloat(value)
}

// SumMoney adds every amount.
func SumMoney(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// NonNegative maps negative amounts to zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// DaysDecimal converts a day count for multiplication with a rate.
func DaysDecimal(days int) decimal.Decimal {
	if days < 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(days))
}

// =============================================================================
// COERCION - Loosely typed document values into numbers
// =============================================================================

// CoerceMoney converts a decoded JSON value to a non-negative amount.
// Absent, malformed, non-finite and negative values become zero.
func CoerceMoney(v any) decimal.Decimal {
	switch x := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return NonNegative(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero
		}
		return NonNegative(decimal.NewFromFloat(x))
	case float32:
		return CoerceMoney(float64(x))
	case int:
		return NonNegative(decimal.NewFromInt(int64(x)))
	case int64:
		return NonNegative(decimal.NewFromInt(x))
	case json.Number:
		return CoerceMoney(string(x))
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(x), "$"), ",", ""))
		if s == "" {
			return decimal.Zero
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero
		}
		return NonNegative(d)
	default:
		return decimal.Zero
	}
}

// CoerceDays converts a decoded JSON value to a non-negative whole day count.
// Fractions are truncated.
func CoerceDays(v any) int {
	d := CoerceMoney(v)
	if d.IsZero() {
		return 0
	}
	n := d.IntPart()
	if n > math.MaxInt32 {
		return 0
	}
	return int(n)
}

// CoerceString converts a decoded JSON value to a trimmed string.
// Numbers are formatted; anything else becomes "".
func CoerceString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

// CoerceTimePoint converts a decoded JSON value to a TimePoint.
// Unparseable values become the zero TimePoint.
func CoerceTimePoint(v any) TimePoint {
	s, ok := v.(string)
	if !ok {
		return TimePoint{}
	}
	tp, err := ParseTimePoint(s)
	if err != nil {
		return TimePoint{}
	}
	return tp
}

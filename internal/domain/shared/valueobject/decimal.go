package valueobject

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// MoneyPlaces is the number of fractional digits kept for monetary amounts
	MoneyPlaces int32 = 2
	// QtyPlaces is the number of fractional digits kept for quantities
	QtyPlaces int32 = 3
	// UnitCostPlaces is the number of fractional digits kept for per-unit costs
	UnitCostPlaces int32 = 6
)

// Epsilon is the threshold below which a quantity is treated as zero
var Epsilon = decimal.New(1, -6)

// ToMoney rounds a monetary amount to 2 decimal places, halves away from zero
func ToMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// ToQty rounds a quantity to 3 decimal places, halves away from zero
func ToQty(d decimal.Decimal) decimal.Decimal {
	return d.Round(QtyPlaces)
}

// ToUnitCost rounds a per-unit cost to 6 decimal places, halves away from zero.
// Totals derived from it are rounded with ToMoney.
func ToUnitCost(d decimal.Decimal) decimal.Decimal {
	return d.Round(UnitCostPlaces)
}

// IsZeroQty reports whether |d| <= Epsilon
func IsZeroQty(d decimal.Decimal) bool {
	return d.Abs().LessThanOrEqual(Epsilon)
}

// IsPositiveQty reports whether d > Epsilon
func IsPositiveQty(d decimal.Decimal) bool {
	return d.GreaterThan(Epsilon)
}

// MoneyFrom coerces an externally supplied value into a rounded money amount.
// Malformed or missing values become zero.
func MoneyFrom(v any) decimal.Decimal {
	return ToMoney(coerce(v))
}

// QtyFrom coerces an externally supplied value into a rounded quantity.
// Malformed or missing values become zero.
func QtyFrom(v any) decimal.Decimal {
	return ToQty(coerce(v))
}

func coerce(v any) decimal.Decimal {
	switch x := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return x
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero
		}
		return *x
	case decimal.NullDecimal:
		if !x.Valid {
			return decimal.Zero
		}
		return x.Decimal
	case string:
		return parseString(x)
	case *string:
		if x == nil {
			return decimal.Zero
		}
		return parseString(*x)
	case json.Number:
		return parseString(x.String())
	case int:
		return decimal.NewFromInt(int64(x))
	case int32:
		return decimal.NewFromInt32(x)
	case int64:
		return decimal.NewFromInt(x)
	case uint32:
		return decimal.NewFromInt(int64(x))
	case uint64:
		return parseString(strconv.FormatUint(x, 10))
	case float32:
		return fromFloat(float64(x))
	case float64:
		return fromFloat(x)
	default:
		return decimal.Zero
	}
}

func parseString(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	// marketplaces occasionally send a decimal comma
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func fromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

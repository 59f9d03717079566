// Package guard coerces numeric-ish values into finite floats.
package guard

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// maxSafeInt is the largest integer a float64 can represent exactly (2^53 - 1).
var maxSafeInt = decimal.NewFromInt(9007199254740991)

// SafeNumber converts v into a finite float64, returning def when the value
// is nil, unparseable, NaN or infinite. Decimals whose magnitude exceeds the
// float safe-integer range are truncated to 2 decimal places before the lossy
// conversion; this is the one place where monetary precision is deliberately
// dropped.
func SafeNumber(v any, def float64) float64 {
	switch n := v.(type) {
	case nil:
		return def
	case float64:
		return finite(n, def)
	case float32:
		return finite(float64(n), def)
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case string:
		return parse(n, def)
	case json.Number:
		return parse(n.String(), def)
	case decimal.Decimal:
		return fromDecimal(n, def)
	case *decimal.Decimal:
		if n == nil {
			return def
		}
		return fromDecimal(*n, def)
	default:
		return def
	}
}

func parse(s string, def float64) float64 {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return fromDecimal(d, def)
}

func fromDecimal(d decimal.Decimal, def float64) float64 {
	if d.Abs().GreaterThan(maxSafeInt) {
		d = d.Truncate(2)
	}
	f, _ := d.Float64()
	return finite(f, def)
}

func finite(f, def float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

package guard_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/timeledger/timeledger-backend/internal/spending/guard"
)

func TestSafeNumber(t *testing.T) {
	cases := []struct {
		name string
		in   any
		def  float64
		want float64
	}{
		{"nil falls back to default", nil, 0, 0},
		{"nil falls back to custom default", nil, 7.5, 7.5},
		{"float passes through", 12.25, 0, 12.25},
		{"float32 passes through", float32(1.5), 0, 1.5},
		{"nan falls back", math.NaN(), 3, 3},
		{"positive infinity falls back", math.Inf(1), 3, 3},
		{"negative infinity falls back", math.Inf(-1), 3, 3},
		{"int converts", 42, 0, 42},
		{"negative int converts", int64(-9), 0, -9},
		{"uint converts", uint32(8), 0, 8},
		{"numeric string parses", "19.99", 0, 19.99},
		{"padded numeric string parses", "  150 ", 0, 150},
		{"negative string parses", "-3.5", 0, -3.5},
		{"garbage string falls back", "12h30m", 1, 1},
		{"empty string falls back", "", 2, 2},
		{"nan string falls back", "NaN", 4, 4},
		{"json number parses", json.Number("88.5"), 0, 88.5},
		{"bool falls back", true, 5, 5},
		{"struct falls back", struct{}{}, 6, 6},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, guard.SafeNumber(tc.in, tc.def))
		})
	}
}

func TestSafeNumberDecimal(t *testing.T) {
	t.Run("in-range decimal converts exactly", func(t *testing.T) {
		d := decimal.RequireFromString("1234.56")
		require.Equal(t, 1234.56, guard.SafeNumber(d, 0))
	})

	t.Run("nil decimal pointer falls back", func(t *testing.T) {
		var d *decimal.Decimal
		require.Equal(t, 9.0, guard.SafeNumber(d, 9))
	})

	t.Run("decimal pointer converts", func(t *testing.T) {
		d := decimal.RequireFromString("0.25")
		require.Equal(t, 0.25, guard.SafeNumber(&d, 0))
	})

	t.Run("oversized decimal is truncated to 2 places", func(t *testing.T) {
		// Beyond 2^53-1 the fractional digits cannot survive the float
		// conversion anyway; the contract is truncate, not error.
		d := decimal.RequireFromString("9007199254740993.987654")
		got := guard.SafeNumber(d, 0)
		want, _ := decimal.RequireFromString("9007199254740993.98").Float64()
		require.Equal(t, want, got)
	})

	t.Run("decimal beyond float range falls back", func(t *testing.T) {
		d := decimal.New(1, 400)
		require.Equal(t, 11.0, guard.SafeNumber(d, 11))
	})
}

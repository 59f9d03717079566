package fiscal_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/timeledger/timeledger-backend/internal/spending/fiscal"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestQuarterOf(t *testing.T) {
	cases := []struct {
		name string
		in   time.Time
		want int
	}{
		{"march 31 closes q4", date(2024, time.March, 31), 4},
		{"april 1 opens q1", date(2024, time.April, 1), 1},
		{"june is q1", date(2024, time.June, 15), 1},
		{"july 1 opens q2", date(2024, time.July, 1), 2},
		{"december 31 is q3", date(2024, time.December, 31), 3},
		{"january 1 is q4 of the prior fiscal year", date(2025, time.January, 1), 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := fiscal.QuarterOf(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}

	t.Run("zero date is rejected", func(t *testing.T) {
		_, err := fiscal.QuarterOf(time.Time{})
		require.ErrorIs(t, err, fiscal.ErrInvalidDate)
	})
}

func TestMonthKeyOf(t *testing.T) {
	t.Run("calendar year is kept even inside q4", func(t *testing.T) {
		key, err := fiscal.MonthKeyOf(date(2025, time.February, 10))
		require.NoError(t, err)
		require.Equal(t, "2025-02", key)
	})

	t.Run("single digit months are zero padded", func(t *testing.T) {
		key, err := fiscal.MonthKeyOf(date(2024, time.April, 1))
		require.NoError(t, err)
		require.Equal(t, "2024-04", key)
	})

	t.Run("zero date is rejected", func(t *testing.T) {
		_, err := fiscal.MonthKeyOf(time.Time{})
		require.ErrorIs(t, err, fiscal.ErrInvalidDate)
	})
}

func TestYear(t *testing.T) {
	cases := []struct {
		name string
		in   time.Time
		want int
	}{
		{"april starts the fiscal year", date(2024, time.April, 1), 2024},
		{"december stays in the starting year", date(2024, time.December, 5), 2024},
		{"march belongs to the previous fiscal year", date(2025, time.March, 31), 2024},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := fiscal.Year(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestQuarterRange(t *testing.T) {
	cases := []struct {
		name      string
		in        time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"q1", date(2024, time.May, 20), date(2024, time.April, 1), date(2024, time.July, 1)},
		{"q3", date(2024, time.November, 2), date(2024, time.October, 1), date(2025, time.January, 1)},
		{"q4 spills into the next calendar year", date(2025, time.February, 14), date(2025, time.January, 1), date(2025, time.April, 1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end, err := fiscal.QuarterRange(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.wantStart, start)
			require.Equal(t, tc.wantEnd, end)
		})
	}

	t.Run("zero date is rejected", func(t *testing.T) {
		_, _, err := fiscal.QuarterRange(time.Time{})
		require.ErrorIs(t, err, fiscal.ErrInvalidDate)
	})
}

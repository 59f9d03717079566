package aggregate_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/timeledger/timeledger-backend/internal/spending/aggregate"
	timedomain "github.com/timeledger/timeledger-backend/internal/timeentries/domain"
	usersdomain "github.com/timeledger/timeledger-backend/internal/users/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// flatRates resolves every known user to a fixed rate.
func flatRates(rates map[string]string) aggregate.RateFn {
	return func(userID string, _ time.Time) (decimal.Decimal, error) {
		r, ok := rates[userID]
		if !ok {
			return decimal.Zero, usersdomain.ErrNotFound
		}
		return dec(r), nil
	}
}

func entry(id, user, project string, on time.Time, hours string) timedomain.TimeEntry {
	return timedomain.TimeEntry{
		ID:        id,
		UserID:    user,
		ProjectID: project,
		EntryDate: on,
		Hours:     dec(hours),
	}
}

func sampleEntries() []timedomain.TimeEntry {
	return []timedomain.TimeEntry{
		entry("e1", "u1", "p1", date(2024, time.April, 10), "3"),
		entry("e2", "u1", "p1", date(2024, time.April, 22), "2.5"),
		entry("e3", "u1", "p2", date(2024, time.August, 3), "4"),
		entry("e4", "u2", "p1", date(2024, time.November, 18), "6"),
		entry("e5", "u2", "p2", date(2025, time.February, 7), "1.25"),
	}
}

func sampleRates() aggregate.RateFn {
	return flatRates(map[string]string{"u1": "40", "u2": "55"})
}

func TestSpendingBuckets(t *testing.T) {
	res := aggregate.Spending(sampleEntries(), sampleRates())
	require.True(t, res.Valid())

	t.Run("per employee", func(t *testing.T) {
		u1 := res.PerEmployee["u1"]
		require.NotNil(t, u1)
		// 3 + 2.5 hours in April, 4 in August, all at 40.
		require.True(t, u1.Months["2024-04"].Cost.Equal(dec("220")))
		require.True(t, u1.Months["2024-08"].Cost.Equal(dec("160")))
		require.True(t, u1.Quarters[1].Hours.Equal(dec("5.5")))
		require.True(t, u1.Total.Cost.Equal(dec("380")))
	})

	t.Run("per project", func(t *testing.T) {
		p1 := res.PerProject["p1"]
		require.NotNil(t, p1)
		// u1's April hours plus u2's November hours.
		require.True(t, p1.Quarters[1].Cost.Equal(dec("220")))
		require.True(t, p1.Quarters[3].Cost.Equal(dec("330")))
		require.True(t, p1.Total.Hours.Equal(dec("11.5")))
	})

	t.Run("combined matrix", func(t *testing.T) {
		b := res.Combined[aggregate.Key{UserID: "u2", ProjectID: "p2"}]
		require.NotNil(t, b)
		require.True(t, b.Total.Cost.Equal(dec("68.75")))
		require.True(t, b.Quarters[4].Cost.Equal(dec("68.75")))
	})

	t.Run("totals", func(t *testing.T) {
		require.True(t, res.Totals.Total.Hours.Equal(dec("16.75")))
		require.True(t, res.Totals.Total.Cost.Equal(dec("778.75")))
	})
}

func TestSpendingConservation(t *testing.T) {
	res := aggregate.Spending(sampleEntries(), sampleRates())

	sum := func(m map[string]*aggregate.Buckets) (hours, cost decimal.Decimal) {
		for _, b := range m {
			hours = hours.Add(b.Total.Hours)
			cost = cost.Add(b.Total.Cost)
		}
		return
	}

	empHours, empCost := sum(res.PerEmployee)
	projHours, projCost := sum(res.PerProject)

	require.True(t, empCost.Equal(res.Totals.Total.Cost))
	require.True(t, projCost.Equal(res.Totals.Total.Cost))
	require.True(t, empHours.Equal(res.Totals.Total.Hours))
	require.True(t, projHours.Equal(res.Totals.Total.Hours))

	t.Run("per quarter", func(t *testing.T) {
		for q := 1; q <= 4; q++ {
			var emp, proj decimal.Decimal
			for _, b := range res.PerEmployee {
				emp = emp.Add(b.QuarterCost(q))
			}
			for _, b := range res.PerProject {
				proj = proj.Add(b.QuarterCost(q))
			}
			require.True(t, emp.Equal(res.Totals.QuarterCost(q)), "quarter %d employee sum", q)
			require.True(t, proj.Equal(res.Totals.QuarterCost(q)), "quarter %d project sum", q)
		}
	})
}

func TestSpendingIsIdempotent(t *testing.T) {
	first := aggregate.Spending(sampleEntries(), sampleRates())
	second := aggregate.Spending(sampleEntries(), sampleRates())
	require.Equal(t, first, second)
}

func TestSpendingIsOrderIndependent(t *testing.T) {
	entries := sampleEntries()
	shuffled := make([]timedomain.TimeEntry, len(entries))
	copy(shuffled, entries)
	rand.New(rand.NewSource(7)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	a := aggregate.Spending(entries, sampleRates())
	b := aggregate.Spending(shuffled, sampleRates())

	require.Equal(t, a.PerEmployee, b.PerEmployee)
	require.Equal(t, a.PerProject, b.PerProject)
	require.Equal(t, a.Combined, b.Combined)
	require.Equal(t, a.Totals, b.Totals)
}

func TestSpendingMergeMatchesSingleRun(t *testing.T) {
	entries := sampleEntries()
	whole := aggregate.Spending(entries, sampleRates())

	left := aggregate.Spending(entries[:2], sampleRates())
	right := aggregate.Spending(entries[2:], sampleRates())
	left.Merge(right)

	require.Equal(t, whole, left)
}

func TestSpendingRejections(t *testing.T) {
	bad := []timedomain.TimeEntry{
		entry("z1", "u1", "p1", date(2024, time.May, 1), "0"),
		entry("z2", "u1", "p1", date(2024, time.May, 1), "-2"),
		entry("z3", "", "p1", date(2024, time.May, 1), "3"),
		entry("z4", "u1", "p1", time.Time{}, "3"),
		entry("z5", "ghost", "p1", date(2024, time.May, 1), "3"),
		entry("ok", "u1", "p1", date(2024, time.May, 1), "2"),
	}

	res := aggregate.Spending(bad, sampleRates())

	require.False(t, res.Valid())
	require.Len(t, res.Errors, 5)

	reasons := make(map[string]string, len(res.Errors))
	for _, e := range res.Errors {
		reasons[e.EntryID] = e.Reason
	}
	require.Equal(t, aggregate.ReasonHoursNotPositive, reasons["z1"])
	require.Equal(t, aggregate.ReasonHoursNotPositive, reasons["z2"])
	require.Equal(t, aggregate.ReasonMissingUser, reasons["z3"])
	require.Equal(t, aggregate.ReasonInvalidDate, reasons["z4"])
	require.Equal(t, aggregate.ReasonUnknownUser, reasons["z5"])

	t.Run("good entries still aggregate", func(t *testing.T) {
		require.True(t, res.Totals.Total.Cost.Equal(dec("80")))
		require.True(t, res.PerEmployee["u1"].Total.Hours.Equal(dec("2")))
	})

	t.Run("missing user only invalidates that user's entries", func(t *testing.T) {
		_, ghostSeen := res.PerEmployee["ghost"]
		require.False(t, ghostSeen)
	})
}

func TestSpendingNegativeRate(t *testing.T) {
	negative := func(string, time.Time) (decimal.Decimal, error) {
		return dec("-5"), nil
	}
	res := aggregate.Spending([]timedomain.TimeEntry{
		entry("e1", "u1", "p1", date(2024, time.May, 1), "2"),
	}, negative)

	require.Len(t, res.Errors, 1)
	require.Equal(t, aggregate.ReasonNegativeRate, res.Errors[0].Reason)
	require.True(t, res.Totals.Total.Cost.IsZero())
}

func TestSpendingZeroRateBooksZeroCost(t *testing.T) {
	zero := func(string, time.Time) (decimal.Decimal, error) {
		return decimal.Zero, nil
	}
	res := aggregate.Spending([]timedomain.TimeEntry{
		entry("e1", "u1", "p1", date(2024, time.May, 1), "2"),
	}, zero)

	require.True(t, res.Valid())
	require.True(t, res.Totals.Total.Hours.Equal(dec("2")))
	require.True(t, res.Totals.Total.Cost.IsZero())
}

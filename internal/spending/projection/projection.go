// Package projection extrapolates quarter-end spend from the burn rate
// observed so far. Projections are advisory: bad input produces an explicitly
// invalid result with a reason, never an error.
package projection

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/timeledger/timeledger-backend/internal/spending/guard"
)

type Input struct {
	SpentToDate   decimal.Decimal
	QuarterBudget decimal.Decimal
	AsOf          time.Time
	QuarterStart  time.Time
	// QuarterEnd is exclusive, the first day after the quarter.
	QuarterEnd time.Time
}

type Result struct {
	IsValid        bool            `json:"is_valid"`
	Reason         string          `json:"reason,omitempty"`
	DaysElapsed    int             `json:"days_elapsed"`
	TotalDays      int             `json:"total_days"`
	Progress       float64         `json:"progress"`
	OnTrackSpend   decimal.Decimal `json:"on_track_spend"`
	ProjectedSpend decimal.Decimal `json:"projected_spend"`
	Variance       decimal.Decimal `json:"variance"`
}

func invalid(reason string) Result {
	return Result{Reason: reason}
}

// Estimate projects spend at quarter end assuming the observed daily burn
// continues linearly. Before the quarter starts the projection is zero; once
// the quarter has fully elapsed it is the spend itself. OnTrackSpend is what
// a perfectly linear burn of the budget would have spent by AsOf, and
// Variance is projected minus budget (negative when trending under).
func Estimate(in Input) Result {
	switch {
	case in.AsOf.IsZero() || in.QuarterStart.IsZero() || in.QuarterEnd.IsZero():
		return invalid("missing date")
	case !in.QuarterStart.Before(in.QuarterEnd):
		return invalid("quarter start must be before quarter end")
	case in.SpentToDate.Sign() < 0:
		return invalid("spend cannot be negative")
	case in.QuarterBudget.Sign() < 0:
		return invalid("budget cannot be negative")
	}

	totalDays := daysBetween(in.QuarterStart, in.QuarterEnd)
	if totalDays <= 0 {
		return invalid("quarter spans no full day")
	}

	elapsed := daysBetween(in.QuarterStart, in.AsOf)
	if elapsed < 0 {
		elapsed = 0
	}
	clamped := elapsed
	if clamped > totalDays {
		clamped = totalDays
	}

	total := decimal.NewFromInt(int64(totalDays))
	progress := decimal.NewFromInt(int64(clamped)).Div(total)
	// Multiplying the budget by the elapsed days before dividing keeps the
	// result exact whenever the product divides evenly; dividing first would
	// bake the ratio's rounding into every on-track figure.
	onTrack := in.QuarterBudget.Mul(decimal.NewFromInt(int64(clamped))).Div(total)

	var projected decimal.Decimal
	switch {
	case elapsed == 0:
		// Not started, or day one with no observed burn yet.
		projected = decimal.Zero
	case elapsed >= totalDays:
		projected = in.SpentToDate
	default:
		projected = in.SpentToDate.Mul(total).Div(decimal.NewFromInt(int64(elapsed)))
	}

	return Result{
		IsValid:        true,
		DaysElapsed:    elapsed,
		TotalDays:      totalDays,
		Progress:       guard.SafeNumber(progress, 0),
		OnTrackSpend:   onTrack,
		ProjectedSpend: projected,
		Variance:       projected.Sub(in.QuarterBudget),
	}
}

func daysBetween(a, b time.Time) int {
	return int(midnight(b).Sub(midnight(a)).Hours() / 24)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

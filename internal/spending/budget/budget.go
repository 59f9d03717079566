// Package budget classifies spend against a budget into status tiers.
package budget

import (
	"encoding/json"
	"math"

	"github.com/shopspring/decimal"

	"github.com/timeledger/timeledger-backend/internal/spending/guard"
)

type Tier string

const (
	TierOnTrack  Tier = "on-track"
	TierWarning  Tier = "warning"
	TierCritical Tier = "critical"
	TierOver     Tier = "over-budget"
)

var (
	hundred    = decimal.NewFromInt(100)
	warnAt     = decimal.NewFromInt(75)
	criticalAt = decimal.NewFromInt(90)
)

// Status is the evaluation of spend against one budget. UtilizationPercent is
// +Inf when spend was booked against a zero budget; Unbounded flags that case
// since JSON cannot carry infinities.
type Status struct {
	Spent              decimal.Decimal
	Budget             decimal.Decimal
	UtilizationPercent float64
	Unbounded          bool
	Tier               Tier
	Remaining          decimal.Decimal
	Overage            decimal.Decimal
}

// Evaluate compares spent against budget. It has no error paths: a zero
// budget with zero spend is on-track, a zero budget with any spend is
// over-budget with unbounded utilization.
func Evaluate(spent, budget decimal.Decimal) Status {
	s := Status{
		Spent:     spent,
		Budget:    budget,
		Remaining: decimal.Max(decimal.Zero, budget.Sub(spent)),
		Overage:   decimal.Max(decimal.Zero, spent.Sub(budget)),
	}

	switch {
	case budget.Sign() > 0:
		// The ratio itself can overflow a float64 for extreme spends; the
		// guard absorbs that into 0 rather than leaking a non-finite value.
		s.UtilizationPercent = guard.SafeNumber(spent.Div(budget).Mul(hundred), 0)
		s.Tier = tierOf(spent, budget)
	case spent.Sign() > 0:
		s.UtilizationPercent = math.Inf(1)
		s.Unbounded = true
		s.Tier = TierOver
	default:
		s.UtilizationPercent = 0
		s.Tier = TierOnTrack
	}
	return s
}

// tierOf classifies on decimal comparisons so boundary values never suffer
// float artifacts: spent*100 is compared against budget*threshold directly.
func tierOf(spent, budget decimal.Decimal) Tier {
	scaled := spent.Mul(hundred)
	switch {
	case scaled.LessThan(budget.Mul(warnAt)):
		return TierOnTrack
	case scaled.LessThan(budget.Mul(criticalAt)):
		return TierWarning
	case scaled.LessThan(budget.Mul(hundred)):
		return TierCritical
	default:
		return TierOver
	}
}

// statusJSON is the wire shape. Utilization rides as a nullable number since
// JSON has no way to express the +Inf of spend against a zero budget.
type statusJSON struct {
	Spent              decimal.Decimal `json:"spent"`
	Budget             decimal.Decimal `json:"budget"`
	UtilizationPercent *float64        `json:"utilization_percent"`
	Unbounded          bool            `json:"unbounded,omitempty"`
	Tier               Tier            `json:"tier"`
	Remaining          decimal.Decimal `json:"remaining"`
	Overage            decimal.Decimal `json:"overage"`
}

func (s Status) MarshalJSON() ([]byte, error) {
	var util *float64
	if !s.Unbounded {
		u := s.UtilizationPercent
		util = &u
	}
	return json.Marshal(statusJSON{
		Spent:              s.Spent,
		Budget:             s.Budget,
		UtilizationPercent: util,
		Unbounded:          s.Unbounded,
		Tier:               s.Tier,
		Remaining:          s.Remaining,
		Overage:            s.Overage,
	})
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var aux statusJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*s = Status{
		Spent:     aux.Spent,
		Budget:    aux.Budget,
		Unbounded: aux.Unbounded,
		Tier:      aux.Tier,
		Remaining: aux.Remaining,
		Overage:   aux.Overage,
	}
	switch {
	case aux.UtilizationPercent != nil:
		s.UtilizationPercent = *aux.UtilizationPercent
	case aux.Unbounded:
		s.UtilizationPercent = math.Inf(1)
	}
	return nil
}

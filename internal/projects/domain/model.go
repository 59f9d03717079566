package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Budget holds the project's total and per-fiscal-quarter budgets. The fields
// are independently settable; the quarterly sum disagreeing with Total is a
// warning surfaced to callers, never an error.
type Budget struct {
	ProjectID string          `json:"project_id"`
	Total     decimal.Decimal `json:"total"`
	Q1        decimal.Decimal `json:"q1"`
	Q2        decimal.Decimal `json:"q2"`
	Q3        decimal.Decimal `json:"q3"`
	Q4        decimal.Decimal `json:"q4"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ForQuarter returns the budget for fiscal quarter q (1-4), zero otherwise.
func (b Budget) ForQuarter(q int) decimal.Decimal {
	switch q {
	case 1:
		return b.Q1
	case 2:
		return b.Q2
	case 3:
		return b.Q3
	case 4:
		return b.Q4
	default:
		return decimal.Zero
	}
}

// QuarterSum adds the four quarterly budgets.
func (b Budget) QuarterSum() decimal.Decimal {
	return b.Q1.Add(b.Q2).Add(b.Q3).Add(b.Q4)
}

// SumMatchesTotal reports whether the quarterly budgets add up to Total.
func (b Budget) SumMatchesTotal() bool {
	return b.QuarterSum().Equal(b.Total)
}

type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// SetBudgetRequest replaces the project's budget wholesale. Fields left out
// default to zero.
type SetBudgetRequest struct {
	Total decimal.Decimal `json:"total"`
	Q1    decimal.Decimal `json:"q1"`
	Q2    decimal.Decimal `json:"q2"`
	Q3    decimal.Decimal `json:"q3"`
	Q4    decimal.Decimal `json:"q4"`
}

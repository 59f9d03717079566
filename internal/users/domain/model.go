package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is an employee whose hours get billed. CurrentRate applies whenever no
// effective-dated rate change covers the date being resolved.
type User struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	CurrentRate decimal.Decimal `json:"current_rate"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// RateChange is an hourly rate taking effect at the start of EffectiveDate
// and staying in force until a later-dated change supersedes it.
type RateChange struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Rate          decimal.Decimal `json:"rate"`
	EffectiveDate time.Time       `json:"effective_date"`
	CreatedBy     string          `json:"created_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type CreateUserRequest struct {
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	CurrentRate decimal.Decimal `json:"current_rate"`
}

type UpdateUserRequest struct {
	Name        *string          `json:"name,omitempty"`
	Email       *string          `json:"email,omitempty"`
	CurrentRate *decimal.Decimal `json:"current_rate,omitempty"`
}

type CreateRateChangeRequest struct {
	Rate          decimal.Decimal `json:"rate"`
	EffectiveDate string          `json:"effective_date"`
	CreatedBy     string          `json:"created_by,omitempty"`
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimeEntry records hours a user worked on a project on a calendar day.
// Time of day never matters; EntryDate is stored at midnight UTC.
type TimeEntry struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	ProjectID string          `json:"project_id"`
	EntryDate time.Time       `json:"entry_date"`
	Hours     decimal.Decimal `json:"hours"`
	Note      string          `json:"note,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type CreateTimeEntryRequest struct {
	UserID    string          `json:"user_id"`
	EntryDate string          `json:"entry_date"`
	Hours     decimal.Decimal `json:"hours"`
	Note      string          `json:"note,omitempty"`
}

type UpdateTimeEntryRequest struct {
	EntryDate *string          `json:"entry_date,omitempty"`
	Hours     *decimal.Decimal `json:"hours,omitempty"`
	Note      *string          `json:"note,omitempty"`
}

package domain

import (
	"time"

	"github.com/timeledger/timeledger-backend/internal/spending/budget"
)

// BudgetSnapshot is the persisted result of a budget recompute run: the
// status per fiscal quarter plus the total, as of ComputedAt. Snapshots are
// a cache of derived state; the authoritative numbers are always recomputable
// from entries, rates and budgets.
type BudgetSnapshot struct {
	ProjectID  string                `json:"project_id"`
	Quarters   map[int]budget.Status `json:"quarters"`
	Total      budget.Status         `json:"total"`
	Valid      bool                  `json:"valid"`
	Warning    string                `json:"warning,omitempty"`
	ComputedAt time.Time             `json:"computed_at"`
}

// Package aggregate turns time entries into cost-bucketed spending matrices.
//
// Entries that fail validation are recorded as data-quality errors and the
// run continues; aggregates stay usable alongside a non-empty error list.
// Accumulation is associative and commutative over entries, so batches may be
// partitioned, aggregated independently and merged.
package aggregate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/timeledger/timeledger-backend/internal/spending/fiscal"
	timedomain "github.com/timeledger/timeledger-backend/internal/timeentries/domain"
	usersdomain "github.com/timeledger/timeledger-backend/internal/users/domain"
)

// RateFn resolves the hourly rate in force for a user on a date. A rates.Book
// bound to a snapshot satisfies this directly.
type RateFn func(userID string, date time.Time) (decimal.Decimal, error)

// Rejection reasons attached to entries the run refused to book.
const (
	ReasonHoursNotPositive = "hours must be positive"
	ReasonMissingUser      = "missing user id"
	ReasonInvalidDate      = "missing or invalid date"
	ReasonUnknownUser      = "user not found"
	ReasonNegativeRate     = "negative resolved rate"
)

// EntryError is one rejected entry and why.
type EntryError struct {
	EntryID   string `json:"entry_id"`
	UserID    string `json:"user_id,omitempty"`
	ProjectID string `json:"project_id,omitempty"`
	Reason    string `json:"reason"`
}

// Key addresses the combined employee-by-project matrix.
type Key struct {
	UserID    string
	ProjectID string
}

func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.UserID + "|" + k.ProjectID), nil
}

func (k *Key) UnmarshalText(text []byte) error {
	user, project, ok := strings.Cut(string(text), "|")
	if !ok {
		return fmt.Errorf("malformed bucket key %q", text)
	}
	k.UserID, k.ProjectID = user, project
	return nil
}

// Result carries the four spending matrices plus the rejected-entry list.
// The run is clean only when Errors is empty, but the numbers are best-effort
// usable either way.
type Result struct {
	PerEmployee map[string]*Buckets `json:"per_employee"`
	PerProject  map[string]*Buckets `json:"per_project"`
	Combined    map[Key]*Buckets    `json:"combined"`
	Totals      *Buckets            `json:"totals"`
	Errors      []EntryError        `json:"errors,omitempty"`
}

func newResult() *Result {
	return &Result{
		PerEmployee: make(map[string]*Buckets),
		PerProject:  make(map[string]*Buckets),
		Combined:    make(map[Key]*Buckets),
		Totals:      NewBuckets(),
	}
}

// Spending aggregates the entries under the given rate resolution. Rejected
// entries land in Result.Errors; nothing aborts the run.
func Spending(entries []timedomain.TimeEntry, rate RateFn) *Result {
	res := newResult()
	for _, e := range entries {
		res.consume(e, rate)
	}
	return res
}

// Valid reports whether every entry was booked.
func (r *Result) Valid() bool {
	return len(r.Errors) == 0
}

// Merge folds o into r. Merging partition results is equivalent to a single
// run over the union of their entries.
func (r *Result) Merge(o *Result) {
	if o == nil {
		return
	}
	for id, b := range o.PerEmployee {
		employeeBuckets(r, id).Merge(b)
	}
	for id, b := range o.PerProject {
		projectBuckets(r, id).Merge(b)
	}
	for k, b := range o.Combined {
		combinedBuckets(r, k).Merge(b)
	}
	r.Totals.Merge(o.Totals)
	r.Errors = append(r.Errors, o.Errors...)
}

func (r *Result) consume(e timedomain.TimeEntry, rate RateFn) {
	reject := func(reason string) {
		r.Errors = append(r.Errors, EntryError{
			EntryID:   e.ID,
			UserID:    e.UserID,
			ProjectID: e.ProjectID,
			Reason:    reason,
		})
	}

	if e.Hours.Sign() <= 0 {
		reject(ReasonHoursNotPositive)
		return
	}
	userID := strings.TrimSpace(e.UserID)
	if userID == "" {
		reject(ReasonMissingUser)
		return
	}
	quarter, err := fiscal.QuarterOf(e.EntryDate)
	if err != nil {
		reject(ReasonInvalidDate)
		return
	}
	monthKey, err := fiscal.MonthKeyOf(e.EntryDate)
	if err != nil {
		reject(ReasonInvalidDate)
		return
	}

	hourly, err := rate(userID, e.EntryDate)
	if err != nil {
		switch {
		case errors.Is(err, usersdomain.ErrNotFound):
			reject(ReasonUnknownUser)
		case errors.Is(err, fiscal.ErrInvalidDate):
			reject(ReasonInvalidDate)
		default:
			reject("rate resolution failed: " + err.Error())
		}
		return
	}
	if hourly.Sign() < 0 {
		reject(ReasonNegativeRate)
		return
	}

	cost := e.Hours.Mul(hourly)
	employeeBuckets(r, userID).Add(monthKey, quarter, e.Hours, cost)
	projectBuckets(r, e.ProjectID).Add(monthKey, quarter, e.Hours, cost)
	combinedBuckets(r, Key{UserID: userID, ProjectID: e.ProjectID}).Add(monthKey, quarter, e.Hours, cost)
	r.Totals.Add(monthKey, quarter, e.Hours, cost)
}

func employeeBuckets(r *Result, id string) *Buckets {
	b, ok := r.PerEmployee[id]
	if !ok {
		b = NewBuckets()
		r.PerEmployee[id] = b
	}
	return b
}

func projectBuckets(r *Result, id string) *Buckets {
	b, ok := r.PerProject[id]
	if !ok {
		b = NewBuckets()
		r.PerProject[id] = b
	}
	return b
}

func combinedBuckets(r *Result, k Key) *Buckets {
	b, ok := r.Combined[k]
	if !ok {
		b = NewBuckets()
		r.Combined[k] = b
	}
	return b
}

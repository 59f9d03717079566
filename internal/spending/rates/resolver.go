// Package rates answers "what hourly rate applied for this user on this day".
//
// Rate changes form a flat effective-dated list: each change applies from the
// start of its effective date until a later-dated change supersedes it. The
// resolver picks the entry with the greatest effective date not after the
// query date and falls back to the user's current rate when none qualifies.
package rates

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/timeledger/timeledger-backend/internal/spending/fiscal"
	usersdomain "github.com/timeledger/timeledger-backend/internal/users/domain"
)

// Source is the slice of the user store the resolver needs.
type Source interface {
	GetUser(ctx context.Context, id string) (*usersdomain.User, error)
	RateHistory(ctx context.Context, userID string) ([]usersdomain.RateChange, error)
}

type Resolver struct {
	src Source
}

func NewResolver(src Source) *Resolver {
	return &Resolver{src: src}
}

// EffectiveRate resolves the rate in force for the user on the given date.
// Returns usersdomain.ErrNotFound when the user does not exist and
// fiscal.ErrInvalidDate for a zero date.
func (r *Resolver) EffectiveRate(ctx context.Context, userID string, date time.Time) (decimal.Decimal, error) {
	if date.IsZero() {
		return decimal.Zero, fiscal.ErrInvalidDate
	}
	if strings.TrimSpace(userID) == "" {
		return decimal.Zero, usersdomain.ErrNotFound
	}
	u, err := r.src.GetUser(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get user %s: %w", userID, err)
	}
	hist, err := r.src.RateHistory(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("rate history for %s: %w", userID, err)
	}
	sortHistory(hist)
	return pick(hist, u.CurrentRate, date), nil
}

// Snapshot prefetches users and sorted rate history for the given IDs so a
// batch of entries can be resolved in memory without further store round
// trips. Unknown users are left out of the snapshot rather than failing the
// whole batch; resolving against them reports ErrNotFound per lookup.
func (r *Resolver) Snapshot(ctx context.Context, userIDs []string) (*Book, error) {
	b := &Book{
		users: make(map[string]*usersdomain.User),
		hist:  make(map[string][]usersdomain.RateChange),
	}
	seen := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		u, err := r.src.GetUser(ctx, id)
		if err != nil {
			if errors.Is(err, usersdomain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get user %s: %w", id, err)
		}
		hist, err := r.src.RateHistory(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("rate history for %s: %w", id, err)
		}
		sortHistory(hist)
		b.users[id] = u
		b.hist[id] = hist
	}
	return b, nil
}

// Book is an immutable in-memory snapshot of users and their rate history.
type Book struct {
	users map[string]*usersdomain.User
	hist  map[string][]usersdomain.RateChange
}

// EffectiveRate resolves against the snapshot. Signature matches
// aggregate.RateFn so a Book can feed an aggregation run directly.
func (b *Book) EffectiveRate(userID string, date time.Time) (decimal.Decimal, error) {
	if date.IsZero() {
		return decimal.Zero, fiscal.ErrInvalidDate
	}
	u, ok := b.users[userID]
	if !ok {
		return decimal.Zero, usersdomain.ErrNotFound
	}
	return pick(b.hist[userID], u.CurrentRate, date), nil
}

// Users returns the snapshotted users keyed by ID.
func (b *Book) Users() map[string]*usersdomain.User {
	return b.users
}

func sortHistory(hist []usersdomain.RateChange) {
	sort.SliceStable(hist, func(i, j int) bool {
		return hist[i].EffectiveDate.Before(hist[j].EffectiveDate)
	})
}

// pick finds the change with the greatest effective date <= date in an
// ascending-sorted history, or falls back to the current rate.
func pick(hist []usersdomain.RateChange, fallback decimal.Decimal, date time.Time) decimal.Decimal {
	// First index whose effective date is after the query date; the entry
	// just before it is the one in force.
	i := sort.Search(len(hist), func(i int) bool {
		return hist[i].EffectiveDate.After(date)
	})
	if i == 0 {
		return fallback
	}
	return hist[i-1].Rate
}

// Package service composes the spending engine over the store collaborators:
// it fetches projects, budgets, entries and rates, assembles reports, and
// keeps budget snapshots and the report cache in step with new writes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	projectsdomain "github.com/timeledger/timeledger-backend/internal/projects/domain"
	"github.com/timeledger/timeledger-backend/internal/spending/domain"
	"github.com/timeledger/timeledger-backend/internal/spending/rates"
	"github.com/timeledger/timeledger-backend/internal/spending/report"
	timedomain "github.com/timeledger/timeledger-backend/internal/timeentries/domain"
)

// ProjectSource is the slice of the project store the service needs.
type ProjectSource interface {
	GetProject(ctx context.Context, id string) (*projectsdomain.Project, error)
	GetBudget(ctx context.Context, projectID string) (*projectsdomain.Budget, error)
	ListProjectIDs(ctx context.Context) ([]string, error)
}

// EntrySource lists a project's time entries; nil bounds mean the whole
// history. The time-entry repository satisfies this directly.
type EntrySource interface {
	ListByProject(projectID string, from, to *time.Time) ([]timedomain.TimeEntry, error)
}

// SnapshotStore persists budget recompute results, latest per project.
type SnapshotStore interface {
	Upsert(ctx context.Context, snap *domain.BudgetSnapshot) error
	Get(ctx context.Context, projectID string) (*domain.BudgetSnapshot, error)
}

// ReportCache holds assembled reports keyed by project and as-of day. A Get
// miss is domain.ErrReportNotCached.
type ReportCache interface {
	Get(ctx context.Context, projectID string, asOf time.Time) (*report.ProjectReport, error)
	Put(ctx context.Context, rep *report.ProjectReport) error
	Invalidate(ctx context.Context, projectID string) error
	InvalidateAll(ctx context.Context) error
}

type Service struct {
	projects ProjectSource
	entries  EntrySource
	resolver *rates.Resolver
	snaps    SnapshotStore
	cache    ReportCache // nil disables caching

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(projects ProjectSource, entries EntrySource, rateSrc rates.Source, snaps SnapshotStore, cache ReportCache) *Service {
	return &Service{
		projects: projects,
		entries:  entries,
		resolver: rates.NewResolver(rateSrc),
		snaps:    snaps,
		cache:    cache,
		locks:    make(map[string]*sync.Mutex),
	}
}

// ResolveRate returns the hourly rate in force for the user on the date.
func (s *Service) ResolveRate(ctx context.Context, userID string, date time.Time) (decimal.Decimal, error) {
	return s.resolver.EffectiveRate(ctx, userID, date)
}

// BuildProjectReport assembles the spending report for a project as of the
// given day, consulting the cache first. A zero asOf means today.
func (s *Service) BuildProjectReport(ctx context.Context, projectID string, asOf time.Time) (*report.ProjectReport, error) {
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	asOf = midnight(asOf)

	if s.cache != nil {
		rep, err := s.cache.Get(ctx, projectID, asOf)
		if err == nil {
			return rep, nil
		}
		if !errors.Is(err, domain.ErrReportNotCached) {
			log.Printf("[report] cache read for project %s failed: %v", projectID, err)
		}
	}

	rep, err := s.assemble(ctx, projectID, asOf)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, rep); err != nil {
			log.Printf("[report] cache write for project %s failed: %v", projectID, err)
		}
	}
	return rep, nil
}

// RecomputeBudget re-evaluates the project's spend against its budget and
// persists the snapshot. Recomputes of the same project are serialized so two
// concurrent runs cannot interleave their reads and writes.
func (s *Service) RecomputeBudget(ctx context.Context, projectID string) (*domain.BudgetSnapshot, error) {
	unlock := s.lockProject(projectID)
	defer unlock()

	rep, err := s.assemble(ctx, projectID, midnight(time.Now().UTC()))
	if err != nil {
		return nil, err
	}

	snap := &domain.BudgetSnapshot{
		ProjectID:  projectID,
		Quarters:   rep.QuarterStatus,
		Total:      rep.TotalStatus,
		Valid:      rep.IsValid,
		Warning:    rep.BudgetWarning,
		ComputedAt: time.Now().UTC(),
	}
	if err := s.snaps.Upsert(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Failure is one project whose recompute failed; the rest of the fleet is
// unaffected.
type Failure struct {
	ProjectID string
	Err       error
}

// RecomputeAll recomputes every project's snapshot, isolating failures per
// project. Returns how many projects succeeded.
func (s *Service) RecomputeAll(ctx context.Context) (int, []Failure) {
	ids, err := s.projects.ListProjectIDs(ctx)
	if err != nil {
		return 0, []Failure{{Err: fmt.Errorf("list projects: %w", err)}}
	}

	done := 0
	var failures []Failure
	for _, id := range ids {
		if _, err := s.RecomputeBudget(ctx, id); err != nil {
			failures = append(failures, Failure{ProjectID: id, Err: err})
			continue
		}
		done++
	}
	return done, failures
}

// BudgetStatus returns the project's latest persisted snapshot, computing and
// persisting one when none exists yet.
func (s *Service) BudgetStatus(ctx context.Context, projectID string) (*domain.BudgetSnapshot, error) {
	snap, err := s.snaps.Get(ctx, projectID)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, domain.ErrSnapshotNotFound) {
		return nil, err
	}
	return s.RecomputeBudget(ctx, projectID)
}

// InvalidateProject drops the project's cached reports. Entry and budget
// writes call this so the next read reflects them.
func (s *Service) InvalidateProject(ctx context.Context, projectID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, projectID); err != nil {
		log.Printf("[report] invalidate project %s: %v", projectID, err)
	}
}

// InvalidateAllReports drops every cached report. A rate change can reprice
// any project the user ever booked time on, so everything cached is suspect.
func (s *Service) InvalidateAllReports(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Printf("[report] invalidate all: %v", err)
	}
}

func (s *Service) assemble(ctx context.Context, projectID string, asOf time.Time) (*report.ProjectReport, error) {
	p, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	b, err := s.budgetOrZero(ctx, projectID)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries.ListByProject(projectID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("list entries for project %s: %w", projectID, err)
	}
	book, err := s.resolver.Snapshot(ctx, userIDs(entries))
	if err != nil {
		return nil, err
	}
	return report.Build(report.Input{
		Project: p,
		Entries: entries,
		Budget:  *b,
		AsOf:    asOf,
		Rates:   book.EffectiveRate,
		Users:   book.Users(),
	}), nil
}

// budgetOrZero reports a project with no stored budget against zero budgets
// instead of failing; the evaluator's zero-budget cases cover it.
func (s *Service) budgetOrZero(ctx context.Context, projectID string) (*projectsdomain.Budget, error) {
	b, err := s.projects.GetBudget(ctx, projectID)
	if err != nil {
		if errors.Is(err, projectsdomain.ErrBudgetNotFound) {
			return &projectsdomain.Budget{ProjectID: projectID}, nil
		}
		return nil, err
	}
	return b, nil
}

func (s *Service) lockProject(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func userIDs(entries []timedomain.TimeEntry) []string {
	seen := make(map[string]struct{}, len(entries))
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.UserID]; ok {
			continue
		}
		seen[e.UserID] = struct{}{}
		ids = append(ids, e.UserID)
	}
	sort.Strings(ids)
	return ids
}

func midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

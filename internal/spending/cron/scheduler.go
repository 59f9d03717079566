// Package cronjob schedules the nightly budget recompute across all
// projects, so snapshots and burn projections never go more than a day
// stale even without writes.
package cronjob

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/timeledger/timeledger-backend/internal/spending/service"
)

// Recomputer is the slice of the spending service the scheduler drives.
type Recomputer interface {
	RecomputeAll(ctx context.Context) (int, []service.Failure)
}

type Scheduler struct {
	spec string
	rec  Recomputer
	c    *cron.Cron
}

// NewScheduler builds a scheduler running the recompute on the given
// six-field cron spec (e.g. "0 0 0 * * *" for midnight).
func NewScheduler(spec string, rec Recomputer) *Scheduler {
	return &Scheduler{spec: spec, rec: rec}
}

// Start initializes cron tasks
func (s *Scheduler) Start() {
	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc(s.spec, func() {
		s.runRecompute()
	})
	if err != nil {
		log.Printf("[cron] failed to create recompute job: %v", err)
		return
	}

	log.Printf("[cron] scheduler started (recompute spec %q)", s.spec)
	c.Start()
	s.c = c
}

// Stop halts the scheduler; a recompute already running finishes.
func (s *Scheduler) Stop() {
	if s.c != nil {
		s.c.Stop()
	}
}

func (s *Scheduler) runRecompute() {
	log.Println("[cron] nightly budget recompute started")
	start := time.Now()

	done, failures := s.rec.RecomputeAll(context.Background())
	for _, f := range failures {
		if f.ProjectID == "" {
			log.Printf("[cron] recompute aborted: %v", f.Err)
			return
		}
		log.Printf("[cron] recompute failed for project %s: %v", f.ProjectID, f.Err)
	}

	log.Printf("[cron] recompute completed: %d projects in %s (%d failed)",
		done, time.Since(start).Round(time.Millisecond), len(failures))
}

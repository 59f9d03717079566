package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/timeledger/timeledger-backend/internal/spending/domain"
	"github.com/timeledger/timeledger-backend/internal/spending/report"
)

const (
	reportKeyPrefix     = "spend:report:"  // Cached report: spend:report:{project_id}:{as_of}
	projectIndexPrefix  = "spend:project:" // Set of cached report keys: spend:project:{project_id}:reports
	cachedProjectSetKey = "spend:projects" // Set of project IDs with cached reports
	reportTTL           = 24 * time.Hour
)

// ReportCache keeps assembled project reports in Redis so repeated reads for
// the same project and as-of date skip the full recompute. Writes to entries,
// rates or budgets must invalidate the affected project.
type ReportCache struct {
	client *redis.Client
}

func NewReportCache(client *redis.Client) *ReportCache {
	return &ReportCache{client: client}
}

// Get returns the cached report or domain.ErrReportNotCached.
func (c *ReportCache) Get(ctx context.Context, projectID string, asOf time.Time) (*report.ProjectReport, error) {
	data, err := c.client.Get(ctx, c.reportKey(projectID, asOf)).Result()
	if err == redis.Nil {
		return nil, domain.ErrReportNotCached
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached report: %w", err)
	}

	var rep report.ProjectReport
	if err := json.Unmarshal([]byte(data), &rep); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached report: %w", err)
	}
	return &rep, nil
}

// Put stores the report and indexes its key for later invalidation.
func (c *ReportCache) Put(ctx context.Context, rep *report.ProjectReport) error {
	if rep == nil || rep.Project == nil {
		return fmt.Errorf("report without a project cannot be cached")
	}

	data, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	key := c.reportKey(rep.Project.ID, rep.AsOf)
	indexKey := c.projectIndexKey(rep.Project.ID)

	pipe := c.client.Pipeline()
	pipe.Set(ctx, key, data, reportTTL)
	pipe.SAdd(ctx, indexKey, key)
	pipe.Expire(ctx, indexKey, reportTTL)
	pipe.SAdd(ctx, cachedProjectSetKey, rep.Project.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache report: %w", err)
	}
	return nil
}

// Invalidate drops every cached report for the project.
func (c *ReportCache) Invalidate(ctx context.Context, projectID string) error {
	indexKey := c.projectIndexKey(projectID)

	keys, err := c.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return fmt.Errorf("failed to list cached reports: %w", err)
	}

	pipe := c.client.Pipeline()
	if len(keys) > 0 {
		pipe.Del(ctx, keys...)
	}
	pipe.Del(ctx, indexKey)
	pipe.SRem(ctx, cachedProjectSetKey, projectID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to invalidate reports: %w", err)
	}
	return nil
}

// InvalidateAll drops cached reports for every project, for rate changes
// that can reprice any project's history.
func (c *ReportCache) InvalidateAll(ctx context.Context) error {
	projectIDs, err := c.client.SMembers(ctx, cachedProjectSetKey).Result()
	if err != nil {
		return fmt.Errorf("failed to list cached projects: %w", err)
	}

	for _, id := range projectIDs {
		if err := c.Invalidate(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (c *ReportCache) reportKey(projectID string, asOf time.Time) string {
	return fmt.Sprintf("%s%s:%s", reportKeyPrefix, projectID, asOf.UTC().Format("2006-01-02"))
}

func (c *ReportCache) projectIndexKey(projectID string) string {
	return fmt.Sprintf("%s%s:reports", projectIndexPrefix, projectID)
}

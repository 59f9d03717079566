package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/timeledger/timeledger-backend/internal/spending/budget"
	"github.com/timeledger/timeledger-backend/internal/spending/domain"
)

// SnapshotRepo persists one budget status snapshot per project. The status
// breakdown rides in a jsonb column; the latest recompute wins.
type SnapshotRepo struct {
	db *pgxpool.Pool
}

func NewSnapshotRepo(db *pgxpool.Pool) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

func (r *SnapshotRepo) Upsert(ctx context.Context, snap *domain.BudgetSnapshot) error {
	const q = `
insert into budget_status_snapshots (project_id, quarters, total, is_valid, warning, computed_at)
values ($1, $2, $3, $4, $5, $6)
on conflict (project_id) do update set
    quarters    = excluded.quarters,
    total       = excluded.total,
    is_valid    = excluded.is_valid,
    warning     = excluded.warning,
    computed_at = excluded.computed_at;
`
	quarters, err := json.Marshal(snap.Quarters)
	if err != nil {
		return fmt.Errorf("marshal quarter statuses: %w", err)
	}
	total, err := json.Marshal(snap.Total)
	if err != nil {
		return fmt.Errorf("marshal total status: %w", err)
	}

	_, err = r.db.Exec(ctx, q,
		snap.ProjectID, quarters, total, snap.Valid, snap.Warning, snap.ComputedAt)
	if err != nil {
		return fmt.Errorf("upsert snapshot for project %s: %w", snap.ProjectID, err)
	}
	return nil
}

func (r *SnapshotRepo) Get(ctx context.Context, projectID string) (*domain.BudgetSnapshot, error) {
	const q = `
select project_id, quarters, total, is_valid, coalesce(warning, ''), computed_at
from budget_status_snapshots
where project_id = $1;
`
	var snap domain.BudgetSnapshot
	var quarters, total []byte
	err := r.db.QueryRow(ctx, q, projectID).
		Scan(&snap.ProjectID, &quarters, &total, &snap.Valid, &snap.Warning, &snap.ComputedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("get snapshot for project %s: %w", projectID, err)
	}

	snap.Quarters = make(map[int]budget.Status, 4)
	if err := json.Unmarshal(quarters, &snap.Quarters); err != nil {
		return nil, fmt.Errorf("unmarshal quarter statuses: %w", err)
	}
	if err := json.Unmarshal(total, &snap.Total); err != nil {
		return nil, fmt.Errorf("unmarshal total status: %w", err)
	}
	return &snap, nil
}

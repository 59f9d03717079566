package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/timeledger/timeledger-backend/internal/projects/domain"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, req domain.CreateProjectRequest) (*domain.Project, error) {
	const q = `
insert into projects (id, name, description)
values ($1, $2, $3)
returning created_at, updated_at;
`
	p := domain.Project{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
	}
	err := r.db.QueryRow(ctx, q, p.ID, p.Name, p.Description).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	const q = `
select id, name, coalesce(description, ''), created_at, updated_at
from projects
where id = $1;
`
	var p domain.Project
	err := r.db.QueryRow(ctx, q, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repo) List(ctx context.Context) ([]domain.Project, error) {
	const q = `
select id, name, coalesce(description, ''), created_at, updated_at
from projects
order by name, id;
`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Project, 0, 16)
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListProjectIDs returns every project id, for whole-fleet recomputes.
func (r *Repo) ListProjectIDs(ctx context.Context) ([]string, error) {
	const q = `select id from projects order by id;`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0, 16)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *Repo) Update(ctx context.Context, id string, req domain.UpdateProjectRequest) (*domain.Project, error) {
	const q = `
update projects
set name        = coalesce($2, name),
    description = coalesce($3, description),
    updated_at  = now()
where id = $1
returning id, name, coalesce(description, ''), created_at, updated_at;
`
	var p domain.Project
	err := r.db.QueryRow(ctx, q, id, req.Name, req.Description).
		Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// SetBudget replaces the project's budget wholesale. Quarterly figures and
// the total are stored as given; whether they agree is the caller's warning
// to surface, not a constraint here.
func (r *Repo) SetBudget(ctx context.Context, projectID string, req domain.SetBudgetRequest) (*domain.Budget, error) {
	const q = `
insert into budgets (project_id, total, q1, q2, q3, q4)
values ($1, $2::numeric, $3::numeric, $4::numeric, $5::numeric, $6::numeric)
on conflict (project_id) do update set
    total      = excluded.total,
    q1         = excluded.q1,
    q2         = excluded.q2,
    q3         = excluded.q3,
    q4         = excluded.q4,
    updated_at = now()
returning updated_at;
`
	b := domain.Budget{
		ProjectID: projectID,
		Total:     req.Total,
		Q1:        req.Q1,
		Q2:        req.Q2,
		Q3:        req.Q3,
		Q4:        req.Q4,
	}
	err := r.db.QueryRow(ctx, q, projectID,
		b.Total.String(), b.Q1.String(), b.Q2.String(), b.Q3.String(), b.Q4.String()).
		Scan(&b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repo) GetBudget(ctx context.Context, projectID string) (*domain.Budget, error) {
	const q = `
select project_id, total::text, q1::text, q2::text, q3::text, q4::text, updated_at
from budgets
where project_id = $1;
`
	var b domain.Budget
	var total, q1, q2, q3, q4 string
	err := r.db.QueryRow(ctx, q, projectID).
		Scan(&b.ProjectID, &total, &q1, &q2, &q3, &q4, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBudgetNotFound
		}
		return nil, err
	}
	for _, f := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&b.Total, total}, {&b.Q1, q1}, {&b.Q2, q2}, {&b.Q3, q3}, {&b.Q4, q4},
	} {
		d, err := decimal.NewFromString(f.src)
		if err != nil {
			return nil, fmt.Errorf("parse budget for project %s: %w", projectID, err)
		}
		*f.dst = d
	}
	return &b, nil
}

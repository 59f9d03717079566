package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/timeledger/timeledger-backend/internal/users/domain"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	const q = `
insert into users (id, name, email, current_rate)
values ($1, $2, $3, $4::numeric)
returning created_at, updated_at;
`
	u := domain.User{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Email:       req.Email,
		CurrentRate: req.CurrentRate,
	}
	err := r.db.QueryRow(ctx, q, u.ID, u.Name, u.Email, u.CurrentRate.String()).
		Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repo) GetUser(ctx context.Context, id string) (*domain.User, error) {
	const q = `
select id, name, email, current_rate::text, created_at, updated_at
from users
where id = $1;
`
	return scanUser(r.db.QueryRow(ctx, q, id))
}

func (r *Repo) List(ctx context.Context) ([]domain.User, error) {
	const q = `
select id, name, email, current_rate::text, created_at, updated_at
from users
order by name, id;
`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.User, 0, 16)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *Repo) Update(ctx context.Context, id string, req domain.UpdateUserRequest) (*domain.User, error) {
	const q = `
update users
set name         = coalesce($2, name),
    email        = coalesce($3, email),
    current_rate = coalesce($4::numeric, current_rate),
    updated_at   = now()
where id = $1
returning id, name, email, current_rate::text, created_at, updated_at;
`
	var rate *string
	if req.CurrentRate != nil {
		s := req.CurrentRate.String()
		rate = &s
	}
	u, err := scanUser(r.db.QueryRow(ctx, q, id, req.Name, req.Email, rate))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

// AddRateChange records an effective-dated rate change. The (user_id,
// effective_date) pair is unique; a second change for the same day is
// rejected rather than silently superseded.
func (r *Repo) AddRateChange(ctx context.Context, rc *domain.RateChange) error {
	const q = `
insert into rate_history (id, user_id, rate, effective_date, created_by)
values ($1, $2, $3::numeric, $4, $5)
returning created_at;
`
	if rc.ID == "" {
		rc.ID = uuid.New().String()
	}
	err := r.db.QueryRow(ctx, q,
		rc.ID, rc.UserID, rc.Rate.String(), rc.EffectiveDate, rc.CreatedBy).
		Scan(&rc.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return domain.ErrDuplicateRateDate
			case "23503":
				return domain.ErrNotFound
			}
		}
		return err
	}
	return nil
}

// RateHistory returns the user's rate changes ordered by effective date.
func (r *Repo) RateHistory(ctx context.Context, userID string) ([]domain.RateChange, error) {
	const q = `
select id, user_id, rate::text, effective_date, coalesce(created_by, ''), created_at
from rate_history
where user_id = $1
order by effective_date;
`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.RateChange, 0, 8)
	for rows.Next() {
		var rc domain.RateChange
		var rate string
		if err := rows.Scan(&rc.ID, &rc.UserID, &rate, &rc.EffectiveDate, &rc.CreatedBy, &rc.CreatedAt); err != nil {
			return nil, err
		}
		rc.Rate, err = decimal.NewFromString(rate)
		if err != nil {
			return nil, fmt.Errorf("parse rate for change %s: %w", rc.ID, err)
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var rate string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &rate, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	d, err := decimal.NewFromString(rate)
	if err != nil {
		return nil, fmt.Errorf("parse current_rate for user %s: %w", u.ID, err)
	}
	u.CurrentRate = d
	return &u, nil
}

package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/timeledger/timeledger-backend/internal/timeentries/domain"
)

// TimeEntryRepository handles PostgreSQL operations for time entries
type TimeEntryRepository struct {
	db *sql.DB
}

// NewTimeEntryRepository creates a new TimeEntryRepository
func NewTimeEntryRepository(db *sql.DB) *TimeEntryRepository {
	return &TimeEntryRepository{db: db}
}

// Create inserts a time entry, generating an id when none is provided
func (r *TimeEntryRepository) Create(entry *domain.TimeEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	query := `
		INSERT INTO time_entries (id, user_id, project_id, entry_date, hours, note)
		VALUES ($1, $2, $3, $4, $5::numeric, $6)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		entry.ID,
		entry.UserID,
		entry.ProjectID,
		entry.EntryDate,
		entry.Hours.String(),
		entry.Note,
	).Scan(&entry.CreatedAt, &entry.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return domain.ErrBadReference
		}
		return fmt.Errorf("failed to create time entry: %w", err)
	}

	return nil
}

// GetByID retrieves a time entry by its id
func (r *TimeEntryRepository) GetByID(id string) (*domain.TimeEntry, error) {
	query := `
		SELECT id, user_id, project_id, entry_date, hours::text, COALESCE(note, ''),
		       created_at, updated_at
		FROM time_entries
		WHERE id = $1
	`

	entry, err := scanEntry(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get time entry: %w", err)
	}

	return entry, nil
}

// ListByProject returns a project's entries, optionally bounded by an
// inclusive date range. Nil bounds mean unbounded on that side.
func (r *TimeEntryRepository) ListByProject(projectID string, from, to *time.Time) ([]domain.TimeEntry, error) {
	query := `
		SELECT id, user_id, project_id, entry_date, hours::text, COALESCE(note, ''),
		       created_at, updated_at
		FROM time_entries
		WHERE project_id = $1
		  AND ($2::date IS NULL OR entry_date >= $2)
		  AND ($3::date IS NULL OR entry_date <= $3)
		ORDER BY entry_date, created_at
	`

	rows, err := r.db.Query(query, projectID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list time entries: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.TimeEntry, 0, 32)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan time entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// Update applies the non-nil fields of the request
func (r *TimeEntryRepository) Update(id string, entryDate *time.Time, hours *decimal.Decimal, note *string) (*domain.TimeEntry, error) {
	query := `
		UPDATE time_entries
		SET entry_date = COALESCE($2, entry_date),
		    hours      = COALESCE($3::numeric, hours),
		    note       = COALESCE($4, note),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id, user_id, project_id, entry_date, hours::text, COALESCE(note, ''),
		          created_at, updated_at
	`

	var hoursArg *string
	if hours != nil {
		s := hours.String()
		hoursArg = &s
	}

	entry, err := scanEntry(r.db.QueryRow(query, id, entryDate, hoursArg, note))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update time entry: %w", err)
	}

	return entry, nil
}

// Delete removes a time entry
func (r *TimeEntryRepository) Delete(id string) error {
	query := `DELETE FROM time_entries WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete time entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete time entry: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*domain.TimeEntry, error) {
	var entry domain.TimeEntry
	var hours string
	err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.ProjectID,
		&entry.EntryDate,
		&hours,
		&entry.Note,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	entry.Hours, err = decimal.NewFromString(hours)
	if err != nil {
		return nil, fmt.Errorf("parse hours for entry %s: %w", entry.ID, err)
	}
	return &entry, nil
}

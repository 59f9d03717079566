package repository_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timeledger/timeledger-backend/internal/timeentries/domain"
	"github.com/timeledger/timeledger-backend/internal/timeentries/repository"
)

func setupEntryRepo(t *testing.T) (*repository.TimeEntryRepository, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := repository.NewTimeEntryRepository(db)
	return repo, mock, db
}

func entryColumns() []string {
	return []string{
		"id", "user_id", "project_id", "entry_date", "hours", "note",
		"created_at", "updated_at",
	}
}

func TestTimeEntryRepository_Create(t *testing.T) {
	repo, mock, db := setupEntryRepo(t)
	defer db.Close()

	t.Run("creates entry and generates an id", func(t *testing.T) {
		entry := &domain.TimeEntry{
			UserID:    "user-1",
			ProjectID: "project-1",
			EntryDate: time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC),
			Hours:     decimal.RequireFromString("7.5"),
			Note:      "sprint work",
		}

		mock.ExpectQuery(`INSERT INTO time_entries`).
			WithArgs(
				sqlmock.AnyArg(), // id (UUID)
				"user-1",
				"project-1",
				entry.EntryDate,
				"7.5",
				"sprint work",
			).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).
				AddRow(time.Now(), time.Now()))

		err := repo.Create(entry)
		require.NoError(t, err)
		assert.NotEmpty(t, entry.ID)
		assert.False(t, entry.CreatedAt.IsZero())

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("keeps a caller-provided id", func(t *testing.T) {
		entry := &domain.TimeEntry{
			ID:        "existing-uuid",
			UserID:    "user-1",
			ProjectID: "project-1",
			EntryDate: time.Date(2024, time.April, 11, 0, 0, 0, 0, time.UTC),
			Hours:     decimal.RequireFromString("2"),
		}

		mock.ExpectQuery(`INSERT INTO time_entries`).
			WithArgs("existing-uuid", "user-1", "project-1", entry.EntryDate, "2", "").
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).
				AddRow(time.Now(), time.Now()))

		err := repo.Create(entry)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTimeEntryRepository_GetByID(t *testing.T) {
	repo, mock, db := setupEntryRepo(t)
	defer db.Close()

	t.Run("gets entry successfully", func(t *testing.T) {
		entryDate := time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC)
		mock.ExpectQuery(`SELECT id, user_id, project_id`).
			WithArgs("entry-1").
			WillReturnRows(sqlmock.NewRows(entryColumns()).
				AddRow("entry-1", "user-1", "project-1", entryDate, "7.5", "", time.Now(), time.Now()))

		entry, err := repo.GetByID("entry-1")
		require.NoError(t, err)
		assert.Equal(t, "user-1", entry.UserID)
		assert.True(t, entry.Hours.Equal(decimal.RequireFromString("7.5")))
		assert.Equal(t, entryDate, entry.EntryDate)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns domain error for missing entry", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, user_id, project_id`).
			WithArgs("ghost").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID("ghost")
		assert.Equal(t, domain.ErrNotFound, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTimeEntryRepository_ListByProject(t *testing.T) {
	repo, mock, db := setupEntryRepo(t)
	defer db.Close()

	t.Run("lists all entries without a range", func(t *testing.T) {
		d1 := time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC)
		d2 := time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC)
		mock.ExpectQuery(`SELECT id, user_id, project_id`).
			WithArgs("project-1", nil, nil).
			WillReturnRows(sqlmock.NewRows(entryColumns()).
				AddRow("e1", "user-1", "project-1", d1, "3", "", time.Now(), time.Now()).
				AddRow("e2", "user-2", "project-1", d2, "4.25", "review", time.Now(), time.Now()))

		entries, err := repo.ListByProject("project-1", nil, nil)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "e1", entries[0].ID)
		assert.True(t, entries[1].Hours.Equal(decimal.RequireFromString("4.25")))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("passes range bounds through", func(t *testing.T) {
		from := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC)
		mock.ExpectQuery(`SELECT id, user_id, project_id`).
			WithArgs("project-1", from, to).
			WillReturnRows(sqlmock.NewRows(entryColumns()))

		entries, err := repo.ListByProject("project-1", &from, &to)
		require.NoError(t, err)
		assert.Empty(t, entries)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTimeEntryRepository_Update(t *testing.T) {
	repo, mock, db := setupEntryRepo(t)
	defer db.Close()

	t.Run("updates only provided fields", func(t *testing.T) {
		entryDate := time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC)
		hours := decimal.RequireFromString("6")

		mock.ExpectQuery(`UPDATE time_entries`).
			WithArgs("entry-1", nil, "6", nil).
			WillReturnRows(sqlmock.NewRows(entryColumns()).
				AddRow("entry-1", "user-1", "project-1", entryDate, "6", "", time.Now(), time.Now()))

		entry, err := repo.Update("entry-1", nil, &hours, nil)
		require.NoError(t, err)
		assert.True(t, entry.Hours.Equal(hours))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns domain error for missing entry", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE time_entries`).
			WithArgs("ghost", nil, nil, nil).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.Update("ghost", nil, nil, nil)
		assert.Equal(t, domain.ErrNotFound, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTimeEntryRepository_Delete(t *testing.T) {
	repo, mock, db := setupEntryRepo(t)
	defer db.Close()

	t.Run("deletes entry", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM time_entries`).
			WithArgs("entry-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Delete("entry-1"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports missing entry", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM time_entries`).
			WithArgs("ghost").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete("ghost")
		assert.Equal(t, domain.ErrNotFound, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPGRepoGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, title, company, location, created_at, updated_at FROM jobs").
		WithArgs("job-123").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "company", "location", "created_at", "updated_at"}).
			AddRow("job-123", "Backend Engineer", "Acme", "Remote", now, now))

	repo := &PGRepo{DB: db}
	job, err := repo.GetByID(context.Background(), "job-123")
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", job.Title)
	assert.Equal(t, "Acme", job.Company)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("FROM jobs").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "company", "location", "created_at", "updated_at"}))

	repo := &PGRepo{DB: db}
	_, err = repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPGRepoGetByIDWrapsDriverError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("FROM jobs").WillReturnError(errors.New("conn reset"))

	repo := &PGRepo{DB: db}
	_, err = repo.GetByID(context.Background(), "job-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestPGRepoUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("INSERT INTO jobs").
		WithArgs("job-123", "Backend Engineer", "Acme", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := &PGRepo{DB: db}
	require.NoError(t, repo.Upsert(context.Background(), Job{ID: "job-123", Title: "Backend Engineer", Company: "Acme"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoUpsertRejectsInvalidJob(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	err = repo.Upsert(context.Background(), Job{ID: "job-1"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

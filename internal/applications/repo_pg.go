package applications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation      = "23505"
	trackTokenConstraint = "applications_track_token_key"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `id, job_id, name, email, phone, message, resume_key, summary_key, status, track_token, applied_at, updated_at`

// Create inserts a new application in a single statement.
func (r *PGRepo) Create(ctx context.Context, app Application) error {
	const query = `
INSERT INTO applications (
    id, job_id, name, email, phone, message, resume_key, summary_key, status, track_token, applied_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.DB.ExecContext(ctx, query,
		app.ID,
		app.JobID,
		app.Name,
		app.Email,
		app.Phone,
		app.Message,
		app.ResumeKey,
		app.SummaryKey,
		string(app.Status),
		app.TrackToken,
		app.AppliedAt,
		app.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == trackTokenConstraint {
			return ErrTokenConflict
		}
		return fmt.Errorf("%w: insert application: %w", ErrPersistence, err)
	}
	return nil
}

// GetByID returns an application by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Application, error) {
	if !validID(id) {
		return Application{}, ErrNotFound
	}
	query := `SELECT ` + selectColumns + ` FROM applications WHERE id = $1 LIMIT 1`
	return r.getOne(ctx, query, id)
}

// GetByTrackToken returns the application bound to token.
func (r *PGRepo) GetByTrackToken(ctx context.Context, token string) (Application, error) {
	query := `SELECT ` + selectColumns + ` FROM applications WHERE track_token = $1 LIMIT 1`
	return r.getOne(ctx, query, token)
}

func (r *PGRepo) getOne(ctx context.Context, query string, arg any) (Application, error) {
	app, err := scanApplication(r.DB.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Application{}, ErrNotFound
		}
		return Application{}, fmt.Errorf("%w: select application: %w", ErrPersistence, err)
	}
	return app, nil
}

// ListByJob returns applications for a job, newest first.
func (r *PGRepo) ListByJob(ctx context.Context, jobID string) ([]Application, error) {
	query := `SELECT ` + selectColumns + ` FROM applications WHERE job_id = $1 ORDER BY applied_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("%w: list applications: %w", ErrPersistence, err)
	}
	defer rows.Close()

	out := []Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan application: %w", ErrPersistence, err)
		}
		out = append(out, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list applications: %w", ErrPersistence, err)
	}
	return out, nil
}

// UpdateStatus sets the status when the current status equals from.
func (r *PGRepo) UpdateStatus(ctx context.Context, id string, from, to Status, at time.Time) error {
	if !validID(id) {
		return ErrNotFound
	}
	const query = `
UPDATE applications
SET status = $3, updated_at = $4
WHERE id = $1 AND status = $2`
	res, err := r.DB.ExecContext(ctx, query, id, string(from), string(to), at)
	if err != nil {
		return fmt.Errorf("%w: update status: %w", ErrPersistence, err)
	}
	return r.checkAffected(ctx, res, id, ErrStatusConflict)
}

// AttachSummary records the storage key of the generated summary.
func (r *PGRepo) AttachSummary(ctx context.Context, id, summaryKey string, at time.Time) error {
	if !validID(id) {
		return ErrNotFound
	}
	const query = `
UPDATE applications
SET summary_key = $2, updated_at = $3
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, id, summaryKey, at)
	if err != nil {
		return fmt.Errorf("%w: attach summary: %w", ErrPersistence, err)
	}
	return r.checkAffected(ctx, res, id, ErrNotFound)
}

// ListResumeKeys returns the resume key of every stored application.
func (r *PGRepo) ListResumeKeys(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT resume_key FROM applications`)
	if err != nil {
		return nil, fmt.Errorf("%w: list resume keys: %w", ErrPersistence, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("%w: scan resume key: %w", ErrPersistence, err)
		}
		out = append(out, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list resume keys: %w", ErrPersistence, err)
	}
	return out, nil
}

// checkAffected returns noMatch when the row exists but was not updated,
// and ErrNotFound when it does not exist.
func (r *PGRepo) checkAffected(ctx context.Context, res sql.Result, id string, noMatch error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %w", ErrPersistence, err)
	}
	if n > 0 {
		return nil
	}
	if noMatch == ErrNotFound {
		return ErrNotFound
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return noMatch
}

// validID reports whether id can be compared against the UUID primary key.
// Postgres rejects anything else with an input syntax error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (Application, error) {
	var app Application
	var status string
	err := row.Scan(
		&app.ID,
		&app.JobID,
		&app.Name,
		&app.Email,
		&app.Phone,
		&app.Message,
		&app.ResumeKey,
		&app.SummaryKey,
		&status,
		&app.TrackToken,
		&app.AppliedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		return Application{}, err
	}
	app.Status = Status(status)
	app.AppliedAt = app.AppliedAt.UTC()
	app.UpdatedAt = app.UpdatedAt.UTC()
	return app, nil
}

var _ Repo = (*PGRepo)(nil)

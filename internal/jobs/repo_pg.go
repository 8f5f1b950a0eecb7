package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// GetByID returns a job by ID.
func (r *PGRepo) GetByID(ctx context.Context, jobID string) (Job, error) {
	const query = `
SELECT id, title, company, location, created_at, updated_at
FROM jobs
WHERE id = $1
LIMIT 1`
	var job Job
	err := r.DB.QueryRowContext(ctx, query, jobID).Scan(
		&job.ID,
		&job.Title,
		&job.Company,
		&job.Location,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Job{}, ErrNotFound
		}
		return Job{}, fmt.Errorf("select job: %w", err)
	}
	return job, nil
}

// Upsert inserts the job or updates its title, company and location.
func (r *PGRepo) Upsert(ctx context.Context, job Job) error {
	if err := validate(job); err != nil {
		return err
	}
	const query = `
INSERT INTO jobs (id, title, company, location, created_at, updated_at)
VALUES ($1, $2, $3, $4, now(), now())
ON CONFLICT (id) DO UPDATE
SET title = EXCLUDED.title,
    company = EXCLUDED.company,
    location = EXCLUDED.location,
    updated_at = now()`
	if _, err := r.DB.ExecContext(ctx, query, job.ID, job.Title, job.Company, job.Location); err != nil {
		return fmt.Errorf("upsert job: %w", err)
	}
	return nil
}

// List returns all jobs ordered by ID.
func (r *PGRepo) List(ctx context.Context) ([]Job, error) {
	const query = `
SELECT id, title, company, location, created_at, updated_at
FROM jobs
ORDER BY id`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		var job Job
		if err := rows.Scan(&job.ID, &job.Title, &job.Company, &job.Location, &job.CreatedAt, &job.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)

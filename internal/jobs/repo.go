package jobs

import "context"

// Repo defines persistence operations for jobs.
type Repo interface {
	GetByID(ctx context.Context, jobID string) (Job, error)
	Upsert(ctx context.Context, job Job) error
	List(ctx context.Context) ([]Job, error)
}

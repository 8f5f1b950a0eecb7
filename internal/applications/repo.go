package applications

import (
	"context"
	"time"
)

// Repo defines persistence operations for applications.
//
// Create must reject a record whose TrackToken is already bound to another
// record with ErrTokenConflict, atomically with respect to concurrent creates.
type Repo interface {
	Create(ctx context.Context, app Application) error
	GetByID(ctx context.Context, id string) (Application, error)
	GetByTrackToken(ctx context.Context, token string) (Application, error)
	ListByJob(ctx context.Context, jobID string) ([]Application, error)
	UpdateStatus(ctx context.Context, id string, from, to Status, at time.Time) error
	AttachSummary(ctx context.Context, id, summaryKey string, at time.Time) error
	ListResumeKeys(ctx context.Context) ([]string, error)
}

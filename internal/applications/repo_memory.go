package applications

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores applications in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu      sync.RWMutex
	byID    map[string]Application
	byToken map[string]string
	byJob   map[string][]string
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:    make(map[string]Application),
		byToken: make(map[string]string),
		byJob:   make(map[string][]string),
	}
}

// Create stores the application unless its track token is already bound.
func (r *MemoryRepo) Create(ctx context.Context, app Application) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byToken[app.TrackToken]; taken {
		return ErrTokenConflict
	}
	if _, exists := r.byID[app.ID]; exists {
		return ErrInvalidInput
	}
	r.byID[app.ID] = app
	r.byToken[app.TrackToken] = app.ID
	r.byJob[app.JobID] = append(r.byJob[app.JobID], app.ID)
	return nil
}

// GetByID returns an application by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Application, error) {
	if err := ctx.Err(); err != nil {
		return Application{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.byID[id]
	if !ok {
		return Application{}, ErrNotFound
	}
	return app, nil
}

// GetByTrackToken returns the application bound to token.
func (r *MemoryRepo) GetByTrackToken(ctx context.Context, token string) (Application, error) {
	if err := ctx.Err(); err != nil {
		return Application{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byToken[token]
	if !ok {
		return Application{}, ErrNotFound
	}
	return r.byID[id], nil
}

// ListByJob returns applications for a job, newest first.
func (r *MemoryRepo) ListByJob(ctx context.Context, jobID string) ([]Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	ids := r.byJob[jobID]
	out := make([]Application, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.byID[id])
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AppliedAt.After(out[j].AppliedAt)
	})
	return out, nil
}

// UpdateStatus sets the status when the current status equals from.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, id string, from, to Status, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	if app.Status != from {
		return ErrStatusConflict
	}
	app.Status = to
	app.UpdatedAt = at
	r.byID[id] = app
	return nil
}

// AttachSummary records the storage key of the generated summary.
func (r *MemoryRepo) AttachSummary(ctx context.Context, id, summaryKey string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	app.SummaryKey = summaryKey
	app.UpdatedAt = at
	r.byID[id] = app
	return nil
}

// ListResumeKeys returns the resume key of every stored application.
func (r *MemoryRepo) ListResumeKeys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byID))
	for _, app := range r.byID {
		out = append(out, app.ResumeKey)
	}
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)

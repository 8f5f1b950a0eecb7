package applications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"quickapply-backend/internal/shared/telemetry"
)

const maxTokenAttempts = 5

// Service contains business logic for application records.
type Service struct {
	Repo Repo
	// Now and NewToken default to time.Now and NewTrackToken.
	Now      func() time.Time
	NewToken func() (string, error)
}

// Create persists a new application with a freshly minted track token.
// Token collisions are retried with a new token up to maxTokenAttempts times.
func (s *Service) Create(ctx context.Context, in NewApplication) (Application, error) {
	if strings.TrimSpace(in.JobID) == "" || strings.TrimSpace(in.Name) == "" ||
		strings.TrimSpace(in.Email) == "" || strings.TrimSpace(in.ResumeKey) == "" {
		return Application{}, ErrInvalidInput
	}

	now := s.now()
	app := Application{
		ID:        uuid.NewString(),
		JobID:     in.JobID,
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Message:   in.Message,
		ResumeKey: in.ResumeKey,
		Status:    StatusSubmitted,
		AppliedAt: now,
		UpdatedAt: now,
	}

	for attempt := 1; attempt <= maxTokenAttempts; attempt++ {
		token, err := s.newToken()
		if err != nil {
			return Application{}, fmt.Errorf("%w: mint track token: %w", ErrPersistence, err)
		}
		app.TrackToken = token

		err = s.Repo.Create(ctx, app)
		if err == nil {
			return app, nil
		}
		if !errors.Is(err, ErrTokenConflict) {
			return Application{}, persistenceErr("create application", err)
		}
		telemetry.Warn("applications.token_conflict", map[string]any{
			"application_id": app.ID,
			"attempt":        attempt,
		})
	}
	return Application{}, fmt.Errorf("%w: %w after %d attempts", ErrPersistence, ErrTokenConflict, maxTokenAttempts)
}

// FindByTrackToken resolves a track token. Unknown and malformed tokens yield ErrNotFound.
func (s *Service) FindByTrackToken(ctx context.Context, token string) (Application, error) {
	if !WellFormedToken(token) {
		return Application{}, ErrNotFound
	}
	app, err := s.Repo.GetByTrackToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Application{}, ErrNotFound
		}
		return Application{}, persistenceErr("find by track token", err)
	}
	return app, nil
}

// Get returns an application by ID.
func (s *Service) Get(ctx context.Context, id string) (Application, error) {
	app, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Application{}, ErrNotFound
		}
		return Application{}, persistenceErr("get application", err)
	}
	return app, nil
}

// FindByJob lists applications for a job, newest first.
func (s *Service) FindByJob(ctx context.Context, jobID string) ([]Application, error) {
	apps, err := s.Repo.ListByJob(ctx, jobID)
	if err != nil {
		return nil, persistenceErr("list by job", err)
	}
	return apps, nil
}

// UpdateStatus moves an application to next if the transition is allowed.
func (s *Service) UpdateStatus(ctx context.Context, id string, next Status) (Application, error) {
	if _, err := ParseStatus(string(next)); err != nil {
		return Application{}, err
	}
	app, err := s.Get(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if !CanTransition(app.Status, next) {
		return Application{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, app.Status, next)
	}

	at := s.now()
	if err := s.Repo.UpdateStatus(ctx, id, app.Status, next, at); err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrStatusConflict) {
			return Application{}, err
		}
		return Application{}, persistenceErr("update status", err)
	}

	telemetry.Info("applications.status_changed", map[string]any{
		"application_id": id,
		"from":           string(app.Status),
		"to":             string(next),
	})
	app.Status = next
	app.UpdatedAt = at
	return app, nil
}

// AttachSummary binds a generated summary document to an application.
func (s *Service) AttachSummary(ctx context.Context, id, summaryKey string) error {
	if err := s.Repo.AttachSummary(ctx, id, summaryKey, s.now()); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return persistenceErr("attach summary", err)
	}
	return nil
}

// ResumeKeys returns the set of resume keys referenced by any application.
func (s *Service) ResumeKeys(ctx context.Context) (map[string]struct{}, error) {
	keys, err := s.Repo.ListResumeKeys(ctx)
	if err != nil {
		return nil, persistenceErr("list resume keys", err)
	}
	out := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		out[k] = struct{}{}
	}
	return out, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) newToken() (string, error) {
	if s.NewToken != nil {
		return s.NewToken()
	}
	return NewTrackToken()
}

func persistenceErr(op string, err error) error {
	if errors.Is(err, ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

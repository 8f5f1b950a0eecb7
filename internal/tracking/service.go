package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quickapply-backend/internal/applications"
	"quickapply-backend/internal/jobs"
)

// TokenResolver finds applications by track token.
type TokenResolver interface {
	FindByTrackToken(ctx context.Context, token string) (applications.Application, error)
}

// URLResolver maps storage keys to public URLs.
type URLResolver interface {
	URL(ctx context.Context, key string) (string, error)
}

// Service resolves track tokens into views.
type Service struct {
	Applications TokenResolver
	Jobs         jobs.Repo
	Store        URLResolver
}

// Resolve returns the view for token. Unknown tokens yield ErrNotFound; any
// other failure, including a record that cannot produce a complete view, yields
// ErrPersistence.
func (s *Service) Resolve(ctx context.Context, token string) (View, error) {
	app, err := s.Applications.FindByTrackToken(ctx, token)
	if err != nil {
		if errors.Is(err, applications.ErrNotFound) {
			return View{}, ErrNotFound
		}
		return View{}, wrapPersistence("find application", err)
	}

	job, err := s.Jobs.GetByID(ctx, app.JobID)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			return View{}, fmt.Errorf("%w: %w: job %s missing", ErrPersistence, ErrIncompleteRecord, app.JobID)
		}
		return View{}, wrapPersistence("load job", err)
	}

	view := View{
		Name:     app.Name,
		Email:    app.Email,
		Phone:    app.Phone,
		Message:  app.Message,
		JobTitle: job.Title,
		Company:  job.Company,
		Status:   string(app.Status),
	}
	if !app.AppliedAt.IsZero() {
		view.AppliedAt = app.AppliedAt.UTC().Format(time.RFC3339)
	}
	if app.ResumeKey != "" {
		if view.ResumeURL, err = s.Store.URL(ctx, app.ResumeKey); err != nil {
			return View{}, wrapPersistence("resume url", err)
		}
	}
	if app.SummaryKey != "" {
		if view.PDFURL, err = s.Store.URL(ctx, app.SummaryKey); err != nil {
			return View{}, wrapPersistence("summary url", err)
		}
	}

	if err := view.check(); err != nil {
		return View{}, err
	}
	return view, nil
}

func wrapPersistence(op string, err error) error {
	if errors.Is(err, ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

package summaries

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"quickapply-backend/internal/applications"
	"quickapply-backend/internal/extract"
	"quickapply-backend/internal/jobs"
	"quickapply-backend/internal/shared/storage/artifact"
	"quickapply-backend/internal/shared/telemetry"
)

const (
	keyPrefix       = "summaries/"
	contentType     = "application/pdf"
	maxResumeBytes  = 10 << 20
	excerptMaxRunes = 600
)

// Key returns the storage key of an application's summary document.
func Key(applicationID string) string {
	return keyPrefix + applicationID + ".pdf"
}

// ApplicationSource reads applications and records generated summaries.
type ApplicationSource interface {
	Get(ctx context.Context, id string) (applications.Application, error)
	AttachSummary(ctx context.Context, id, summaryKey string) error
}

// Service builds summary PDFs for applications.
type Service struct {
	Applications ApplicationSource
	Jobs         jobs.Repo
	Store        artifact.Store
	Now          func() time.Time
}

// ProcessSummary renders, stores and attaches the summary for an application.
// It is a no-op when a summary is already attached or the application is gone.
func (s *Service) ProcessSummary(ctx context.Context, applicationID string) error {
	app, err := s.Applications.Get(ctx, applicationID)
	if err != nil {
		if errors.Is(err, applications.ErrNotFound) {
			telemetry.Warn("summary.application_missing", map[string]any{"application_id": applicationID})
			return nil
		}
		return fmt.Errorf("load application: %w", err)
	}
	if app.SummaryKey != "" {
		return nil
	}

	job, err := s.Jobs.GetByID(ctx, app.JobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", app.JobID, err)
	}

	data := Data{
		ApplicationID: app.ID,
		Name:          app.Name,
		Email:         app.Email,
		Phone:         app.Phone,
		Message:       app.Message,
		JobTitle:      job.Title,
		Company:       job.Company,
		Status:        string(app.Status),
		AppliedAt:     app.AppliedAt,
		GeneratedAt:   s.now(),
	}
	s.describeResume(ctx, app, &data)

	pdfBytes, err := Render(data)
	if err != nil {
		return err
	}

	key := Key(app.ID)
	if _, err := s.Store.SaveWithKey(ctx, key, contentType, bytes.NewReader(pdfBytes)); err != nil {
		return fmt.Errorf("store summary: %w", err)
	}
	if err := s.Applications.AttachSummary(ctx, app.ID, key); err != nil {
		return fmt.Errorf("attach summary: %w", err)
	}
	return nil
}

// describeResume fills resume details. Unreadable resumes are logged and skipped.
func (s *Service) describeResume(ctx context.Context, app applications.Application, data *Data) {
	rc, err := s.Store.Open(ctx, app.ResumeKey)
	if err != nil {
		telemetry.Warn("summary.resume_unavailable", map[string]any{"application_id": app.ID, "error": err})
		return
	}
	defer rc.Close()

	raw, err := io.ReadAll(io.LimitReader(rc, maxResumeBytes))
	if err != nil {
		telemetry.Warn("summary.resume_unavailable", map[string]any{"application_id": app.ID, "error": err})
		return
	}

	info, err := extract.Inspect(ctx, raw, app.ResumeKey)
	data.ResumeFormat = info.MimeType
	if err != nil {
		telemetry.Warn("summary.resume_uninspectable", map[string]any{"application_id": app.ID, "error": err})
		return
	}
	data.ResumePages = info.Pages
	data.ResumeExcerpt = extract.Excerpt(info.Text, excerptMaxRunes)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

package quickapply

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quickapply-backend/internal/applications"
	"quickapply-backend/internal/jobs"
	"quickapply-backend/internal/queue"
	"quickapply-backend/internal/shared/metrics"
	"quickapply-backend/internal/shared/storage/artifact"
	"quickapply-backend/internal/shared/telemetry"
	"quickapply-backend/internal/shared/util"
)

// ApplicationCreator persists application records.
type ApplicationCreator interface {
	Create(ctx context.Context, in applications.NewApplication) (applications.Application, error)
}

// Service runs the quick-apply pipeline:
// received -> validated -> stored -> recorded -> completed.
type Service struct {
	Jobs         jobs.Repo
	Store        artifact.Store
	Applications ApplicationCreator
	// Queue receives a summary request after each completed submission. Optional.
	Queue queue.Client
	Now   func() time.Time
}

// Submit validates the submission, stores the resume and records the application.
// A record failure after the resume was stored leaves the resume orphaned; the
// reconcile job removes it later.
func (s *Service) Submit(ctx context.Context, sub Submission) (Result, error) {
	start := s.now()
	metrics.IncQuickApplyReceived()
	p := pipeline{stage: StageReceived, jobID: sub.JobID, requestID: sub.RequestID}
	if email := strings.TrimSpace(sub.Email); email != "" {
		p.emailHash = util.HashKey(email)[:16]
	}

	in, err := validate(sub)
	if err != nil {
		return Result{}, p.fail(err)
	}
	if _, err := s.Jobs.GetByID(ctx, in.jobID); err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			return Result{}, p.fail(fmt.Errorf("job %s: %w", in.jobID, ErrNotFound))
		}
		return Result{}, p.fail(fmt.Errorf("%w: lookup job: %w", ErrPersistence, err))
	}
	p.advance(StageValidated)

	saved, err := s.Store.Save(ctx, sub.FileName, sub.File)
	if err != nil {
		if !errors.Is(err, ErrStorage) {
			err = fmt.Errorf("%w: %w", ErrStorage, err)
		}
		return Result{}, p.fail(err)
	}
	p.resumeKey = saved.Key
	p.advance(StageStored)

	app, err := s.Applications.Create(ctx, applications.NewApplication{
		JobID:     in.jobID,
		Name:      in.name,
		Email:     in.email,
		Phone:     in.phone,
		Message:   in.message,
		ResumeKey: saved.Key,
	})
	if err != nil {
		if !errors.Is(err, ErrPersistence) {
			err = fmt.Errorf("%w: %w", ErrPersistence, err)
		}
		return Result{}, p.fail(err)
	}
	p.applicationID = app.ID
	p.advance(StageRecorded)

	s.enqueueSummary(ctx, app.ID, sub.RequestID)

	p.advance(StageCompleted)
	elapsed := s.now().Sub(start)
	metrics.IncQuickApplyCompleted()
	metrics.ObserveQuickApplyDurationMs(float64(elapsed.Microseconds()) / 1000.0)
	telemetry.Info("quickapply.completed", p.fields())

	return Result{TrackToken: app.TrackToken, ApplicationID: app.ID, ResumeKey: saved.Key}, nil
}

func (s *Service) enqueueSummary(ctx context.Context, applicationID, requestID string) {
	if s.Queue == nil {
		return
	}
	if err := s.Queue.Send(ctx, queue.NewMessage(applicationID, requestID)); err != nil {
		telemetry.Warn("quickapply.summary_enqueue_failed", map[string]any{
			"application_id": applicationID,
			"error":          err,
		})
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

type pipeline struct {
	stage         Stage
	jobID         string
	requestID     string
	emailHash     string
	resumeKey     string
	applicationID string
}

func (p *pipeline) advance(next Stage) {
	p.stage = next
}

// fail logs and counts err against the current stage and moves to StageFailed.
func (p *pipeline) fail(err error) error {
	fields := p.fields()
	fields["error"] = err
	if p.resumeKey != "" && p.applicationID == "" {
		fields["orphaned_resume"] = true
	}
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) {
		telemetry.Warn("quickapply.rejected", fields)
	} else {
		telemetry.Error("quickapply.failed", fields)
	}
	metrics.IncQuickApplyFailed(string(p.stage))
	p.stage = StageFailed
	return err
}

func (p *pipeline) fields() map[string]any {
	fields := map[string]any{
		"stage":  string(p.stage),
		"job_id": p.jobID,
	}
	if p.requestID != "" {
		fields["request_id"] = p.requestID
	}
	if p.emailHash != "" {
		fields["email_hash"] = p.emailHash
	}
	if p.resumeKey != "" {
		fields["resume_key"] = p.resumeKey
	}
	if p.applicationID != "" {
		fields["application_id"] = p.applicationID
	}
	return fields
}

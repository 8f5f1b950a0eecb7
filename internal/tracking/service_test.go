package tracking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickapply-backend/internal/applications"
	"quickapply-backend/internal/jobs"
)

type stubResolver struct {
	apps map[string]applications.Application
	err  error
}

func (s stubResolver) FindByTrackToken(ctx context.Context, token string) (applications.Application, error) {
	if s.err != nil {
		return applications.Application{}, s.err
	}
	app, ok := s.apps[token]
	if !ok {
		return applications.Application{}, applications.ErrNotFound
	}
	return app, nil
}

type prefixURLs struct{}

func (prefixURLs) URL(ctx context.Context, key string) (string, error) {
	return "https://cdn.example.com/" + key, nil
}

var appliedAt = time.Date(2026, 3, 4, 5, 6, 7, 0, time.FixedZone("X", 3600))

func sampleApp() applications.Application {
	return applications.Application{
		ID:         "app-1",
		JobID:      "J1",
		Name:       "Jane Doe",
		Email:      "jane@x.com",
		Phone:      "555-0100",
		Message:    "Interested",
		ResumeKey:  "resume-1-abc.pdf",
		Status:     applications.StatusSubmitted,
		TrackToken: "tok",
		AppliedAt:  appliedAt,
	}
}

func newService(t *testing.T, apps ...applications.Application) *Service {
	t.Helper()
	jobRepo := jobs.NewMemoryRepo()
	require.NoError(t, jobRepo.Upsert(context.Background(), jobs.Job{ID: "J1", Title: "Backend Engineer", Company: "Acme"}))
	byToken := map[string]applications.Application{}
	for _, a := range apps {
		byToken[a.TrackToken] = a
	}
	return &Service{Applications: stubResolver{apps: byToken}, Jobs: jobRepo, Store: prefixURLs{}}
}

func TestResolveBuildsView(t *testing.T) {
	svc := newService(t, sampleApp())

	view, err := svc.Resolve(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, View{
		Name:      "Jane Doe",
		Email:     "jane@x.com",
		Phone:     "555-0100",
		Message:   "Interested",
		JobTitle:  "Backend Engineer",
		Company:   "Acme",
		Status:    "submitted",
		AppliedAt: "2026-03-04T04:06:07Z",
		ResumeURL: "https://cdn.example.com/resume-1-abc.pdf",
	}, view)
}

func TestResolveIncludesSummaryURL(t *testing.T) {
	app := sampleApp()
	app.SummaryKey = "summaries/app-1.pdf"
	svc := newService(t, app)

	view, err := svc.Resolve(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/summaries/app-1.pdf", view.PDFURL)
}

func TestResolveUnknownToken(t *testing.T) {
	svc := newService(t, sampleApp())

	_, err := svc.Resolve(context.Background(), "other")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrPersistence)
}

func TestResolveDatastoreFailure(t *testing.T) {
	svc := newService(t)
	svc.Applications = stubResolver{err: errors.New("connection reset")}

	_, err := svc.Resolve(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrPersistence)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestResolveNeverReturnsIncompleteView(t *testing.T) {
	cases := map[string]func(*applications.Application){
		"missing job":    func(a *applications.Application) { a.JobID = "gone" },
		"missing resume": func(a *applications.Application) { a.ResumeKey = "" },
		"blank name":     func(a *applications.Application) { a.Name = " " },
		"missing date":   func(a *applications.Application) { a.AppliedAt = time.Time{} },
		"missing status": func(a *applications.Application) { a.Status = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			app := sampleApp()
			mutate(&app)
			svc := newService(t, app)

			view, err := svc.Resolve(context.Background(), "tok")
			assert.ErrorIs(t, err, ErrPersistence)
			assert.ErrorIs(t, err, ErrIncompleteRecord)
			assert.Equal(t, View{}, view)
		})
	}
}

package summaries

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickapply-backend/internal/applications"
	"quickapply-backend/internal/extract"
	"quickapply-backend/internal/jobs"
	"quickapply-backend/internal/shared/storage/artifact/local"
)

type fixture struct {
	svc   *Service
	apps  *applications.Service
	store *local.Store
	app   applications.Application
}

func newFixture(t *testing.T, resume []byte) fixture {
	t.Helper()
	ctx := context.Background()

	jobRepo := jobs.NewMemoryRepo()
	require.NoError(t, jobRepo.Upsert(ctx, jobs.Job{ID: "J1", Title: "Backend Engineer", Company: "Acme"}))

	store := local.New(t.TempDir(), "http://localhost:8080/uploads")
	saved, err := store.Save(ctx, "cv.txt", bytes.NewReader(resume))
	require.NoError(t, err)

	apps := &applications.Service{Repo: applications.NewMemoryRepo()}
	app, err := apps.Create(ctx, applications.NewApplication{
		JobID:     "J1",
		Name:      "Jane Doe",
		Email:     "jane@x.com",
		Message:   "Interested in the role – available immediately",
		ResumeKey: saved.Key,
	})
	require.NoError(t, err)

	svc := &Service{
		Applications: apps,
		Jobs:         jobRepo,
		Store:        store,
		Now:          func() time.Time { return time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC) },
	}
	return fixture{svc: svc, apps: apps, store: store, app: app}
}

func TestProcessSummaryStoresAndAttachesPDF(t *testing.T) {
	f := newFixture(t, []byte("Jane Doe\nSenior Go engineer with ten years of experience."))
	ctx := context.Background()

	require.NoError(t, f.svc.ProcessSummary(ctx, f.app.ID))

	got, err := f.apps.Get(ctx, f.app.ID)
	require.NoError(t, err)
	assert.Equal(t, Key(f.app.ID), got.SummaryKey)

	rc, err := f.store.Open(ctx, got.SummaryKey)
	require.NoError(t, err)
	defer rc.Close()
	pdfBytes, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdfBytes, []byte("%PDF-")))

	info, err := extract.Inspect(ctx, pdfBytes, "summary.pdf")
	require.NoError(t, err)
	assert.Equal(t, 1, info.Pages)
}

func TestProcessSummaryIsIdempotent(t *testing.T) {
	f := newFixture(t, []byte("resume text"))
	ctx := context.Background()

	require.NoError(t, f.svc.ProcessSummary(ctx, f.app.ID))
	first, err := f.apps.Get(ctx, f.app.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.ProcessSummary(ctx, f.app.ID))
	second, err := f.apps.Get(ctx, f.app.ID)
	require.NoError(t, err)
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt)
}

func TestProcessSummaryToleratesUnreadableResume(t *testing.T) {
	f := newFixture(t, []byte{0x00, 0x01, 0x02, 0xff})
	require.NoError(t, f.svc.ProcessSummary(context.Background(), f.app.ID))
}

func TestProcessSummaryMissingApplication(t *testing.T) {
	f := newFixture(t, []byte("resume"))
	assert.NoError(t, f.svc.ProcessSummary(context.Background(), "does-not-exist"))
}

func TestRenderProducesPDF(t *testing.T) {
	out, err := Render(Data{
		ApplicationID: "app-1",
		Name:          "José Álvarez",
		Email:         "jose@example.com",
		JobTitle:      "Designer",
		Company:       "Globex",
		Status:        "submitted",
		AppliedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		ResumeFormat:  "application/pdf",
		ResumePages:   2,
		GeneratedAt:   time.Date(2026, 1, 2, 3, 5, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

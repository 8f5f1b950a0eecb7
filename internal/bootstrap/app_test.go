package bootstrap_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickapply-backend/internal/bootstrap"
	"quickapply-backend/internal/shared/config"
)

const seed = `jobs:
  - id: J1
    title: Backend Engineer
    company: Acme
    location: Remote
`

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	seedPath := filepath.Join(dir, "jobs.yaml")
	require.NoError(t, os.WriteFile(seedPath, []byte(seed), 0o600))

	return config.Config{
		Port:              "0",
		Env:               "dev",
		CORSAllowOrigin:   []string{"http://localhost:5173"},
		ArtifactStoreType: "local",
		UploadsDir:        filepath.Join(dir, "uploads"),
		PublicUploadsPath: "/uploads",
		PublicBaseURL:     "http://localhost:8080",
		AdminAPIKey:       "secret",
		JobsSeedFile:      seedPath,
		QuickApplyRate:    1,
		QuickApplyBurst:   10,
		OrphanGrace:       time.Hour,
	}
}

func submit(t *testing.T, r http.Handler) string {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("name", "Jane Doe"))
	require.NoError(t, w.WriteField("email", "jane@x.com"))
	require.NoError(t, w.WriteField("phone", "555-0100"))
	require.NoError(t, w.WriteField("message", "Interested"))
	fw, err := w.CreateFormFile("resume", "jane.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("Jane Doe\nGo engineer with ten years of backend experience.\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/J1/quick-apply", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		TrackToken string `json:"trackToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	return created.TrackToken
}

func track(t *testing.T, r http.Handler, token string) map[string]any {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/track/"+token, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var view map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	return view
}

func TestQuickApplyEndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.Build(ctx, testConfig(t))
	require.NoError(t, err)
	defer app.Close()
	app.Start(ctx)
	r := app.Router

	token := submit(t, r)
	view := track(t, r, token)
	assert.Equal(t, "Jane Doe", view["name"])
	assert.Equal(t, "Backend Engineer", view["jobTitle"])
	assert.Equal(t, "Acme", view["company"])

	// The in-process queue renders the summary asynchronously.
	require.Eventually(t, func() bool {
		stored, err := app.Applications.FindByTrackToken(ctx, token)
		return err == nil && stored.SummaryKey != ""
	}, 5*time.Second, 20*time.Millisecond)

	view = track(t, r, token)
	pdfURL, _ := view["pdfUrl"].(string)
	require.Contains(t, pdfURL, "http://localhost:8080/uploads/summaries/")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, pdfURL[len("http://localhost:8080"):], nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestAdminRoutesRequireKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app, err := bootstrap.Build(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer app.Close()
	r := app.Router

	submit(t, r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/jobs/J1/applications", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/jobs/J1/applications", nil)
	req.Header.Set("X-Admin-Key", "secret")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Jane Doe"`)
}

func TestHealthAndMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app, err := bootstrap.Build(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer app.Close()

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"memory"`)

	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "quickapply_received_total")
}

func TestSweeperKeepsReferencedResumes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig(t)
	app, err := bootstrap.Build(context.Background(), cfg)
	require.NoError(t, err)
	defer app.Close()

	submit(t, app.Router)

	sweeper := app.Sweeper(false)
	sweeper.Grace = time.Nanosecond
	sweeper.Now = func() time.Time { return time.Now().Add(time.Hour) }
	rep, err := sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Referenced)
	assert.Empty(t, rep.Orphans)
}

func TestProductionRequiresDatabase(t *testing.T) {
	cfg := testConfig(t)
	cfg.Env = "production"
	_, err := bootstrap.Build(context.Background(), cfg)
	assert.Error(t, err)
}

package applications

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickapply-backend/internal/jobs"
)

func newAdminRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jobRepo := jobs.NewMemoryRepo()
	require.NoError(t, jobRepo.Upsert(context.Background(), jobs.Job{ID: "job-1", Title: "Backend Engineer", Company: "Acme"}))
	require.NoError(t, jobRepo.Upsert(context.Background(), jobs.Job{ID: "J2", Title: "Designer", Company: "Acme"}))

	svc := &Service{Repo: NewMemoryRepo()}
	r := gin.New()
	NewHandler(svc, jobRepo).RegisterRoutes(r.Group("/api/v1/admin"))
	return r, svc
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAdminListByJob(t *testing.T) {
	r, svc := newAdminRouter(t)
	created, err := svc.Create(context.Background(), newApp())
	require.NoError(t, err)

	rec := doJSON(r, http.MethodGet, "/api/v1/admin/jobs/"+created.JobID+"/applications", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		JobID        string                `json:"jobId"`
		Applications []ApplicationResponse `json:"applications"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Applications, 1)
	assert.Equal(t, created.ID, body.Applications[0].ApplicationID)
	assert.Equal(t, StatusSubmitted, body.Applications[0].Status)
	assert.NotContains(t, rec.Body.String(), created.TrackToken)
}

func TestAdminListByJobEmptyAndUnknown(t *testing.T) {
	r, _ := newAdminRouter(t)

	rec := doJSON(r, http.MethodGet, "/api/v1/admin/jobs/J2/applications", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"applications":[]`)

	rec = doJSON(r, http.MethodGet, "/api/v1/admin/jobs/nope/applications", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminUpdateStatus(t *testing.T) {
	r, svc := newAdminRouter(t)
	created, err := svc.Create(context.Background(), newApp())
	require.NoError(t, err)
	path := "/api/v1/admin/applications/" + created.ID + "/status"

	rec := doJSON(r, http.MethodPatch, path, `{"status":"reviewed"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"reviewed"`)

	rec = doJSON(r, http.MethodPatch, path, `{"status":"Accepted"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(r, http.MethodPatch, path, `{"status":"reviewed"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_transition")
}

func TestAdminUpdateStatusErrors(t *testing.T) {
	r, svc := newAdminRouter(t)
	created, err := svc.Create(context.Background(), newApp())
	require.NoError(t, err)
	path := "/api/v1/admin/applications/" + created.ID + "/status"

	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodPatch, path, `{"status":"hired"}`).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodPatch, path, `not json`).Code)
	assert.Equal(t, http.StatusNotFound,
		doJSON(r, http.MethodPatch, "/api/v1/admin/applications/missing/status", `{"status":"reviewed"}`).Code)
}

func TestAdminUpdateStatusMalformedIDOnPostgres(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	r := gin.New()
	NewHandler(&Service{Repo: &PGRepo{DB: db}}, jobs.NewMemoryRepo()).RegisterRoutes(r.Group("/api/v1/admin"))

	rec := doJSON(r, http.MethodPatch, "/api/v1/admin/applications/abc/status", `{"status":"reviewed"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")
	require.NoError(t, mock.ExpectationsWereMet())
}

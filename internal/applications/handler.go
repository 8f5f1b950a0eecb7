package applications

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"quickapply-backend/internal/jobs"
	"quickapply-backend/internal/shared/server/respond"
)

// JobLookup confirms a job exists before listing its applications.
type JobLookup interface {
	GetByID(ctx context.Context, jobID string) (jobs.Job, error)
}

// Handler exposes the admin application endpoints.
type Handler struct {
	Svc  *Service
	Jobs JobLookup
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, jobRepo JobLookup) *Handler {
	return &Handler{Svc: svc, Jobs: jobRepo}
}

// RegisterRoutes attaches admin routes to the router group. Callers are
// expected to guard the group with middleware.AdminKey.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/jobs/:jobId/applications", h.listByJob)
	rg.PATCH("/applications/:id/status", h.updateStatus)
}

func (h *Handler) listByJob(c *gin.Context) {
	jobID := c.Param("jobId")
	c.Set("jobId", jobID)

	if _, err := h.Jobs.GetByID(c.Request.Context(), jobID); err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "persistence_error", "failed to load job", nil)
		return
	}

	apps, err := h.Svc.FindByJob(c.Request.Context(), jobID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "persistence_error", "failed to list applications", nil)
		return
	}

	resp := make([]ApplicationResponse, 0, len(apps))
	for _, app := range apps {
		resp = append(resp, toResponse(app))
	}
	respond.OK(c, gin.H{"jobId": jobID, "applications": resp})
}

func (h *Handler) updateStatus(c *gin.Context) {
	id := c.Param("id")
	c.Set("applicationId", id)

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	next, err := ParseStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "status must be one of submitted, reviewed, rejected, accepted", nil)
		return
	}

	app, err := h.Svc.UpdateStatus(c.Request.Context(), id, next)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
		case errors.Is(err, ErrInvalidTransition):
			respond.Error(c, http.StatusConflict, "invalid_transition", err.Error(), nil)
		case errors.Is(err, ErrStatusConflict):
			respond.Error(c, http.StatusConflict, "status_conflict", "status changed concurrently, retry", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "persistence_error", "failed to update status", nil)
		}
		return
	}

	respond.OK(c, toResponse(app))
}

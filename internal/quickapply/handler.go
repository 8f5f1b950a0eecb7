package quickapply

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"quickapply-backend/internal/shared/server/middleware"
	"quickapply-backend/internal/shared/server/respond"
)

// multipart overhead allowed on top of the file cap
const formOverhead int64 = 1 << 20

// Handler wires HTTP handlers to the quick-apply service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches quick-apply routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/jobs/:jobId/quick-apply", h.submit)
}

func (h *Handler) submit(c *gin.Context) {
	jobID := c.Param("jobId")
	c.Set("jobId", jobID)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxFileSize+formOverhead)
	if err := c.Request.ParseMultipartForm(1 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "upload exceeds the 10MB limit", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "expected multipart/form-data", nil)
		return
	}
	defer func() {
		if c.Request.MultipartForm != nil {
			_ = c.Request.MultipartForm.RemoveAll()
		}
	}()

	sub := Submission{
		JobID:     jobID,
		Name:      c.Request.FormValue("name"),
		Email:     c.Request.FormValue("email"),
		Phone:     c.Request.FormValue("phone"),
		Message:   c.Request.FormValue("message"),
		RequestID: middleware.RequestIDFromContext(c),
	}
	if file, header, err := c.Request.FormFile("resume"); err == nil {
		defer file.Close()
		sub.File = file
		sub.FileName = header.Filename
		sub.FileSize = header.Size
	}

	result, err := h.Svc.Submit(c.Request.Context(), sub)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid submission", verr.Fields)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
		case errors.Is(err, ErrStorage):
			respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to store resume", nil)
		case errors.Is(err, ErrPersistence):
			respond.Error(c, http.StatusInternalServerError, "persistence_error", "failed to record application", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to submit application", nil)
		}
		return
	}

	c.Set("applicationId", result.ApplicationID)
	respond.JSON(c, http.StatusCreated, submitResponse{Success: true, TrackToken: result.TrackToken})
}

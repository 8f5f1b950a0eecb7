package tracking

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"quickapply-backend/internal/shared/metrics"
	"quickapply-backend/internal/shared/server/middleware"
	"quickapply-backend/internal/shared/server/respond"
	"quickapply-backend/internal/shared/telemetry"
	"quickapply-backend/internal/shared/util"
)

// Handler serves track lookups.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches tracking routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/track/:token", h.get)
}

func (h *Handler) get(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	view, err := h.Svc.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.IncTrackLookup("not_found")
			respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
			return
		}
		metrics.IncTrackLookup("error")
		telemetry.Error("track.resolve_failed", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"token_hash": util.HashKey(c.Param("token"))[:16],
			"error":      err,
		})
		respond.Error(c, http.StatusInternalServerError, "persistence_error", "failed to resolve application", nil)
		return
	}

	metrics.IncTrackLookup("found")
	respond.OK(c, view)
}

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quickapply-backend/internal/applications"
	"quickapply-backend/internal/quickapply"
	"quickapply-backend/internal/services/health"
	"quickapply-backend/internal/shared/config"
	"quickapply-backend/internal/shared/metrics"
	"quickapply-backend/internal/shared/server/middleware"
	"quickapply-backend/internal/shared/server/respond"
	"quickapply-backend/internal/shared/telemetry"
	"quickapply-backend/internal/tracking"
)

const (
	rateGroupQuickApply = "QUICK_APPLY"
	rateGroupTrack      = "TRACK"
)

// RouterDeps carries the handlers and collaborators mounted by NewRouter.
type RouterDeps struct {
	Config            config.Config
	QuickApplyHandler *quickapply.Handler
	TrackingHandler   *tracking.Handler
	AdminHandler      *applications.Handler
	Health            *health.Service
	// Limiter overrides the in-process token bucket, e.g. with a Redis limiter.
	Limiter middleware.Limiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.MaxMultipartMemory = 1 << 20
	// ClientIP keys the rate limiter, so forwarded headers count only from listed proxies.
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		telemetry.Warn("server.trusted_proxies_invalid", map[string]any{"error": err.Error()})
		_ = r.SetTrustedProxies(nil)
	}

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				rateGroupQuickApply: {Rate: cfg.QuickApplyRate, Burst: cfg.QuickApplyBurst},
				rateGroupTrack:      {Rate: 2, Burst: 30},
			},
			GroupFor:  rateGroupFor,
			Limiter:   deps.Limiter,
			OnLimited: metrics.IncRateLimited,
		}),
	)

	if cfg.ArtifactStoreType == "local" {
		r.Static(cfg.PublicUploadsPath, cfg.UploadsDir)
	}
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.OK(c, gin.H{"ok": true})
			return
		}
		st := deps.Health.Status(c.Request.Context())
		if !st.OK {
			respond.JSON(c, http.StatusServiceUnavailable, st)
			return
		}
		respond.OK(c, st)
	})

	if deps.QuickApplyHandler != nil {
		deps.QuickApplyHandler.RegisterRoutes(api)
	}
	if deps.TrackingHandler != nil {
		deps.TrackingHandler.RegisterRoutes(api)
	}
	if deps.AdminHandler != nil && cfg.AdminAPIKey != "" {
		admin := api.Group("/admin", middleware.AdminKey(cfg.AdminAPIKey))
		deps.AdminHandler.RegisterRoutes(admin)
	}

	return r
}

func rateGroupFor(c *gin.Context) string {
	switch c.FullPath() {
	case "/api/v1/jobs/:jobId/quick-apply":
		return rateGroupQuickApply
	case "/api/v1/track/:token":
		return rateGroupTrack
	default:
		return ""
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}

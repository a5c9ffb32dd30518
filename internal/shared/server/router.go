package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docintake-backend/internal/audit"
	"docintake-backend/internal/failures"
	"docintake-backend/internal/files"
	"docintake-backend/internal/shared/config"
	"docintake-backend/internal/shared/metrics"
	"docintake-backend/internal/shared/server/middleware"
	"docintake-backend/internal/shared/server/respond"
	"docintake-backend/internal/uploads"
)

// RouterDeps carries the handlers the router mounts.
type RouterDeps struct {
	Config         config.Config
	UploadHandler  *uploads.Handler
	FileHandler    *files.Handler
	FailureHandler *failures.Handler
	AuditHandler   *audit.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	uploadGroup := api.Group("")
	uploadGroup.Use(middleware.RateLimit(middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			"UPLOAD": {Rate: 5, Burst: 10},
		},
		DefaultGroup: "UPLOAD",
	}))
	if deps.UploadHandler != nil {
		deps.UploadHandler.RegisterRoutes(uploadGroup)
	}

	if deps.FileHandler != nil {
		deps.FileHandler.RegisterRoutes(api)
	}
	if deps.FailureHandler != nil {
		deps.FailureHandler.RegisterRoutes(api)
	}
	if deps.AuditHandler != nil {
		deps.AuditHandler.RegisterRoutes(api)
	}

	return r
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

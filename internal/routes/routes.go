package routes

import (
	"net/http"

	_ "eventhire_backend/docs"
	"eventhire_backend/internal/handlers"
	"eventhire_backend/internal/logger"
	"eventhire_backend/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Middlewares are the request guards shared by the route groups.
type Middlewares struct {
	Auth         gin.HandlerFunc
	OptionalAuth gin.HandlerFunc
	// AuthRateLimit guards credential endpoints; nil disables it.
	AuthRateLimit gin.HandlerFunc
}

// Options toggles the non API routes.
type Options struct {
	// FilesDir serves locally stored uploads under FilesPrefix when set.
	FilesDir    string
	FilesPrefix string
	Swagger     bool
	// Health reports readiness; nil always answers ok.
	Health func() error
}

// RegisterRoutes registers every HTTP and websocket route.
func RegisterRoutes(r *gin.Engine, h *handlers.AppHandlers, wsHandler *ws.Handler, mw Middlewares, opts Options) {
	api := r.Group("/api/v1")
	SetupPublicRoutes(api, h, mw)
	SetupCommonRoutes(api, h, mw)
	SetupOrganizerRoutes(api, h, mw)
	SetupProfessionalRoutes(api, h, mw)
	SetupAdminRoutes(api, h, mw)

	if wsHandler != nil {
		SetupWebSocketRoutes(r, wsHandler, mw)
	}
	setupSystemRoutes(r, opts)
}

func setupSystemRoutes(r *gin.Engine, opts Options) {
	r.GET("/healthz", func(c *gin.Context) {
		if opts.Health != nil {
			if err := opts.Health(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if opts.Swagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	if opts.FilesDir != "" && opts.FilesPrefix != "" {
		r.Static(opts.FilesPrefix, opts.FilesDir)
		logger.Info("Serving local uploads", "prefix", opts.FilesPrefix, "dir", opts.FilesDir)
	}
}

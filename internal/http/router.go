package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/Monetiqai/Monetiq-sub003/internal/http/handlers"
	httpMW "github.com/Monetiqai/Monetiq-sub003/internal/http/middleware"
	"github.com/Monetiqai/Monetiq-sub003/internal/observability"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	CORSOrigins    []string
	Metrics        *observability.Metrics
	AuthMiddleware *httpMW.AuthMiddleware

	PackHandler    *httpH.PackHandler
	VariantHandler *httpH.VariantHandler
	HealthHandler  *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.CORS(cfg.CORSOrigins...))
	r.Use(httpMW.Metrics(cfg.Metrics))

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	protected := r.Group("/api")
	protected.Use(httpMW.RequestLogger(cfg.Log))
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}

	// Packs
	if cfg.PackHandler != nil {
		protected.POST("/packs/generate", cfg.PackHandler.Generate)
		protected.GET("/packs", cfg.PackHandler.List)
		protected.GET("/packs/:id", cfg.PackHandler.Get)
		protected.GET("/packs/:id/events", cfg.PackHandler.Events)
	}

	// Variants
	if cfg.VariantHandler != nil {
		protected.POST("/variants/:id/winner", cfg.VariantHandler.MarkWinner)
		protected.POST("/variants/:id/validate", cfg.VariantHandler.Validate)
		protected.POST("/variants/:id/promote", cfg.VariantHandler.Promote)
		protected.POST("/variants/:id/render-outcome", cfg.VariantHandler.RenderOutcome)
		protected.GET("/variants/:id/assets", cfg.VariantHandler.Assets)
	}

	return r
}

package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/formationvault-backend/internal/http/handlers"
	httpMW "github.com/yungbote/formationvault-backend/internal/http/middleware"
	"github.com/yungbote/formationvault-backend/internal/observability"
	"github.com/yungbote/formationvault-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	AllowedOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware
	WebhookHeader  string
	WebhookSecret  string

	HealthHandler    *httpH.HealthHandler
	FormationHandler *httpH.FormationHandler
	VaultHandler     *httpH.VaultHandler
	DocumentHandler  *httpH.DocumentHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	api := r.Group("/api")

	// Webhooks (shared secret)
	if cfg.FormationHandler != nil {
		hooks := api.Group("/webhooks")
		hooks.Use(httpMW.RequireSharedSecret(cfg.WebhookHeader, cfg.WebhookSecret))
		hooks.POST("/payment-completed", cfg.FormationHandler.PaymentCompleted)
	}

	protected := api.Group("/")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}

	// Generation (staff)
	if cfg.FormationHandler != nil {
		staff := protected.Group("/formation")
		if cfg.AuthMiddleware != nil {
			staff.Use(cfg.AuthMiddleware.RequireStaff())
		}
		staff.POST("/records/:recordId/documents/:documentKind/generate", cfg.FormationHandler.Generate)
		staff.POST("/records/:recordId/bundle", cfg.FormationHandler.Bundle)
	}

	// Vaults
	if cfg.VaultHandler != nil {
		protected.POST("/vaults", cfg.VaultHandler.Create)
	}

	// Documents
	if cfg.DocumentHandler != nil {
		protected.GET("/documents", cfg.DocumentHandler.List)
		protected.GET("/documents/view", cfg.DocumentHandler.ViewByKey)
		protected.GET("/documents/:documentId/view", cfg.DocumentHandler.View)
		protected.POST("/documents/:documentId/signed", cfg.DocumentHandler.UploadSigned)
	}

	return r
}

// Package http assembles the gin engine and HTTP server of the SymptomSense
// API.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/SymptomSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SymptomSense/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/SymptomSense/internal/interfaces/http/handlers"
	"github.com/turtacn/SymptomSense/internal/interfaces/http/middleware"
)

// DefaultMaxBodyBytes bounds request bodies when RouterConfig leaves it 0.
const DefaultMaxBodyBytes = 1 << 20

// RouterConfig aggregates the handlers and middleware dependencies of the
// route tree.  Nil handlers leave their routes unregistered.
type RouterConfig struct {
	SymptomHandler     *handlers.SymptomHandler
	InteractionHandler *handlers.InteractionHandler
	PatientHandler     *handlers.PatientHandler
	HealthHandler      *handlers.HealthHandler

	Logger  logging.Logger
	Metrics *prometheus.AppMetrics
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler

	CORS         *middleware.CORSConfig
	Logging      middleware.LoggingConfig
	MaxBodyBytes int64
}

// NewRouter builds the gin engine.  Global middleware runs in the order
// request id, logging, recovery, metrics, CORS.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogging(cfg.Logger, cfg.Logging),
		middleware.Recovery(cfg.Logger),
		middleware.Metrics(cfg.Metrics),
	)
	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}

	if h := cfg.HealthHandler; h != nil {
		r.GET("/healthz", h.Liveness)
		r.GET("/readyz", h.Readiness)
	}
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	v1 := r.Group("/api/v1", middleware.BodyLimit(cfg.MaxBodyBytes))
	if h := cfg.SymptomHandler; h != nil {
		v1.POST("/symptoms/analyze", h.Analyze)
		v1.POST("/symptoms/extract", h.Extract)
	}
	if h := cfg.InteractionHandler; h != nil {
		v1.POST("/interactions/check", h.Check)
	}
	if h := cfg.PatientHandler; h != nil {
		v1.GET("/patients/:id/history", h.GetHistory)
		v1.PUT("/patients/:id/history", h.PutHistory)
	}

	return r
}

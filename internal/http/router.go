package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/modulegate-backend/internal/http/handlers"
	httpMW "github.com/yungbote/modulegate-backend/internal/http/middleware"
	"github.com/yungbote/modulegate-backend/internal/observability"
	"github.com/yungbote/modulegate-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	Metrics     *observability.Metrics

	SessionHandler *httpH.SessionHandler
	RewardsHandler *httpH.RewardsHandler
	HealthHandler  *httpH.HealthHandler
	MetricsHandler *httpH.MetricsHandler
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
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", cfg.MetricsHandler.Serve)
	}

	api := r.Group("/api")
	api.Use(httpMW.RequireUser())
	{
		// Sessions
		if cfg.SessionHandler != nil {
			api.POST("/modules/:id/sessions", cfg.SessionHandler.Open)
			api.GET("/sessions/:id", cfg.SessionHandler.Get)
			api.POST("/sessions/:id/answers", cfg.SessionHandler.SelectAnswer)
			api.POST("/sessions/:id/submit", cfg.SessionHandler.Submit)
			api.POST("/sessions/:id/reset", cfg.SessionHandler.Reset)
			api.POST("/sessions/:id/advance", cfg.SessionHandler.Advance)
			api.POST("/sessions/:id/retreat", cfg.SessionHandler.Retreat)
			api.DELETE("/sessions/:id", cfg.SessionHandler.Close)
		}

		// Rewards (Me)
		if cfg.RewardsHandler != nil {
			api.GET("/me/rewards", cfg.RewardsHandler.GetMine)
		}
	}

	return r
}

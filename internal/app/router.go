package app

import (
	"github.com/gin-gonic/gin"

	server "github.com/yungbote/modulegate-backend/internal/http"
	"github.com/yungbote/modulegate-backend/internal/observability"
	"github.com/yungbote/modulegate-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) *server.Server {
	log.Info("Wiring router...")
	if mode := cfg.LogMode; mode == "production" || mode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	routerCfg := server.RouterConfig{
		Log:            log,
		CORSOrigins:    cfg.CORSOrigins,
		Metrics:        metrics,
		SessionHandler: handlers.Session,
		RewardsHandler: handlers.Rewards,
		HealthHandler:  handlers.Health,
		MetricsHandler: handlers.Metrics,
	}
	if cfg.Otel.Enabled {
		routerCfg.ServiceName = cfg.Otel.ServiceName
	}
	return server.NewServer(routerCfg)
}

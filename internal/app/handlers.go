package app

import (
	httpH "github.com/yungbote/modulegate-backend/internal/http/handlers"
	"github.com/yungbote/modulegate-backend/internal/observability"
	"github.com/yungbote/modulegate-backend/internal/platform/logger"
)

type Handlers struct {
	Session *httpH.SessionHandler
	Rewards *httpH.RewardsHandler
	Health  *httpH.HealthHandler
	Metrics *httpH.MetricsHandler
}

func wireHandlers(log *logger.Logger, svc Services, metrics *observability.Metrics) Handlers {
	log.Info("Wiring handlers...")
	h := Handlers{
		Session: httpH.NewSessionHandler(log, svc.Progression),
		Rewards: httpH.NewRewardsHandler(log, svc.Rewards),
		Health:  httpH.NewHealthHandler(),
	}
	if metrics != nil {
		h.Metrics = httpH.NewMetricsHandler(metrics)
	}
	return h
}

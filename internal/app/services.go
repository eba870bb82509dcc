package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/modulegate-backend/internal/data/aggregates"
	"github.com/yungbote/modulegate-backend/internal/data/progressstore"
	"github.com/yungbote/modulegate-backend/internal/data/repos"
	"github.com/yungbote/modulegate-backend/internal/modules/progression"
	"github.com/yungbote/modulegate-backend/internal/observability"
	"github.com/yungbote/modulegate-backend/internal/platform/logger"
	"github.com/yungbote/modulegate-backend/internal/realtime/bus"
	"github.com/yungbote/modulegate-backend/internal/services"
)

type Services struct {
	Engine      *progression.Engine
	Progression services.ProgressionService
	Rewards     services.RewardsService
	Modules     services.ModuleService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, set *repos.Set, clients Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	store := progressstore.New(aggregates.BaseDeps{
		DB:    db,
		Log:   log,
		Hooks: aggregates.NewObservabilityHooks(metrics),
	}, set)

	engine := progression.NewEngine(progression.EngineDeps{
		Store:      store,
		Cache:      clients.Cache,
		Rules:      progression.LoadRules(log),
		Log:        log,
		Hooks:      observability.ProgressionHooks(metrics),
		Notifier:   bus.NewCompletionNotifier(clients.Bus, log),
		ContentTTL: cfg.ContentCacheTTL,
	})

	return Services{
		Engine:      engine,
		Progression: services.NewProgressionService(log, engine, cfg.SessionIdleTimeout, nil),
		Rewards:     services.NewRewardsService(db, log, set.Completions, set.Points, set.Badges, set.Ledger, set.Activity),
		Modules:     services.NewModuleService(db, log, set.Modules, clients.Cache),
	}
}

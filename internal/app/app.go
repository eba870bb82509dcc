package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"

	dbpkg "github.com/yungbote/modulegate-backend/internal/data/db"
	"github.com/yungbote/modulegate-backend/internal/data/repos"
	server "github.com/yungbote/modulegate-backend/internal/http"
	"github.com/yungbote/modulegate-backend/internal/observability"
	"github.com/yungbote/modulegate-backend/internal/platform/logger"
	"github.com/yungbote/modulegate-backend/internal/realtime/bus"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *server.Server
	Cfg      Config
	Repos    *repos.Set
	Clients  Clients
	Services Services
	Metrics  *observability.Metrics

	shutdownOtel func(context.Context) error
	cancel       context.CancelFunc
}

func New(ctx context.Context) (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	shutdownOtel := observability.InitOTel(ctx, log, cfg.Otel)
	metrics := observability.Init(cfg.MetricsEnabled)

	theDB, err := dbpkg.Open(cfg.DB, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init db: %w", err)
	}
	if err := dbpkg.AutoMigrateAll(theDB); err != nil {
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, clients, metrics)
	handlerset := wireHandlers(log, serviceset, metrics)
	srv := wireRouter(log, cfg, handlerset, metrics)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       srv,
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clients,
		Services:     serviceset,
		Metrics:      metrics,
		shutdownOtel: shutdownOtel,
	}, nil
}

// Start launches background loops: the idle session sweep, pool collectors
// and the completion event listener.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.Services.Progression.StartSweeper(ctx, a.Cfg.SessionSweepEvery)
	if a.Metrics != nil {
		a.Metrics.StartDBCollector(ctx, a.Log, a.DB, 15*time.Second)
		if a.Clients.Redis != nil {
			a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Redis, 15*time.Second)
		}
	}
	if a.Clients.Bus != nil {
		log := a.Log.With("component", "CompletionListener")
		if err := a.Clients.Bus.StartForwarder(ctx, func(ev bus.Event) {
			log.Info("module completion event", "event_id", ev.ID, "user_id", ev.UserID, "type", ev.Type)
		}); err != nil {
			a.Log.Warn("completion listener not started", "error", err)
		}
	}
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := ":" + a.Cfg.Port
	a.Log.Info("HTTP server listening", "addr", addr)
	return a.Server.Run(addr)
}

// Close stops the HTTP server, persists every open session, then releases
// clients. Errors are joined so every step still runs.
func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if a.Services.Progression != nil {
		if err := a.Services.Progression.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close sessions: %w", err))
		}
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Clients.Close()
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.shutdownOtel != nil {
		if err := a.shutdownOtel(ctx); err != nil {
			errs = append(errs, fmt.Errorf("otel shutdown: %w", err))
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
	return errors.Join(errs...)
}

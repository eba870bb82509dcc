package app

import (
	"strings"
	"time"

	dbpkg "github.com/yungbote/modulegate-backend/internal/data/db"
	"github.com/yungbote/modulegate-backend/internal/observability"
	"github.com/yungbote/modulegate-backend/internal/platform/envutil"
	"github.com/yungbote/modulegate-backend/internal/platform/logger"
)

const serviceName = "modulegate-backend"

type Config struct {
	LogMode string
	Port    string

	DB dbpkg.Config

	RedisAddr    string
	RedisChannel string

	ContentCacheTTL    time.Duration
	SessionIdleTimeout time.Duration
	SessionSweepEvery  time.Duration

	CORSOrigins    []string
	MetricsEnabled bool
	Otel           observability.OtelConfig
}

func LoadConfig(log *logger.Logger) Config {
	idle := envutil.Duration("SESSION_IDLE_TIMEOUT", 30*time.Minute, log)
	sweep := idle / 4
	if sweep < time.Second {
		sweep = time.Second
	}
	return Config{
		LogMode: envutil.String("LOG_MODE", "development", log),
		Port:    envutil.String("PORT", "8080", log),
		DB: dbpkg.Config{
			Driver:   dbpkg.Driver(strings.ToLower(envutil.String("DB_DRIVER", string(dbpkg.DriverPostgres), log))),
			DSN:      envutil.String("DB_DSN", "", log),
			Host:     envutil.String("POSTGRES_HOST", "localhost", log),
			Port:     envutil.String("POSTGRES_PORT", "5432", log),
			User:     envutil.String("POSTGRES_USER", "postgres", log),
			Password: envutil.String("POSTGRES_PASSWORD", "", log),
			Name:     envutil.String("POSTGRES_NAME", "modulegate", log),
		},
		RedisAddr:          envutil.String("REDIS_ADDR", "", log),
		RedisChannel:       envutil.String("REDIS_CHANNEL", "modulegate.events", log),
		ContentCacheTTL:    envutil.Duration("CONTENT_CACHE_TTL", 10*time.Minute, log),
		SessionIdleTimeout: idle,
		SessionSweepEvery:  sweep,
		CORSOrigins:        envutil.CSV("CORS_ORIGINS", "", log),
		MetricsEnabled:     envutil.Bool("METRICS_ENABLED", true, log),
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false, log),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", serviceName, log),
			Environment: envutil.String("APP_ENV", "development", log),
			Version:     envutil.String("APP_VERSION", "dev", log),
			Exporter:    envutil.String("OTEL_EXPORTER", "stdout", log),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", true, log),
			SampleRatio: envutil.Float("OTEL_SAMPLE_RATIO", 1.0, log),
		},
	}
}

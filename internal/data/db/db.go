package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/modulegate-backend/internal/platform/logger"
)

type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

type Config struct {
	Driver Driver
	// DSN wins over the discrete Postgres fields when set.
	DSN      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

func (c Config) dsn() (string, error) {
	if dsn := strings.TrimSpace(c.DSN); dsn != "" {
		return dsn, nil
	}
	switch c.Driver {
	case DriverPostgres, "":
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", c.User, c.Password, c.Host, c.Port, c.Name), nil
	case DriverSQLite:
		return "file:modulegate.db?cache=shared&_busy_timeout=5000", nil
	default:
		return "", fmt.Errorf("unsupported db driver %q", c.Driver)
	}
}

// Open connects with the configured driver. Statement logging is at Warn
// with a one second slow threshold.
func Open(cfg Config, logg *logger.Logger) (*gorm.DB, error) {
	dsn, err := cfg.dsn()
	if err != nil {
		return nil, err
	}
	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres, "":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	gdb, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}
	if cfg.Driver == DriverSQLite {
		// one writer at a time keeps sqlite from returning "database is locked"
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}
	if logg != nil {
		logg.Info("database connected", "driver", string(cfg.Driver))
	}
	return gdb, nil
}

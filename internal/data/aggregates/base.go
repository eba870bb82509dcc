package aggregates

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	domainagg "github.com/yungbote/modulegate-backend/internal/domain/aggregates"
	"github.com/yungbote/modulegate-backend/internal/platform/dbctx"
	"github.com/yungbote/modulegate-backend/internal/platform/logger"
)

type BaseDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Runner   TxRunner
	Hooks    Hooks
	CASGuard CASGuard
}

// WithDefaults fills the runner, hooks and guard from DB when unset.
func (d BaseDeps) WithDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.CASGuard.db == nil {
		d.CASGuard = NewCASGuard(d.DB)
	}
	if d.Log == nil {
		d.Log = logger.NewNop()
	}
	return d
}

// ExecuteWrite runs fn in one transaction, maps the failure to a coded
// aggregate error and reports the outcome to the hooks.
func ExecuteWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.WithDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "aggregate.write"
	}
	mapped := MapError(op, deps.Runner.InTx(ctx, fn))

	status := "success"
	if mapped != nil {
		status = aggregateErrorStatus(mapped)
		switch domainagg.CodeOf(mapped) {
		case domainagg.CodeConflict:
			deps.Hooks.IncConflict(op)
		case domainagg.CodeRetryable:
			deps.Hooks.IncRetry(op)
		}
	}
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
	return mapped
}

func aggregateErrorStatus(err error) string {
	if err == nil {
		return "success"
	}
	if code := domainagg.CodeOf(MapError("aggregate.status", err)); code != "" {
		return string(code)
	}
	return "failure"
}

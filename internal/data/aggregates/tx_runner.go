package aggregates

import (
	"context"

	"gorm.io/gorm"

	domainagg "github.com/yungbote/modulegate-backend/internal/domain/aggregates"
	"github.com/yungbote/modulegate-backend/internal/platform/dbctx"
)

// TxRunner opens the transaction a progress write runs in.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

// TxRunnerFunc adapts a plain function to TxRunner.
type TxRunnerFunc func(ctx context.Context, fn func(dbc dbctx.Context) error) error

func (f TxRunnerFunc) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	return f(ctx, fn)
}

// NewGormTxRunner runs fn in db.Transaction. When db is itself a transaction
// gorm nests the call as a savepoint.
func NewGormTxRunner(db *gorm.DB) TxRunner {
	return TxRunnerFunc(func(ctx context.Context, fn func(dbc dbctx.Context) error) error {
		if fn == nil {
			return nil
		}
		if db == nil {
			return domainagg.NewError(domainagg.CodeInternal, "progress.tx", "transaction runner has nil db", nil)
		}
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(dbctx.Context{Ctx: ctx, Tx: tx})
		})
	})
}

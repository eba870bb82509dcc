package testutil

import (
	"context"
	"sync"

	"github.com/yungbote/modulegate-backend/internal/data/aggregates"
	"github.com/yungbote/modulegate-backend/internal/platform/dbctx"
)

// InjectedTxRunner wraps an optional inner runner and injects begin or
// commit failures. With no inner runner the body runs without a transaction.
type InjectedTxRunner struct {
	mu sync.Mutex

	Inner      aggregates.TxRunner
	FailBegin  error
	FailCommit error

	BeginCalls    int
	CommitCalls   int
	RollbackCalls int
}

var _ aggregates.TxRunner = (*InjectedTxRunner)(nil)

func (r *InjectedTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.BeginCalls++
	failBegin, failCommit := r.FailBegin, r.FailCommit
	r.mu.Unlock()

	if failBegin != nil {
		return failBegin
	}
	body := func(dbc dbctx.Context) error {
		if fn != nil {
			if err := fn(dbc); err != nil {
				return err
			}
		}
		// returning an error here makes the inner runner roll back
		return failCommit
	}

	var err error
	if r.Inner != nil {
		err = r.Inner.InTx(ctx, body)
	} else {
		err = body(dbctx.Context{Ctx: ctx})
	}

	r.mu.Lock()
	if err != nil {
		r.RollbackCalls++
	} else {
		r.CommitCalls++
	}
	r.mu.Unlock()
	return err
}

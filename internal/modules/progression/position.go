package progression

import (
	"context"
	"sync"
	"time"

	"github.com/yungbote/modulegate-backend/internal/platform/logger"
)

// positionWriter coalesces lesson-index writes. Writes are serialized by mu,
// so a Flush always observes the latest scheduled index. With a zero delay
// nothing is written until Flush.
type positionWriter struct {
	mu      sync.Mutex
	delay   time.Duration
	write   func(ctx context.Context, index int) error
	log     *logger.Logger
	timer   *time.Timer
	pending bool
	index   int
	stopped bool
}

func newPositionWriter(delay time.Duration, log *logger.Logger, write func(ctx context.Context, index int) error) *positionWriter {
	return &positionWriter{delay: delay, write: write, log: log}
}

func (w *positionWriter) Schedule(index int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	w.pending = true
	w.index = index
	if w.delay <= 0 {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, func() {
		if err := w.Flush(context.Background()); err != nil {
			w.log.Warn("debounced position write failed", "lesson_index", index, "error", err)
		}
	})
}

// Flush writes the pending index now. A failed write stays pending.
func (w *positionWriter) Flush(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.pending || w.stopped {
		return nil
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	if err := w.write(ctx, w.index); err != nil {
		return err
	}
	w.pending = false
	return nil
}

// FlushIndex records index as pending and writes it immediately.
func (w *positionWriter) FlushIndex(ctx context.Context, index int) error {
	w.mu.Lock()
	if !w.stopped {
		w.pending = true
		w.index = index
	}
	w.mu.Unlock()
	return w.Flush(ctx)
}

// Stop drops anything pending and ignores later schedules.
func (w *positionWriter) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	w.pending = false
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *positionWriter) Pending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending
}

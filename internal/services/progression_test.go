package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/modulegate-backend/internal/modules/progression"
	"github.com/yungbote/modulegate-backend/internal/modules/progression/progressiontest"
	"github.com/yungbote/modulegate-backend/internal/platform/apierr"
	"github.com/yungbote/modulegate-backend/internal/platform/logger"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newProgressionFixture(t *testing.T, idle time.Duration) (*progressiontest.Store, *testClock, ProgressionService) {
	t.Helper()
	store := progressiontest.NewStore()
	clk := &testClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	rules := progression.DefaultRules()
	rules.PositionDebounce = 0
	engine := progression.NewEngine(progression.EngineDeps{Store: store, Rules: rules, Now: clk.Now})
	return store, clk, NewProgressionService(logger.NewNop(), engine, idle, clk.Now)
}

func apiStatus(err error) int {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

func TestProgressionService_OneSessionPerUserAndModule(t *testing.T) {
	store, _, svc := newProgressionFixture(t, time.Minute)
	ctx := context.Background()
	m, _ := store.SeedModule("Ladder Safety", 100, 2, 1)
	user := uuid.New()

	first, err := svc.OpenSession(ctx, user, m.ID)
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	second, err := svc.OpenSession(ctx, user, m.ID)
	if err != nil {
		t.Fatalf("OpenSession (again): %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected the existing session to be returned")
	}

	other, err := svc.OpenSession(ctx, uuid.New(), m.ID)
	if err != nil {
		t.Fatalf("OpenSession (other user): %v", err)
	}
	if other.ID == first.ID {
		t.Fatalf("different users must get different sessions")
	}
}

func TestProgressionService_OwnershipIsEnforced(t *testing.T) {
	store, _, svc := newProgressionFixture(t, time.Minute)
	ctx := context.Background()
	m, _ := store.SeedModule("Ladder Safety", 100, 1)
	owner := uuid.New()

	sess, err := svc.OpenSession(ctx, owner, m.ID)
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	if _, err := svc.GetSession(ctx, uuid.New(), sess.ID); apiStatus(err) != 403 {
		t.Fatalf("foreign user: expected 403, got %v", err)
	}
	if _, err := svc.GetSession(ctx, owner, uuid.New()); apiStatus(err) != 404 {
		t.Fatalf("unknown session: expected 404, got %v", err)
	}
	if err := svc.CloseSession(ctx, uuid.New(), sess.ID); apiStatus(err) != 403 {
		t.Fatalf("foreign close: expected 403, got %v", err)
	}
	if err := svc.CloseSession(ctx, owner, sess.ID); err != nil {
		t.Fatalf("CloseSession: %v", err)
	}
	if _, err := svc.GetSession(ctx, owner, sess.ID); apiStatus(err) != 404 {
		t.Fatalf("closed session should be gone, got %v", err)
	}
}

func TestProgressionService_OpenPropagatesEngineErrors(t *testing.T) {
	_, _, svc := newProgressionFixture(t, time.Minute)
	_, err := svc.OpenSession(context.Background(), uuid.New(), uuid.New())
	if !progression.IsKind(err, progression.KindNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
	if _, err := svc.OpenSession(context.Background(), uuid.Nil, uuid.New()); apiStatus(err) != 401 {
		t.Fatalf("missing user: expected 401, got %v", err)
	}
}

func TestProgressionService_SweepClosesIdleSessionsAndPersistsPosition(t *testing.T) {
	store, clk, svc := newProgressionFixture(t, time.Minute)
	ctx := context.Background()
	m, _ := store.SeedModule("Ladder Safety", 100, 0, 0)
	user := uuid.New()

	sess, err := svc.OpenSession(ctx, user, m.ID)
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	clk.Advance(3 * time.Second)
	if _, err := sess.Handle.Advance(ctx); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	clk.Advance(30 * time.Second)
	if n := svc.Sweep(ctx); n != 0 {
		t.Fatalf("sweep before idle timeout closed %d sessions", n)
	}

	clk.Advance(2 * time.Minute)
	if n := svc.Sweep(ctx); n != 1 {
		t.Fatalf("expected one idle session closed, got %d", n)
	}
	if _, err := svc.GetSession(ctx, user, sess.ID); apiStatus(err) != 404 {
		t.Fatalf("swept session should be gone, got %v", err)
	}
	c, ok := store.Completion(user, m.ID)
	if !ok || c.LastLessonIndex == nil || *c.LastLessonIndex != 1 {
		t.Fatalf("position not persisted on sweep: %+v ok=%v", c, ok)
	}
}

func TestProgressionService_FailedSweepKeepsSession(t *testing.T) {
	store, clk, svc := newProgressionFixture(t, time.Minute)
	ctx := context.Background()
	m, _ := store.SeedModule("Ladder Safety", 100, 1)
	user := uuid.New()

	sess, err := svc.OpenSession(ctx, user, m.ID)
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	store.FailAlways("UpdateModulePosition", errors.New("db down"))
	clk.Advance(2 * time.Minute)
	if n := svc.Sweep(ctx); n != 0 {
		t.Fatalf("failed close must not count, got %d", n)
	}
	if _, err := svc.GetSession(ctx, user, sess.ID); err != nil {
		t.Fatalf("session should still be registered: %v", err)
	}

	store.ClearFailures()
	if err := svc.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if _, err := svc.GetSession(ctx, user, sess.ID); apiStatus(err) != 404 {
		t.Fatalf("shutdown should drop sessions, got %v", err)
	}
}

package progression_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/modulegate-backend/internal/domain"
	"github.com/yungbote/modulegate-backend/internal/data/cache"
	"github.com/yungbote/modulegate-backend/internal/modules/progression"
	"github.com/yungbote/modulegate-backend/internal/modules/progression/progressiontest"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type spyNotifier struct {
	mu     sync.Mutex
	events []progression.CompletionEvent
}

func (n *spyNotifier) NotifyCompletion(_ context.Context, ev progression.CompletionEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

type harness struct {
	t        *testing.T
	store    *progressiontest.Store
	clock    *fakeClock
	engine   *progression.Engine
	notifier *spyNotifier
	user     uuid.UUID
}

func newHarness(t *testing.T, store progression.Store, mem *progressiontest.Store) *harness {
	t.Helper()
	clk := newClock()
	rules := progression.DefaultRules()
	rules.PositionDebounce = 0
	n := &spyNotifier{}
	return &harness{
		t:     t,
		store: mem,
		clock: clk,
		engine: progression.NewEngine(progression.EngineDeps{
			Store:    store,
			Rules:    rules,
			Notifier: n,
			Now:      clk.Now,
		}),
		notifier: n,
		user:     uuid.New(),
	}
}

func newMemHarness(t *testing.T) *harness {
	mem := progressiontest.NewStore()
	return newHarness(t, mem, mem)
}

func (h *harness) open(moduleID uuid.UUID) *progression.Handle {
	h.t.Helper()
	handle, err := h.engine.Open(context.Background(), h.user, moduleID)
	if err != nil {
		h.t.Fatalf("Open: %v", err)
	}
	return handle
}

// gated calls step past the cooldown first.
func (h *harness) advance(handle *progression.Handle) progression.ActionResult {
	h.t.Helper()
	h.clock.Advance(3 * time.Second)
	res, err := handle.Advance(context.Background())
	if err != nil {
		h.t.Fatalf("Advance: %v", err)
	}
	if res.Skipped {
		h.t.Fatalf("Advance unexpectedly skipped")
	}
	return res
}

func (h *harness) submit(handle *progression.Handle) progression.ActionResult {
	h.t.Helper()
	h.clock.Advance(3 * time.Second)
	res, err := handle.SubmitQuiz(context.Background())
	if err != nil {
		h.t.Fatalf("SubmitQuiz: %v", err)
	}
	return res
}

func (h *harness) answer(handle *progression.Handle, answers ...int) {
	h.t.Helper()
	for q, o := range answers {
		if _, err := handle.SelectAnswer(context.Background(), q, o); err != nil {
			h.t.Fatalf("SelectAnswer(%d,%d): %v", q, o, err)
		}
	}
}

func wantState(t *testing.T, got, want progression.State) {
	t.Helper()
	if got != want {
		t.Fatalf("state: want=%s got=%s", want, got)
	}
}

func TestEngine_CompletionAwardsOnceAndReopensForReview(t *testing.T) {
	h := newMemHarness(t)
	module, _ := h.store.SeedModule("Ladder Safety", 100, 1, 1)

	handle := h.open(module.ID)
	snap := handle.Snapshot()
	wantState(t, snap.State, progression.StateInLesson)
	wantState(t, snap.EntryState, progression.StateResuming)
	if snap.LessonIndex != 0 {
		t.Fatalf("start index: want 0 got %d", snap.LessonIndex)
	}

	wantState(t, h.advance(handle).Snapshot.State, progression.StateQuizOffered)
	h.answer(handle, 0)
	res := h.submit(handle)
	if res.Grade == nil || res.Grade.ScorePercent != 100 {
		t.Fatalf("lesson 1 grade: %+v", res.Grade)
	}
	wantState(t, res.Snapshot.State, progression.StateQuizGraded)

	wantState(t, h.advance(handle).Snapshot.State, progression.StateInLesson)
	h.advance(handle)
	h.answer(handle, 2)
	if res := h.submit(handle); res.Grade.ScorePercent != 0 {
		t.Fatalf("lesson 2 grade: want 0 got %d", res.Grade.ScorePercent)
	}

	res = h.advance(handle)
	wantState(t, res.Snapshot.State, progression.StateModuleDone)
	if res.Rewards == nil {
		t.Fatalf("expected reward result on completion")
	}
	r := *res.Rewards
	if r.OverallScorePercent != 50 || r.EarnedPoints != 50 {
		t.Fatalf("rewards: overall=%d earned=%d", r.OverallScorePercent, r.EarnedPoints)
	}
	if !r.BadgeGranted || r.BadgeName != "Ladder Safety Master" || r.BonusPoints != 50 {
		t.Fatalf("badge: %+v", r)
	}
	if !res.Snapshot.Completed || !res.Snapshot.Review {
		t.Fatalf("snapshot should be completed + review: %+v", res.Snapshot)
	}

	ledger := h.store.Ledger(h.user)
	if len(ledger) != 2 || ledger[0].Amount != 50 || ledger[0].Reason != types.ReasonModuleCompletion || ledger[1].Reason != types.ReasonBadgeBonus {
		t.Fatalf("unexpected ledger: %+v", ledger)
	}
	if h.store.Points(h.user) != 100 {
		t.Fatalf("points total: want 100 got %d", h.store.Points(h.user))
	}
	if got := len(h.store.Activity(h.user)); got != 2 {
		t.Fatalf("activity entries: want 2 got %d", got)
	}
	rec, _ := h.store.Completion(h.user, module.ID)
	if !rec.Completed || rec.OverallScorePercent == nil || *rec.OverallScorePercent != 50 || rec.CompletedAt == nil {
		t.Fatalf("completion record: %+v", rec)
	}
	if len(h.notifier.events) != 1 || h.notifier.events[0].BadgeName != "Ladder Safety Master" {
		t.Fatalf("notifier events: %+v", h.notifier.events)
	}

	// Completion again is a no-op.
	issuer := progression.NewRewardIssuer(h.store, progression.DefaultRules(), nil, h.clock.Now)
	again, err := issuer.IssueCompletionRewards(context.Background(), h.user, progression.ModuleContent{ID: module.ID, Title: module.Title, Points: module.Points}, 90, nil)
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}
	if !again.AlreadyCompleted || again.OverallScorePercent != 50 || again.TotalAwarded() != 0 {
		t.Fatalf("second issue should be already-completed no-op: %+v", again)
	}
	if len(h.store.Ledger(h.user)) != 2 || len(h.store.Badges(h.user)) != 1 {
		t.Fatalf("ledger or badges changed after repeat completion")
	}
	rec, _ = h.store.Completion(h.user, module.ID)
	if *rec.OverallScorePercent != 50 {
		t.Fatalf("overall score changed after repeat completion: %d", *rec.OverallScorePercent)
	}
}

func TestEngine_ExhaustedAttemptsStillAdvance(t *testing.T) {
	h := newMemHarness(t)
	module, lessons := h.store.SeedModule("Cranes", 90, 3, 0)
	handle := h.open(module.ID)

	h.advance(handle)
	scores := [][]int{{1, 1, 1}, {0, 1, 1}, {1, 0, 1}}
	for i, answers := range scores {
		if i > 0 {
			if _, err := handle.ResetQuiz(context.Background()); err != nil {
				t.Fatalf("ResetQuiz %d: %v", i, err)
			}
			wantState(t, handle.State(), progression.StateQuizInProgress)
		}
		h.answer(handle, answers...)
		res := h.submit(handle)
		if res.Grade.ScorePercent >= 50 {
			t.Fatalf("attempt %d should stay below 50, got %d", i+1, res.Grade.ScorePercent)
		}
	}

	snap := handle.Snapshot()
	if snap.Quiz == nil || snap.Quiz.CanRetake || snap.Quiz.AttemptsUsed != 3 || snap.Quiz.BestScorePercent != 33 {
		t.Fatalf("quiz view after exhaustion: %+v", snap.Quiz)
	}
	_, err := handle.ResetQuiz(context.Background())
	if !progression.IsKind(err, progression.KindAttemptsExhausted) {
		t.Fatalf("ResetQuiz: want attempts_exhausted, got %v", err)
	}
	h.clock.Advance(3 * time.Second)
	if _, err := handle.SubmitQuiz(context.Background()); !progression.IsKind(err, progression.KindInvalidTransition) {
		t.Fatalf("submit twice: want invalid_transition, got %v", err)
	}

	res := h.advance(handle)
	wantState(t, res.Snapshot.State, progression.StateInLesson)
	if res.Snapshot.LessonIndex != 1 {
		t.Fatalf("expected lesson 1, got %d", res.Snapshot.LessonIndex)
	}

	saved, ok := h.store.Attempt(h.user, lessons[0].ID)
	if !ok || saved.AttemptsUsed != 3 || saved.BestScorePercent != 33 {
		t.Fatalf("persisted attempt: %+v", saved)
	}

	// Below threshold completes without points or badge.
	res = h.advance(handle)
	r := res.Rewards
	if r == nil || !r.BelowThreshold || r.EarnedPoints != 0 || r.BadgeGranted {
		t.Fatalf("below-threshold rewards: %+v", r)
	}
	if len(h.store.Ledger(h.user)) != 0 || len(h.store.Badges(h.user)) != 0 {
		t.Fatalf("no ledger or badge expected below threshold")
	}
	acts := h.store.Activity(h.user)
	if len(acts) != 1 || acts[0].Points != 0 || acts[0].Action != types.ActionCompletedModule {
		t.Fatalf("activity: %+v", acts)
	}
	rec, _ := h.store.Completion(h.user, module.ID)
	if !rec.Completed || *rec.OverallScorePercent != 33 {
		t.Fatalf("completion record: %+v", rec)
	}
}

func TestEngine_CloseAndResume(t *testing.T) {
	h := newMemHarness(t)
	module, _ := h.store.SeedModule("Ropes", 50, 0, 0, 0, 0, 0)

	handle := h.open(module.ID)
	h.advance(handle)
	h.advance(handle)
	if got := handle.Snapshot().LessonIndex; got != 2 {
		t.Fatalf("index before close: want 2 got %d", got)
	}
	if err := handle.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := handle.Close(context.Background()); err != nil {
		t.Fatalf("second Close should be a no-op: %v", err)
	}
	if _, err := handle.Advance(context.Background()); !progression.IsKind(err, progression.KindInvalidTransition) {
		t.Fatalf("action after close: want invalid_transition, got %v", err)
	}
	rec, _ := h.store.Completion(h.user, module.ID)
	if rec.Completed || rec.LastLessonIndex == nil || *rec.LastLessonIndex != 2 {
		t.Fatalf("completion record after close: %+v", rec)
	}

	reopened := h.open(module.ID)
	snap := reopened.Snapshot()
	if snap.LessonIndex != 2 || snap.Review {
		t.Fatalf("resume: want index 2 outside review, got %+v", snap)
	}
	wantState(t, snap.EntryState, progression.StateResuming)
}

func TestEngine_FallbackStartsAtFirstUnattemptedQuiz(t *testing.T) {
	h := newMemHarness(t)
	module, _ := h.store.SeedModule("Scaffolds", 10, 0, 1, 1)

	handle := h.open(module.ID)
	if got := handle.Snapshot().LessonIndex; got != 1 {
		t.Fatalf("fallback start: want 1 got %d", got)
	}
}

func TestEngine_SubmitPersistenceFailureIsRetryable(t *testing.T) {
	h := newMemHarness(t)
	module, lessons := h.store.SeedModule("Harness", 100, 2)
	handle := h.open(module.ID)

	h.advance(handle)
	h.answer(handle, 0, 0)
	h.store.FailNext("UpsertLessonAttempt", errors.New("connection reset"))

	h.clock.Advance(3 * time.Second)
	res, err := handle.SubmitQuiz(context.Background())
	if !progression.IsKind(err, progression.KindPersistenceFailure) || !progression.IsRetryable(err) {
		t.Fatalf("want retryable persistence_failure, got %v", err)
	}
	if res.Grade == nil || res.Grade.ScorePercent != 100 {
		t.Fatalf("grade should be kept optimistically: %+v", res.Grade)
	}
	if !res.Snapshot.UnsavedChanges {
		t.Fatalf("snapshot should report unsaved changes")
	}
	wantState(t, res.Snapshot.State, progression.StateQuizGraded)
	if _, ok := h.store.Attempt(h.user, lessons[0].ID); ok {
		t.Fatalf("nothing should be persisted after the failed write")
	}

	res = h.submit(handle)
	if res.Snapshot.UnsavedChanges {
		t.Fatalf("retry should clear unsaved changes")
	}
	saved, ok := h.store.Attempt(h.user, lessons[0].ID)
	if !ok || saved.AttemptsUsed != 1 || saved.BestScorePercent != 100 || !saved.Submitted {
		t.Fatalf("retried save: %+v", saved)
	}
}

func TestEngine_CompletionFailureRollsBackAndRetries(t *testing.T) {
	h := newMemHarness(t)
	module, _ := h.store.SeedModule("Welding", 100, 2)
	handle := h.open(module.ID)

	h.advance(handle)
	h.answer(handle, 0, 1)
	h.submit(handle)

	h.store.FailNext("ClaimCompletion", errors.New("deadlock detected"))
	h.clock.Advance(3 * time.Second)
	res, err := handle.Advance(context.Background())
	if !progression.IsKind(err, progression.KindPersistenceFailure) {
		t.Fatalf("want persistence_failure, got %v", err)
	}
	wantState(t, res.Snapshot.State, progression.StateQuizGraded)
	if res.Snapshot.Completed {
		t.Fatalf("completed flag must not be set before a confirmed write")
	}
	if len(h.store.Ledger(h.user)) != 0 || len(h.store.Badges(h.user)) != 0 || len(h.store.Activity(h.user)) != 0 {
		t.Fatalf("reward writes should roll back with the failed claim")
	}

	res = h.advance(handle)
	if res.Rewards == nil || res.Rewards.EarnedPoints != 50 || !res.Rewards.BadgeGranted {
		t.Fatalf("retry rewards: %+v", res.Rewards)
	}
	if len(h.store.Ledger(h.user)) != 2 {
		t.Fatalf("ledger after retry: %+v", h.store.Ledger(h.user))
	}
}

func TestEngine_ExistingBadgeStillAwardsPoints(t *testing.T) {
	h := newMemHarness(t)
	module, _ := h.store.SeedModule("Forklifts", 40, 1)
	if err := h.store.CreateBadgeGrant(context.Background(), h.user, module.ID, "Forklifts Master"); err != nil {
		t.Fatalf("seed badge: %v", err)
	}
	handle := h.open(module.ID)
	h.advance(handle)
	h.answer(handle, 0)
	h.submit(handle)
	res := h.advance(handle)
	if res.Rewards.EarnedPoints != 40 || res.Rewards.BadgeGranted || res.Rewards.BonusPoints != 0 {
		t.Fatalf("rewards: %+v", res.Rewards)
	}
	if len(h.store.Ledger(h.user)) != 1 || len(h.store.Badges(h.user)) != 1 {
		t.Fatalf("expected one ledger entry and the pre-existing badge only")
	}
}

func TestEngine_CooldownSilentlySkips(t *testing.T) {
	h := newMemHarness(t)
	module, _ := h.store.SeedModule("Ladders", 10, 0, 0, 0)
	handle := h.open(module.ID)

	h.advance(handle)
	res, err := handle.Advance(context.Background())
	if err != nil {
		t.Fatalf("advance within cooldown should not error: %v", err)
	}
	if !res.Skipped || res.Snapshot.LessonIndex != 1 {
		t.Fatalf("expected skipped no-op at index 1, got skipped=%v index=%d", res.Skipped, res.Snapshot.LessonIndex)
	}
	h.clock.Advance(2500 * time.Millisecond)
	res, err = handle.Advance(context.Background())
	if err != nil || res.Skipped || res.Snapshot.LessonIndex != 2 {
		t.Fatalf("advance after cooldown: skipped=%v index=%d err=%v", res.Skipped, res.Snapshot.LessonIndex, err)
	}
}

func TestEngine_ReviewModeIsReadOnly(t *testing.T) {
	h := newMemHarness(t)
	module, _ := h.store.SeedModule("Chemicals", 20, 1, 1)
	first := h.open(module.ID)
	for i := 0; i < 2; i++ {
		h.advance(first)
		h.answer(first, 0)
		h.submit(first)
		h.advance(first)
	}
	wantState(t, first.State(), progression.StateModuleDone)
	positionWrites := h.store.Calls("UpdateModulePosition")
	ledger := len(h.store.Ledger(h.user))

	handle := h.open(module.ID)
	snap := handle.Snapshot()
	if !snap.Review || snap.LessonIndex != 0 {
		t.Fatalf("completed module should open in review at 0: %+v", snap)
	}
	wantState(t, snap.EntryState, progression.StateReviewBrowsing)

	if _, err := handle.SelectAnswer(context.Background(), 0, 0); !progression.IsKind(err, progression.KindInvalidTransition) {
		t.Fatalf("select in review: want invalid_transition, got %v", err)
	}
	res := h.advance(handle)
	wantState(t, res.Snapshot.State, progression.StateInLesson)
	if res.Snapshot.LessonIndex != 1 {
		t.Fatalf("review advance should skip the quiz: %+v", res.Snapshot)
	}
	res = h.advance(handle)
	wantState(t, res.Snapshot.State, progression.StateModuleDone)
	if res.Rewards != nil {
		t.Fatalf("review completion must not issue rewards")
	}
	if _, err := handle.Retreat(context.Background()); err != nil {
		t.Fatalf("Retreat from done: %v", err)
	}
	if err := handle.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if h.store.Calls("UpdateModulePosition") != positionWrites {
		t.Fatalf("review browsing wrote a position")
	}
	if len(h.store.Ledger(h.user)) != ledger {
		t.Fatalf("review browsing changed the ledger")
	}
}

func TestEngine_RetreatAndQuizGating(t *testing.T) {
	h := newMemHarness(t)
	module, _ := h.store.SeedModule("Noise", 10, 1, 0)
	handle := h.open(module.ID)

	if _, err := handle.Retreat(context.Background()); !progression.IsKind(err, progression.KindInvalidTransition) {
		t.Fatalf("retreat at 0: want invalid_transition, got %v", err)
	}
	if _, err := handle.SubmitQuiz(context.Background()); !progression.IsKind(err, progression.KindInvalidTransition) {
		t.Fatalf("submit without quiz: want invalid_transition, got %v", err)
	}
	h.advance(handle)
	h.answer(handle, 1)
	h.clock.Advance(3 * time.Second)
	if _, err := handle.Advance(context.Background()); !progression.IsKind(err, progression.KindInvalidTransition) {
		t.Fatalf("advance with open quiz: want invalid_transition, got %v", err)
	}
	res, err := handle.Retreat(context.Background())
	if err != nil {
		t.Fatalf("Retreat from quiz: %v", err)
	}
	wantState(t, res.Snapshot.State, progression.StateInLesson)

	res = h.advance(handle)
	wantState(t, res.Snapshot.State, progression.StateQuizInProgress)
	if res.Snapshot.Quiz == nil || res.Snapshot.Quiz.SelectedAnswers[0] != 1 {
		t.Fatalf("selected answers should survive leaving the quiz: %+v", res.Snapshot.Quiz)
	}
	if res.Snapshot.Quiz.Questions[0].CorrectIndex != nil {
		t.Fatalf("correct answer leaked before grading")
	}
}

func TestEngine_OpenErrors(t *testing.T) {
	h := newMemHarness(t)

	if _, err := h.engine.Open(context.Background(), h.user, uuid.New()); !progression.IsKind(err, progression.KindNotFound) {
		t.Fatalf("unknown module: want not_found, got %v", err)
	}

	module, _ := h.store.SeedModule("Locked", 10, 1)
	h.store.SetLocked(module.ID, true)
	if _, err := h.engine.Open(context.Background(), h.user, module.ID); !progression.IsKind(err, progression.KindInvalidTransition) {
		t.Fatalf("locked module: want invalid_transition, got %v", err)
	}
	h.store.SetLocked(module.ID, false)

	h.store.FailNext("ListLessonAttempts", errors.New("timeout"))
	if _, err := h.engine.Open(context.Background(), h.user, module.ID); !progression.IsKind(err, progression.KindPersistenceFailure) {
		t.Fatalf("read failure: want persistence_failure, got %v", err)
	}
	if _, ok := h.store.Completion(h.user, module.ID); ok {
		t.Fatalf("failed open must not create a completion record")
	}
}

func TestEngine_ContentCache(t *testing.T) {
	mem := progressiontest.NewStore()
	module, _ := mem.SeedModule("Cached", 10, 1)
	engine := progression.NewEngine(progression.EngineDeps{
		Store:      mem,
		Cache:      cache.NewMemory(time.Minute),
		ContentTTL: time.Minute,
	})
	for i := 0; i < 2; i++ {
		h, err := engine.Open(context.Background(), uuid.New(), module.ID)
		if err != nil {
			t.Fatalf("Open %d: %v", i, err)
		}
		if h.CurrentLesson().QuestionCount != 1 {
			t.Fatalf("cached lesson lost its questions")
		}
	}
	if got := mem.Calls("GetModule"); got != 1 {
		t.Fatalf("second open should hit the cache, GetModule calls=%d", got)
	}
}

// blockingStore parks UpsertLessonAttempt until released.
type blockingStore struct {
	*progressiontest.Store
	entered chan struct{}
	release chan struct{}
}

func (b *blockingStore) UpsertLessonAttempt(ctx context.Context, row *types.LessonAttempt) error {
	close(b.entered)
	<-b.release
	return b.Store.UpsertLessonAttempt(ctx, row)
}

func TestEngine_OverlappingActionsRejected(t *testing.T) {
	mem := progressiontest.NewStore()
	bs := &blockingStore{Store: mem, entered: make(chan struct{}), release: make(chan struct{})}
	h := newHarness(t, bs, mem)
	module, _ := mem.SeedModule("Overlap", 10, 1, 0)
	handle := h.open(module.ID)
	h.advance(handle)
	h.answer(handle, 0)

	h.clock.Advance(3 * time.Second)
	done := make(chan error, 1)
	go func() {
		_, err := handle.SubmitQuiz(context.Background())
		done <- err
	}()
	<-bs.entered

	if _, err := handle.Retreat(context.Background()); !progression.IsKind(err, progression.KindInvalidTransition) {
		t.Fatalf("overlapping action: want invalid_transition, got %v", err)
	}
	close(bs.release)
	if err := <-done; err != nil {
		t.Fatalf("in-flight submit: %v", err)
	}
	wantState(t, handle.State(), progression.StateQuizGraded)
}

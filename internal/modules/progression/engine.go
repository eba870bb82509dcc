package progression

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	types "github.com/yungbote/modulegate-backend/internal/domain"
	"github.com/yungbote/modulegate-backend/internal/platform/logger"
)

var tracer = otel.Tracer("github.com/yungbote/modulegate-backend/internal/modules/progression")

type EngineDeps struct {
	Store    Store
	Cache    Cache
	Rules    Rules
	Log      *logger.Logger
	Hooks    Hooks
	Notifier Notifier
	Now      func() time.Time
	// ContentTTL bounds how old a cached module may be. Zero means no bound.
	ContentTTL time.Duration
}

type Engine struct {
	store      Store
	cache      Cache
	rules      Rules
	log        *logger.Logger
	hooks      Hooks
	notifier   Notifier
	now        func() time.Time
	contentTTL time.Duration
	issuer     *RewardIssuer
}

func NewEngine(deps EngineDeps) *Engine {
	if deps.Log == nil {
		deps.Log = logger.NewNop()
	}
	if deps.Hooks == nil {
		deps.Hooks = noopHooks{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Rules.MaxAttempts == 0 {
		deps.Rules = DefaultRules()
	}
	log := deps.Log.With("component", "ProgressionEngine")
	return &Engine{
		store:      deps.Store,
		cache:      deps.Cache,
		rules:      deps.Rules,
		log:        log,
		hooks:      deps.Hooks,
		notifier:   deps.Notifier,
		now:        deps.Now,
		contentTTL: deps.ContentTTL,
		issuer:     NewRewardIssuer(deps.Store, deps.Rules, deps.Log, deps.Now),
	}
}

func (e *Engine) Rules() Rules { return e.rules }

// Open loads everything a session needs. Any read failure aborts the open;
// no handle is returned.
func (e *Engine) Open(ctx context.Context, userID, moduleID uuid.UUID) (h *Handle, err error) {
	const op = "progression.open"
	start := time.Now()
	ctx, span := tracer.Start(ctx, op)
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
		e.hooks.ObserveAction("open", actionStatus(err), time.Since(start))
	}()
	span.SetAttributes(attribute.String("module_id", moduleID.String()))

	if userID == uuid.Nil || moduleID == uuid.Nil {
		return nil, notFound(op, "user and module are required")
	}

	var (
		content    *ModuleContent
		completion *types.ModuleCompletion
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := e.loadContent(gctx, moduleID)
		content = c
		return err
	})
	g.Go(func() error {
		c, err := e.store.GetModuleCompletion(gctx, userID, moduleID)
		if err != nil {
			return persistenceFailure(op, err)
		}
		completion = c
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if content.Locked {
		return nil, invalidTransition(op, "module is locked")
	}

	lessonIDs := make([]uuid.UUID, 0, len(content.Lessons))
	for _, l := range content.Lessons {
		lessonIDs = append(lessonIDs, l.ID)
	}
	stored, err := e.store.ListLessonAttempts(ctx, userID, lessonIDs)
	if err != nil {
		return nil, persistenceFailure(op, err)
	}
	if completion == nil {
		completion, err = e.store.EnsureModuleCompletion(ctx, userID, moduleID)
		if err != nil {
			return nil, persistenceFailure(op, err)
		}
	}

	h = e.newHandle(userID, *content, completion, stored)
	e.log.Debug("module opened",
		"user_id", userID,
		"module_id", moduleID,
		"entry_state", h.entry.String(),
		"lesson_index", h.index,
	)
	return h, nil
}

func (e *Engine) newHandle(userID uuid.UUID, content ModuleContent, completion *types.ModuleCompletion, stored map[uuid.UUID]*types.LessonAttempt) *Handle {
	attempts := make(map[uuid.UUID]*AttemptState, len(content.Lessons))
	for _, l := range content.Lessons {
		if !l.HasQuiz() {
			continue
		}
		at := NewAttemptState(l.ID, len(l.Questions))
		if row := stored[l.ID]; row != nil {
			at.AttemptsUsed = clampAttempts(row.AttemptsUsed, e.rules.MaxAttempts)
			at.BestScorePercent = row.BestScorePercent
			at.LastScorePercent = row.LastScorePercent
			at.Submitted = row.Submitted
			if answers := row.Answers(); answers != nil {
				at.SelectedAnswers = resizeAnswers(answers, len(l.Questions))
			}
		}
		attempts[l.ID] = at
	}

	h := &Handle{
		engine:    e,
		userID:    userID,
		content:   content,
		attempts:  attempts,
		dirty:     make(map[uuid.UUID]bool),
		completed: completion.Completed,
		limiter:   newCooldown(e.rules.ActionCooldown),
		log:       e.log.With("user_id", userID, "module_id", content.ID),
	}
	if completion.OverallScorePercent != nil {
		h.overallScore = *completion.OverallScorePercent
	}
	h.earnedPoints = completion.EarnedPoints
	h.index, h.review = DetermineStartingLesson(completion.Completed, completion.LastLessonIndex, h.lessonScores())
	h.entry = StateResuming
	if h.review {
		h.entry = StateReviewBrowsing
	}
	h.state = StateInLesson
	h.position = newPositionWriter(e.rules.PositionDebounce, h.log, h.writePosition)
	if h.review {
		h.position.Stop()
	}
	return h
}

func newCooldown(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}

func clampAttempts(n, max int) int {
	switch {
	case n < 0:
		return 0
	case n > max:
		return max
	}
	return n
}

func actionStatus(err error) string {
	if err == nil {
		return "success"
	}
	if k := KindOf(err); k != "" {
		return string(k)
	}
	return "error"
}

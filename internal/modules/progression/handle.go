package progression

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	types "github.com/yungbote/modulegate-backend/internal/domain"
	"github.com/yungbote/modulegate-backend/internal/platform/logger"
)

// Handle is one learner's session on one module. Actions run one at a time;
// an action that arrives while another is in flight is rejected.
type Handle struct {
	engine   *Engine
	userID   uuid.UUID
	content  ModuleContent
	log      *logger.Logger
	limiter  *rate.Limiter
	position *positionWriter

	busy atomic.Bool
	mu   sync.Mutex

	state        State
	entry        State
	index        int
	review       bool
	completed    bool
	overallScore int
	earnedPoints int
	attempts     map[uuid.UUID]*AttemptState
	dirty        map[uuid.UUID]bool
	lastGrade    *GradeResult
	closed       bool
}

// ActionResult is returned by every handle action. Skipped marks a call
// swallowed by the action cooldown.
type ActionResult struct {
	Snapshot Snapshot      `json:"snapshot"`
	Skipped  bool          `json:"skipped,omitempty"`
	Grade    *GradeResult  `json:"grade,omitempty"`
	Rewards  *RewardResult `json:"rewards,omitempty"`
}

func (h *Handle) UserID() uuid.UUID   { return h.userID }
func (h *Handle) ModuleID() uuid.UUID { return h.content.ID }

func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Handle) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked()
}

func (h *Handle) CurrentLesson() LessonView {
	h.mu.Lock()
	defer h.mu.Unlock()
	return lessonView(h.content.Lessons[h.index])
}

func (h *Handle) begin(ctx context.Context, action string) (context.Context, func(*error), error) {
	op := "progression." + action
	if !h.busy.CompareAndSwap(false, true) {
		return ctx, nil, invalidTransition(op, "another action is in progress")
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		h.busy.Store(false)
		return ctx, nil, invalidTransition(op, "session is closed")
	}
	start := time.Now()
	ctx, span := tracer.Start(ctx, op)
	span.SetAttributes(
		attribute.String("module_id", h.content.ID.String()),
		attribute.String("state", h.state.String()),
		attribute.Int("lesson_index", h.index),
	)
	finish := func(errp *error) {
		if *errp != nil {
			span.RecordError(*errp)
		}
		span.End()
		h.engine.hooks.ObserveAction(action, actionStatus(*errp), time.Since(start))
		h.mu.Unlock()
		h.busy.Store(false)
	}
	return ctx, finish, nil
}

// allow applies the advance/submit cooldown.
func (h *Handle) allow() bool {
	return h.limiter.AllowN(h.engine.now(), 1)
}

func (h *Handle) currentLesson() LessonContent {
	return h.content.Lessons[h.index]
}

func (h *Handle) result() ActionResult {
	return ActionResult{Snapshot: h.snapshotLocked()}
}

func (h *Handle) skipped() ActionResult {
	return ActionResult{Snapshot: h.snapshotLocked(), Skipped: true}
}

func (h *Handle) SelectAnswer(ctx context.Context, questionIndex, optionIndex int) (res ActionResult, err error) {
	const op = "progression.select_answer"
	_, finish, err := h.begin(ctx, "select_answer")
	if err != nil {
		return ActionResult{}, err
	}
	defer finish(&err)

	if h.review {
		return h.result(), invalidTransition(op, "module is in review mode")
	}
	switch h.state {
	case StateQuizOffered, StateQuizInProgress:
	case StateQuizGraded:
		return h.result(), invalidTransition(op, "quiz already submitted; reset to retake")
	default:
		return h.result(), invalidTransition(op, "no quiz is open")
	}

	lesson := h.currentLesson()
	at := h.attempts[lesson.ID]
	optionCount := 0
	if questionIndex >= 0 && questionIndex < len(lesson.Questions) {
		optionCount = len(lesson.Questions[questionIndex].Options)
	}
	if err := at.Select(questionIndex, optionIndex, optionCount); err != nil {
		return h.result(), err
	}
	h.state = StateQuizInProgress
	h.dirty[lesson.ID] = true
	return h.result(), nil
}

// SubmitQuiz grades the open quiz and saves the attempt. When the save fails
// the grade is kept and calling SubmitQuiz again retries the save.
func (h *Handle) SubmitQuiz(ctx context.Context) (res ActionResult, err error) {
	const op = "progression.submit_quiz"
	ctx, finish, err := h.begin(ctx, "submit_quiz")
	if err != nil {
		return ActionResult{}, err
	}
	defer finish(&err)

	if h.review {
		return h.result(), invalidTransition(op, "module is in review mode")
	}
	lesson := h.currentLesson()
	at := h.attempts[lesson.ID]

	switch h.state {
	case StateQuizOffered, StateQuizInProgress:
	case StateQuizGraded:
		if !h.dirty[lesson.ID] {
			return h.result(), invalidTransition(op, "quiz already submitted; reset to retake")
		}
		if !h.allow() {
			return h.skipped(), nil
		}
		if err := h.saveAttempt(ctx, lesson.ID); err != nil {
			return ActionResult{Snapshot: h.snapshotLocked(), Grade: h.lastGrade}, err
		}
		return ActionResult{Snapshot: h.snapshotLocked(), Grade: h.lastGrade}, nil
	default:
		return h.result(), invalidTransition(op, "no quiz is open")
	}

	if !h.allow() {
		return h.skipped(), nil
	}
	grade, err := at.Submit(lesson.correctIndexes(), h.engine.rules.MaxAttempts)
	if err != nil {
		return h.result(), err
	}
	h.lastGrade = &grade
	h.state = StateQuizGraded
	h.dirty[lesson.ID] = true

	outcome := "fail"
	if grade.ScorePercent >= h.engine.rules.PassThresholdPercent {
		outcome = "pass"
	}
	h.engine.hooks.IncQuizSubmission(outcome)
	h.log.Debug("quiz submitted",
		"lesson_id", lesson.ID,
		"score_percent", grade.ScorePercent,
		"attempts_used", grade.AttemptsUsed,
	)

	if err := h.saveAttempt(ctx, lesson.ID); err != nil {
		return ActionResult{Snapshot: h.snapshotLocked(), Grade: &grade}, err
	}
	return ActionResult{Snapshot: h.snapshotLocked(), Grade: &grade}, nil
}

func (h *Handle) ResetQuiz(ctx context.Context) (res ActionResult, err error) {
	const op = "progression.reset_quiz"
	_, finish, err := h.begin(ctx, "reset_quiz")
	if err != nil {
		return ActionResult{}, err
	}
	defer finish(&err)

	if h.review {
		return h.result(), invalidTransition(op, "module is in review mode")
	}
	if h.state != StateQuizGraded {
		return h.result(), invalidTransition(op, "nothing to reset; quiz is not graded")
	}
	lesson := h.currentLesson()
	if err := h.attempts[lesson.ID].Reset(h.engine.rules.MaxAttempts); err != nil {
		return h.result(), err
	}
	h.state = StateQuizInProgress
	h.lastGrade = nil
	h.dirty[lesson.ID] = true
	return h.result(), nil
}

// Advance moves the session forward: into the lesson's quiz, to the next
// lesson, or through completion when leaving the last lesson.
func (h *Handle) Advance(ctx context.Context) (res ActionResult, err error) {
	const op = "progression.advance"
	ctx, finish, err := h.begin(ctx, "advance")
	if err != nil {
		return ActionResult{}, err
	}
	defer finish(&err)

	lesson := h.currentLesson()
	switch h.state {
	case StateModuleDone:
		return h.result(), invalidTransition(op, "module is finished")
	case StateQuizOffered, StateQuizInProgress:
		return h.result(), invalidTransition(op, "submit the quiz before moving on")
	case StateInLesson:
		if !h.allow() {
			return h.skipped(), nil
		}
		if !h.review && lesson.HasQuiz() {
			at := h.attempts[lesson.ID]
			if at.CanRetake(h.engine.rules.MaxAttempts) {
				switch {
				case at.Submitted:
					h.state = StateQuizGraded
					grade := at.result(len(lesson.Questions), h.engine.rules.MaxAttempts, GradeAnswers(at.SelectedAnswers, lesson.correctIndexes()))
					h.lastGrade = &grade
				case at.Touched():
					h.state = StateQuizInProgress
				default:
					h.state = StateQuizOffered
				}
				return h.result(), nil
			}
		}
		return h.moveNext(ctx)
	case StateQuizGraded:
		if !h.allow() {
			return h.skipped(), nil
		}
		if h.dirty[lesson.ID] {
			if err := h.saveAttempt(ctx, lesson.ID); err != nil {
				return h.result(), err
			}
		}
		return h.moveNext(ctx)
	default:
		return h.result(), invalidTransition(op, "cannot advance from "+h.state.String())
	}
}

func (h *Handle) moveNext(ctx context.Context) (ActionResult, error) {
	next, done := NextLesson(h.index, len(h.content.Lessons))
	if !done {
		h.index = next
		h.state = StateInLesson
		h.lastGrade = nil
		if !h.review && !h.completed {
			h.position.Schedule(h.index)
		}
		return h.result(), nil
	}
	if h.review || h.completed {
		h.state = StateModuleDone
		return h.result(), nil
	}
	return h.complete(ctx)
}

// complete runs the ModuleCompleting step. The in-memory completed flag is
// set only after the issuer confirms the terminal write.
func (h *Handle) complete(ctx context.Context) (ActionResult, error) {
	prev := h.state
	h.state = StateModuleCompleting

	if err := h.position.Flush(ctx); err != nil {
		h.log.Warn("position write before completion failed", "error", err)
	}
	if err := h.flushAttempts(ctx); err != nil {
		h.state = prev
		return h.result(), err
	}

	scores := h.lessonScores()
	overall := Aggregate(scores)
	rewards, err := h.engine.issuer.IssueCompletionRewards(ctx, h.userID, h.content, overall, scores)
	if err != nil {
		h.state = prev
		h.engine.hooks.IncModuleCompletion("failed")
		return h.result(), err
	}

	h.position.Stop()
	h.completed = true
	h.review = true
	h.state = StateModuleDone
	h.lastGrade = nil
	h.overallScore = rewards.OverallScorePercent
	if !rewards.AlreadyCompleted {
		h.earnedPoints = rewards.EarnedPoints
	}

	outcome := "awarded"
	switch {
	case rewards.AlreadyCompleted:
		outcome = "already_completed"
	case rewards.BelowThreshold:
		outcome = "below_threshold"
	}
	h.engine.hooks.IncModuleCompletion(outcome)
	h.engine.hooks.AddPointsAwarded(rewards.TotalAwarded())

	if !rewards.AlreadyCompleted && h.engine.notifier != nil {
		ev := CompletionEvent{
			UserID:              h.userID,
			ModuleID:            h.content.ID,
			ModuleTitle:         h.content.Title,
			OverallScorePercent: rewards.OverallScorePercent,
			EarnedPoints:        rewards.TotalAwarded(),
			CompletedAt:         h.engine.now().UTC(),
		}
		if rewards.BadgeGranted {
			ev.BadgeName = rewards.BadgeName
		}
		if err := h.engine.notifier.NotifyCompletion(ctx, ev); err != nil {
			h.log.Warn("completion notify failed", "error", err)
		}
	}
	return ActionResult{Snapshot: h.snapshotLocked(), Rewards: &rewards}, nil
}

func (h *Handle) Retreat(ctx context.Context) (res ActionResult, err error) {
	const op = "progression.retreat"
	_, finish, err := h.begin(ctx, "retreat")
	if err != nil {
		return ActionResult{}, err
	}
	defer finish(&err)

	switch h.state {
	case StateQuizOffered, StateQuizInProgress, StateQuizGraded:
		h.state = StateInLesson
		h.lastGrade = nil
		return h.result(), nil
	case StateInLesson:
		prev, err := PreviousLesson(h.index)
		if err != nil {
			return h.result(), err
		}
		h.index = prev
		if !h.review && !h.completed {
			h.position.Schedule(h.index)
		}
		return h.result(), nil
	case StateModuleDone:
		h.index = len(h.content.Lessons) - 1
		h.state = StateInLesson
		return h.result(), nil
	default:
		return h.result(), invalidTransition(op, "cannot retreat from "+h.state.String())
	}
}

// Close persists position and unsaved attempts, never the completion flag.
// It waits for an in-flight action and is idempotent. On failure the handle
// stays open so Close can be retried.
func (h *Handle) Close(ctx context.Context) (err error) {
	const op = "progression.close"
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	start := time.Now()
	ctx, span := tracer.Start(ctx, op)
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
		h.engine.hooks.ObserveAction("close", actionStatus(err), time.Since(start))
	}()

	if !h.completed && !h.review {
		if err := h.position.FlushIndex(ctx, h.index); err != nil {
			return persistenceFailure(op, err)
		}
	}
	if err := h.flushAttempts(ctx); err != nil {
		return err
	}
	h.position.Stop()
	h.closed = true
	h.state = StateClosed
	return nil
}

func (h *Handle) writePosition(ctx context.Context, index int) error {
	if _, err := h.engine.store.UpdateModulePosition(ctx, h.userID, h.content.ID, index); err != nil {
		return persistenceFailure("progression.save_position", err)
	}
	return nil
}

func (h *Handle) saveAttempt(ctx context.Context, lessonID uuid.UUID) error {
	at := h.attempts[lessonID]
	if at == nil {
		return nil
	}
	row := &types.LessonAttempt{
		UserID:           h.userID,
		LessonID:         lessonID,
		ModuleID:         h.content.ID,
		SelectedAnswers:  types.EncodeAnswers(at.SelectedAnswers),
		Submitted:        at.Submitted,
		AttemptsUsed:     at.AttemptsUsed,
		BestScorePercent: at.BestScorePercent,
		LastScorePercent: at.LastScorePercent,
	}
	if err := h.engine.store.UpsertLessonAttempt(ctx, row); err != nil {
		h.log.Warn("attempt save failed", "lesson_id", lessonID, "error", err)
		return persistenceFailure("progression.save_attempt", err)
	}
	delete(h.dirty, lessonID)
	return nil
}

// flushAttempts saves dirty attempts in lesson order, stopping at the first failure.
func (h *Handle) flushAttempts(ctx context.Context) error {
	for _, l := range h.content.Lessons {
		if !h.dirty[l.ID] {
			continue
		}
		if err := h.saveAttempt(ctx, l.ID); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handle) lessonScores() []LessonScore {
	out := make([]LessonScore, 0, len(h.content.Lessons))
	for _, l := range h.content.Lessons {
		s := LessonScore{LessonID: l.ID, QuestionCount: len(l.Questions)}
		if at := h.attempts[l.ID]; at != nil {
			s.AttemptsUsed = at.AttemptsUsed
			s.BestScorePercent = at.BestScorePercent
		}
		out = append(out, s)
	}
	return out
}

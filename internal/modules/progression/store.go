package progression

import (
	"context"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/modulegate-backend/internal/domain"
)

// Store is the persistence port the engine drives. Reads return (nil, nil)
// for missing rows. Every method must be safe to call inside InTx.
type Store interface {
	GetModule(ctx context.Context, moduleID uuid.UUID) (*types.Module, error)
	ListLessons(ctx context.Context, moduleID uuid.UUID) ([]*types.Lesson, error)
	ListQuizQuestions(ctx context.Context, lessonIDs []uuid.UUID) ([]*types.QuizQuestion, error)

	GetModuleCompletion(ctx context.Context, userID, moduleID uuid.UUID) (*types.ModuleCompletion, error)
	// EnsureModuleCompletion finds or creates the open record for (user, module).
	EnsureModuleCompletion(ctx context.Context, userID, moduleID uuid.UUID) (*types.ModuleCompletion, error)
	// UpdateModulePosition writes last_lesson_index only while the record is
	// not completed. It reports whether a row changed.
	UpdateModulePosition(ctx context.Context, userID, moduleID uuid.UUID, lessonIndex int) (bool, error)
	// ClaimCompletion flips completed false->true in one conditional write.
	// claimed is false when the record was already completed.
	ClaimCompletion(ctx context.Context, userID, moduleID uuid.UUID, claim CompletionClaim) (claimed bool, err error)

	ListLessonAttempts(ctx context.Context, userID uuid.UUID, lessonIDs []uuid.UUID) (map[uuid.UUID]*types.LessonAttempt, error)
	UpsertLessonAttempt(ctx context.Context, row *types.LessonAttempt) error

	// AppendRewardLedgerEntry also bumps the user's running point total.
	AppendRewardLedgerEntry(ctx context.Context, userID uuid.UUID, moduleID *uuid.UUID, amount int, reason string) error
	HasBadgeGrant(ctx context.Context, userID uuid.UUID, badgeName string) (bool, error)
	CreateBadgeGrant(ctx context.Context, userID, moduleID uuid.UUID, badgeName string) error
	AppendActivityLogEntry(ctx context.Context, userID uuid.UUID, action, item string, points int) error

	// InTx runs fn against a transactional view; fn's error rolls back.
	InTx(ctx context.Context, fn func(tx Store) error) error
}

type CompletionClaim struct {
	OverallScorePercent int
	EarnedPoints        int
	CompletedAt         time.Time
}

// Cache is the content cache port. Get reports the entry's age on a hit.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (age time.Duration, ok bool, err error)
	Set(ctx context.Context, key string, value any) error
}

// Hooks receives engine telemetry.
type Hooks interface {
	ObserveAction(action, status string, dur time.Duration)
	IncQuizSubmission(result string)
	IncModuleCompletion(outcome string)
	AddPointsAwarded(points int)
}

type noopHooks struct{}

func (noopHooks) ObserveAction(string, string, time.Duration) {}
func (noopHooks) IncQuizSubmission(string)                    {}
func (noopHooks) IncModuleCompletion(string)                  {}
func (noopHooks) AddPointsAwarded(int)                        {}

type CompletionEvent struct {
	UserID              uuid.UUID `json:"user_id"`
	ModuleID            uuid.UUID `json:"module_id"`
	ModuleTitle         string    `json:"module_title"`
	OverallScorePercent int       `json:"overall_score_percent"`
	EarnedPoints        int       `json:"earned_points"`
	BadgeName           string    `json:"badge_name,omitempty"`
	CompletedAt         time.Time `json:"completed_at"`
}

// Notifier is told about confirmed completions after commit.
type Notifier interface {
	NotifyCompletion(ctx context.Context, ev CompletionEvent) error
}

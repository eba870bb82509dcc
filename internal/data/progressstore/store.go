// Package progressstore backs the progression engine's Store port with the
// gorm repos. Multi-row writes run through the aggregate write boundary so
// they share one transaction, one error mapping and one set of hooks.
package progressstore

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/modulegate-backend/internal/data/aggregates"
	"github.com/yungbote/modulegate-backend/internal/data/repos"
	types "github.com/yungbote/modulegate-backend/internal/domain"
	domainagg "github.com/yungbote/modulegate-backend/internal/domain/aggregates"
	"github.com/yungbote/modulegate-backend/internal/modules/progression"
	"github.com/yungbote/modulegate-backend/internal/platform/dbctx"
	"github.com/yungbote/modulegate-backend/internal/platform/logger"
)

const completionTable = "module_completion"

type Store struct {
	deps  aggregates.BaseDeps
	repos *repos.Set
	log   *logger.Logger

	// tx is set on the view handed to InTx callbacks.
	tx *gorm.DB
}

var (
	_ progression.Store   = (*Store)(nil)
	_ domainagg.Aggregate = (*Store)(nil)
)

func New(deps aggregates.BaseDeps, set *repos.Set) *Store {
	deps = deps.WithDefaults()
	if set == nil {
		set = repos.NewSet(deps.DB, deps.Log)
	}
	return &Store{
		deps:  deps,
		repos: set,
		log:   deps.Log.With("component", "ProgressStore"),
	}
}

func (s *Store) Contract() domainagg.Contract { return domainagg.ProgressContract }

func (s *Store) dbc(ctx context.Context) dbctx.Context {
	return dbctx.Context{Ctx: ctx, Tx: s.tx}
}

func (s *Store) withTx(tx *gorm.DB) *Store {
	cp := *s
	cp.tx = tx
	return &cp
}

// write runs fn inside the caller's transaction when there is one, otherwise
// in a fresh aggregate write.
func (s *Store) write(ctx context.Context, op string, fn func(dbc dbctx.Context) error) error {
	if s.tx != nil {
		return aggregates.MapError(op, fn(s.dbc(ctx)))
	}
	return aggregates.ExecuteWrite(ctx, s.deps, op, fn)
}

func (s *Store) InTx(ctx context.Context, fn func(tx progression.Store) error) error {
	if fn == nil {
		return nil
	}
	if s.tx != nil {
		return fn(s)
	}
	return aggregates.ExecuteWrite(ctx, s.deps, "progress.complete_module", func(dbc dbctx.Context) error {
		return fn(s.withTx(dbc.Tx))
	})
}

func (s *Store) GetModule(ctx context.Context, moduleID uuid.UUID) (*types.Module, error) {
	row, err := s.repos.Modules.GetByID(s.dbc(ctx), moduleID)
	return row, aggregates.MapError("progress.get_module", err)
}

func (s *Store) ListLessons(ctx context.Context, moduleID uuid.UUID) ([]*types.Lesson, error) {
	rows, err := s.repos.Lessons.ListByModuleID(s.dbc(ctx), moduleID)
	return rows, aggregates.MapError("progress.list_lessons", err)
}

func (s *Store) ListQuizQuestions(ctx context.Context, lessonIDs []uuid.UUID) ([]*types.QuizQuestion, error) {
	rows, err := s.repos.Questions.ListByLessonIDs(s.dbc(ctx), lessonIDs)
	return rows, aggregates.MapError("progress.list_questions", err)
}

func (s *Store) GetModuleCompletion(ctx context.Context, userID, moduleID uuid.UUID) (*types.ModuleCompletion, error) {
	row, err := s.repos.Completions.Get(s.dbc(ctx), userID, moduleID)
	return row, aggregates.MapError("progress.get_completion", err)
}

func (s *Store) EnsureModuleCompletion(ctx context.Context, userID, moduleID uuid.UUID) (*types.ModuleCompletion, error) {
	var out *types.ModuleCompletion
	err := s.write(ctx, "progress.ensure_completion", func(dbc dbctx.Context) error {
		row, err := s.repos.Completions.Ensure(dbc, userID, moduleID)
		out = row
		return err
	})
	return out, err
}

func (s *Store) UpdateModulePosition(ctx context.Context, userID, moduleID uuid.UUID, lessonIndex int) (bool, error) {
	var changed bool
	err := s.write(ctx, "progress.update_position", func(dbc dbctx.Context) error {
		ok, err := s.repos.Completions.UpdatePosition(dbc, userID, moduleID, lessonIndex)
		changed = ok
		return err
	})
	return changed, err
}

// ClaimCompletion makes sure the record exists, then flips completed with a
// conditional update. Losing the race is reported as claimed=false, not as
// an error.
func (s *Store) ClaimCompletion(ctx context.Context, userID, moduleID uuid.UUID, claim progression.CompletionClaim) (bool, error) {
	if claim.OverallScorePercent < 0 || claim.OverallScorePercent > 100 {
		return false, aggregates.MapError("progress.claim_completion", aggregates.InvariantError("overall score out of range"))
	}
	if claim.EarnedPoints < 0 {
		return false, aggregates.MapError("progress.claim_completion", aggregates.InvariantError("earned points must not be negative"))
	}
	completedAt := claim.CompletedAt.UTC()
	if claim.CompletedAt.IsZero() {
		completedAt = time.Now().UTC()
	}

	var claimed bool
	err := s.write(ctx, "progress.claim_completion", func(dbc dbctx.Context) error {
		if _, err := s.repos.Completions.Ensure(dbc, userID, moduleID); err != nil {
			return err
		}
		ok, err := s.deps.CASGuard.UpdateWhereFlagUnset(dbc, completionTable,
			map[string]any{"user_id": userID, "module_id": moduleID},
			"completed",
			map[string]any{
				"completed":             true,
				"overall_score_percent": claim.OverallScorePercent,
				"earned_points":         claim.EarnedPoints,
				"completed_at":          completedAt,
				"updated_at":            time.Now().UTC(),
			},
		)
		claimed = ok
		return err
	})
	if err != nil {
		return false, err
	}
	return claimed, nil
}

func (s *Store) ListLessonAttempts(ctx context.Context, userID uuid.UUID, lessonIDs []uuid.UUID) (map[uuid.UUID]*types.LessonAttempt, error) {
	rows, err := s.repos.Attempts.ListByUserAndLessonIDs(s.dbc(ctx), userID, lessonIDs)
	return rows, aggregates.MapError("progress.list_attempts", err)
}

func (s *Store) UpsertLessonAttempt(ctx context.Context, row *types.LessonAttempt) error {
	if row == nil {
		return nil
	}
	if row.AttemptsUsed < 0 || row.BestScorePercent < 0 || row.BestScorePercent > 100 {
		return aggregates.MapError("progress.save_attempt", aggregates.ValidationError("attempt snapshot out of range"))
	}
	return s.write(ctx, "progress.save_attempt", func(dbc dbctx.Context) error {
		return s.repos.Attempts.Upsert(dbc, row)
	})
}

func (s *Store) AppendRewardLedgerEntry(ctx context.Context, userID uuid.UUID, moduleID *uuid.UUID, amount int, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return aggregates.MapError("progress.append_ledger", aggregates.ValidationError("ledger reason is required"))
	}
	return s.write(ctx, "progress.append_ledger", func(dbc dbctx.Context) error {
		if _, err := s.repos.Ledger.Append(dbc, &types.RewardLedgerEntry{
			UserID:   userID,
			ModuleID: moduleID,
			Reason:   reason,
			Amount:   amount,
		}); err != nil {
			return err
		}
		return s.repos.Points.Add(dbc, userID, amount)
	})
}

func (s *Store) HasBadgeGrant(ctx context.Context, userID uuid.UUID, badgeName string) (bool, error) {
	ok, err := s.repos.Badges.Exists(s.dbc(ctx), userID, badgeName)
	return ok, aggregates.MapError("progress.has_badge", err)
}

func (s *Store) CreateBadgeGrant(ctx context.Context, userID, moduleID uuid.UUID, badgeName string) error {
	return s.write(ctx, "progress.grant_badge", func(dbc dbctx.Context) error {
		_, err := s.repos.Badges.Create(dbc, &types.BadgeGrant{
			UserID:    userID,
			ModuleID:  moduleID,
			BadgeName: strings.TrimSpace(badgeName),
		})
		return err
	})
}

func (s *Store) AppendActivityLogEntry(ctx context.Context, userID uuid.UUID, action, item string, points int) error {
	return s.write(ctx, "progress.append_activity", func(dbc dbctx.Context) error {
		_, err := s.repos.Activity.Append(dbc, &types.ActivityLogEntry{
			UserID: userID,
			Action: action,
			Item:   item,
			Points: points,
		})
		return err
	})
}

package progression

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	types "github.com/yungbote/modulegate-backend/internal/domain"
	"github.com/yungbote/modulegate-backend/internal/platform/logger"
)

// RewardResult distinguishes points from badge outcomes.
type RewardResult struct {
	OverallScorePercent int    `json:"overall_score_percent"`
	EarnedPoints        int    `json:"earned_points"`
	BonusPoints         int    `json:"bonus_points"`
	BadgeName           string `json:"badge_name,omitempty"`
	BadgeGranted        bool   `json:"badge_granted"`
	BelowThreshold      bool   `json:"below_threshold"`
	AlreadyCompleted    bool   `json:"already_completed"`
}

func (r RewardResult) TotalAwarded() int { return r.EarnedPoints + r.BonusPoints }

var errCompletionClaimed = errors.New("module completion already claimed")

type RewardIssuer struct {
	store Store
	rules Rules
	log   *logger.Logger
	now   func() time.Time
}

func NewRewardIssuer(store Store, rules Rules, log *logger.Logger, now func() time.Time) *RewardIssuer {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &RewardIssuer{store: store, rules: rules, log: log.With("component", "RewardIssuer"), now: now}
}

// IssueCompletionRewards awards points and the module badge exactly once.
//
// Everything runs in one transaction: the completion check, ledger and badge
// writes, then the conditional claim. If the claim finds the record already
// completed the transaction rolls back and the result reports
// AlreadyCompleted with no writes kept.
func (r *RewardIssuer) IssueCompletionRewards(ctx context.Context, userID uuid.UUID, module ModuleContent, overallScorePercent int, lessons []LessonScore) (RewardResult, error) {
	const op = "progression.issue_completion_rewards"
	ctx, span := tracer.Start(ctx, op)
	defer span.End()
	span.SetAttributes(attribute.String("module_id", module.ID.String()), attribute.Int("overall_score_percent", overallScorePercent))

	var out RewardResult
	err := r.store.InTx(ctx, func(tx Store) error {
		out = RewardResult{OverallScorePercent: overallScorePercent}

		existing, err := tx.GetModuleCompletion(ctx, userID, module.ID)
		if err != nil {
			return err
		}
		if existing != nil && existing.Completed {
			return errCompletionClaimed
		}

		moduleID := module.ID
		passed := overallScorePercent >= r.rules.PassThresholdPercent
		if passed {
			out.EarnedPoints = ComputeEarnedPoints(overallScorePercent, module.Points, r.rules.PassThresholdPercent, lessons)
			if out.EarnedPoints > 0 {
				if err := tx.AppendRewardLedgerEntry(ctx, userID, &moduleID, out.EarnedPoints, types.ReasonModuleCompletion); err != nil {
					return err
				}
			}
			if err := tx.AppendActivityLogEntry(ctx, userID, types.ActionCompletedModule, module.Title, out.EarnedPoints); err != nil {
				return err
			}

			out.BadgeName = r.rules.BadgeName(module.Title)
			has, err := tx.HasBadgeGrant(ctx, userID, out.BadgeName)
			if err != nil {
				return err
			}
			if !has {
				if err := tx.CreateBadgeGrant(ctx, userID, moduleID, out.BadgeName); err != nil {
					return err
				}
				if r.rules.BadgeBonusPoints > 0 {
					if err := tx.AppendRewardLedgerEntry(ctx, userID, &moduleID, r.rules.BadgeBonusPoints, types.ReasonBadgeBonus); err != nil {
						return err
					}
				}
				if err := tx.AppendActivityLogEntry(ctx, userID, types.ActionEarnedBadge, out.BadgeName, r.rules.BadgeBonusPoints); err != nil {
					return err
				}
				out.BadgeGranted = true
				out.BonusPoints = r.rules.BadgeBonusPoints
			}
		} else {
			out.BelowThreshold = true
			if err := tx.AppendActivityLogEntry(ctx, userID, types.ActionCompletedModule, module.Title, 0); err != nil {
				return err
			}
		}

		claimed, err := tx.ClaimCompletion(ctx, userID, module.ID, CompletionClaim{
			OverallScorePercent: overallScorePercent,
			EarnedPoints:        out.EarnedPoints,
			CompletedAt:         r.now().UTC(),
		})
		if err != nil {
			return err
		}
		if !claimed {
			return errCompletionClaimed
		}
		return nil
	})

	if errors.Is(err, errCompletionClaimed) {
		r.log.Info("completion already recorded; no rewards issued", "user_id", userID, "module_id", module.ID)
		return r.alreadyCompleted(ctx, userID, module.ID), nil
	}
	if err != nil {
		span.RecordError(err)
		return RewardResult{}, persistenceFailure(op, err)
	}
	r.log.Info("module completed",
		"user_id", userID,
		"module_id", module.ID,
		"overall_score_percent", out.OverallScorePercent,
		"earned_points", out.EarnedPoints,
		"badge_granted", out.BadgeGranted,
	)
	return out, nil
}

// alreadyCompleted reports the stored score without any points. A failed
// read still yields the no-op result.
func (r *RewardIssuer) alreadyCompleted(ctx context.Context, userID, moduleID uuid.UUID) RewardResult {
	out := RewardResult{AlreadyCompleted: true}
	rec, err := r.store.GetModuleCompletion(ctx, userID, moduleID)
	if err != nil {
		r.log.Warn("read completed record failed", "module_id", moduleID, "error", err)
		return out
	}
	if rec != nil && rec.OverallScorePercent != nil {
		out.OverallScorePercent = *rec.OverallScorePercent
	}
	return out
}

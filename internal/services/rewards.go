package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/modulegate-backend/internal/data/repos"
	types "github.com/yungbote/modulegate-backend/internal/domain"
	"github.com/yungbote/modulegate-backend/internal/platform/apierr"
	"github.com/yungbote/modulegate-backend/internal/platform/dbctx"
	"github.com/yungbote/modulegate-backend/internal/platform/logger"
)

const recentLedgerLimit = 50

type RewardsSummary struct {
	UserID      uuid.UUID                  `json:"user_id"`
	TotalPoints int                        `json:"total_points"`
	Completed   []*types.ModuleCompletion  `json:"completed_modules"`
	Badges      []*types.BadgeGrant        `json:"badges"`
	Ledger      []*types.RewardLedgerEntry `json:"ledger"`
	Activity    []*types.ActivityLogEntry  `json:"activity"`
}

type RewardsService interface {
	GetSummary(ctx context.Context, userID uuid.UUID) (*RewardsSummary, error)
}

type rewardsService struct {
	db          *gorm.DB
	log         *logger.Logger
	completions repos.ModuleCompletionRepo
	points      repos.UserPointsRepo
	badges      repos.BadgeGrantRepo
	ledger      repos.RewardLedgerRepo
	activity    repos.ActivityLogRepo
}

func NewRewardsService(
	db *gorm.DB,
	baseLog *logger.Logger,
	completions repos.ModuleCompletionRepo,
	points repos.UserPointsRepo,
	badges repos.BadgeGrantRepo,
	ledger repos.RewardLedgerRepo,
	activity repos.ActivityLogRepo,
) RewardsService {
	return &rewardsService{
		db:          db,
		log:         baseLog.With("service", "RewardsService"),
		completions: completions,
		points:      points,
		badges:      badges,
		ledger:      ledger,
		activity:    activity,
	}
}

func (s *rewardsService) GetSummary(ctx context.Context, userID uuid.UUID) (*RewardsSummary, error) {
	if userID == uuid.Nil {
		return nil, apierr.Unauthorized("missing user id")
	}
	dbc := dbctx.Context{Ctx: ctx}

	total, err := s.points.Get(dbc, userID)
	if err != nil {
		s.log.Warn("GetSummary: load points failed", "error", err, "user_id", userID)
		return nil, err
	}
	completed, err := s.completions.ListCompletedByUser(dbc, userID)
	if err != nil {
		s.log.Warn("GetSummary: load completions failed", "error", err, "user_id", userID)
		return nil, err
	}
	badges, err := s.badges.ListByUser(dbc, userID)
	if err != nil {
		s.log.Warn("GetSummary: load badges failed", "error", err, "user_id", userID)
		return nil, err
	}
	ledger, err := s.ledger.ListByUser(dbc, userID, recentLedgerLimit)
	if err != nil {
		s.log.Warn("GetSummary: load ledger failed", "error", err, "user_id", userID)
		return nil, err
	}
	activity, err := s.activity.ListByUser(dbc, userID, recentLedgerLimit)
	if err != nil {
		s.log.Warn("GetSummary: load activity failed", "error", err, "user_id", userID)
		return nil, err
	}
	return &RewardsSummary{
		UserID:      userID,
		TotalPoints: total,
		Completed:   completed,
		Badges:      badges,
		Ledger:      ledger,
		Activity:    activity,
	}, nil
}

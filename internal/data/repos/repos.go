package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/modulegate-backend/internal/data/repos/learning"
	"github.com/yungbote/modulegate-backend/internal/data/repos/rewards"
	"github.com/yungbote/modulegate-backend/internal/platform/logger"
)

type ModuleRepo = learning.ModuleRepo
type LessonRepo = learning.LessonRepo
type QuizQuestionRepo = learning.QuizQuestionRepo
type LessonAttemptRepo = learning.LessonAttemptRepo
type ModuleCompletionRepo = learning.ModuleCompletionRepo

type RewardLedgerRepo = rewards.RewardLedgerRepo
type UserPointsRepo = rewards.UserPointsRepo
type BadgeGrantRepo = rewards.BadgeGrantRepo
type ActivityLogRepo = rewards.ActivityLogRepo

// Set bundles every repo over one connection.
type Set struct {
	Modules     ModuleRepo
	Lessons     LessonRepo
	Questions   QuizQuestionRepo
	Attempts    LessonAttemptRepo
	Completions ModuleCompletionRepo

	Ledger   RewardLedgerRepo
	Points   UserPointsRepo
	Badges   BadgeGrantRepo
	Activity ActivityLogRepo
}

func NewSet(db *gorm.DB, baseLog *logger.Logger) *Set {
	return &Set{
		Modules:     NewModuleRepo(db, baseLog),
		Lessons:     NewLessonRepo(db, baseLog),
		Questions:   NewQuizQuestionRepo(db, baseLog),
		Attempts:    NewLessonAttemptRepo(db, baseLog),
		Completions: NewModuleCompletionRepo(db, baseLog),
		Ledger:      NewRewardLedgerRepo(db, baseLog),
		Points:      NewUserPointsRepo(db, baseLog),
		Badges:      NewBadgeGrantRepo(db, baseLog),
		Activity:    NewActivityLogRepo(db, baseLog),
	}
}

func NewModuleRepo(db *gorm.DB, baseLog *logger.Logger) ModuleRepo {
	return learning.NewModuleRepo(db, baseLog)
}
func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return learning.NewLessonRepo(db, baseLog)
}
func NewQuizQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuizQuestionRepo {
	return learning.NewQuizQuestionRepo(db, baseLog)
}
func NewLessonAttemptRepo(db *gorm.DB, baseLog *logger.Logger) LessonAttemptRepo {
	return learning.NewLessonAttemptRepo(db, baseLog)
}
func NewModuleCompletionRepo(db *gorm.DB, baseLog *logger.Logger) ModuleCompletionRepo {
	return learning.NewModuleCompletionRepo(db, baseLog)
}

func NewRewardLedgerRepo(db *gorm.DB, baseLog *logger.Logger) RewardLedgerRepo {
	return rewards.NewRewardLedgerRepo(db, baseLog)
}
func NewUserPointsRepo(db *gorm.DB, baseLog *logger.Logger) UserPointsRepo {
	return rewards.NewUserPointsRepo(db, baseLog)
}
func NewBadgeGrantRepo(db *gorm.DB, baseLog *logger.Logger) BadgeGrantRepo {
	return rewards.NewBadgeGrantRepo(db, baseLog)
}
func NewActivityLogRepo(db *gorm.DB, baseLog *logger.Logger) ActivityLogRepo {
	return rewards.NewActivityLogRepo(db, baseLog)
}

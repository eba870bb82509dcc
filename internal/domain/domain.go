package domain

import (
	"github.com/yungbote/modulegate-backend/internal/domain/content"
	"github.com/yungbote/modulegate-backend/internal/domain/progress"
	"github.com/yungbote/modulegate-backend/internal/domain/rewards"
)

const (
	ReasonModuleCompletion = rewards.ReasonModuleCompletion
	ReasonBadgeBonus       = rewards.ReasonBadgeBonus

	ActionCompletedModule = rewards.ActionCompletedModule
	ActionEarnedBadge     = rewards.ActionEarnedBadge
)

type Module = content.Module
type Lesson = content.Lesson
type QuizQuestion = content.QuizQuestion

type LessonAttempt = progress.LessonAttempt
type ModuleCompletion = progress.ModuleCompletion

type RewardLedgerEntry = rewards.RewardLedgerEntry
type UserPoints = rewards.UserPoints
type BadgeGrant = rewards.BadgeGrant
type ActivityLogEntry = rewards.ActivityLogEntry

var EncodeAnswers = progress.EncodeAnswers

// Models lists every persisted type in migration order.
func Models() []interface{} {
	return []interface{}{
		&Module{},
		&Lesson{},
		&QuizQuestion{},
		&LessonAttempt{},
		&ModuleCompletion{},
		&RewardLedgerEntry{},
		&UserPoints{},
		&BadgeGrant{},
		&ActivityLogEntry{},
	}
}

package progress

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ModuleCompletion is terminal once Completed is true.
type ModuleCompletion struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	UserID   uuid.UUID `gorm:"type:uuid;column:user_id;not null;index:idx_module_completion_user_module,unique,priority:1" json:"user_id"`
	ModuleID uuid.UUID `gorm:"type:uuid;column:module_id;not null;index:idx_module_completion_user_module,unique,priority:2" json:"module_id"`

	// LastLessonIndex is 0-based and nil until the learner first navigates.
	LastLessonIndex     *int       `gorm:"column:last_lesson_index" json:"last_lesson_index,omitempty"`
	Completed           bool       `gorm:"column:completed;not null;default:false;index" json:"completed"`
	OverallScorePercent *int       `gorm:"column:overall_score_percent" json:"overall_score_percent,omitempty"`
	EarnedPoints        int        `gorm:"column:earned_points;not null;default:0" json:"earned_points"`
	CompletedAt         *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ModuleCompletion) TableName() string { return "module_completion" }

func (c *ModuleCompletion) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

package progress

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LessonAttempt is the persisted quiz snapshot for one user and lesson.
type LessonAttempt struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	UserID   uuid.UUID `gorm:"type:uuid;column:user_id;not null;index:idx_lesson_attempt_user_lesson,unique,priority:1" json:"user_id"`
	LessonID uuid.UUID `gorm:"type:uuid;column:lesson_id;not null;index:idx_lesson_attempt_user_lesson,unique,priority:2" json:"lesson_id"`
	ModuleID uuid.UUID `gorm:"type:uuid;column:module_id;not null;index" json:"module_id"`

	SelectedAnswers  datatypes.JSON `gorm:"column:selected_answers" json:"selected_answers"`
	Submitted        bool           `gorm:"column:submitted;not null;default:false" json:"submitted"`
	AttemptsUsed     int            `gorm:"column:attempts_used;not null;default:0" json:"attempts_used"`
	BestScorePercent int            `gorm:"column:best_score_percent;not null;default:0" json:"best_score_percent"`
	LastScorePercent int            `gorm:"column:last_score_percent;not null;default:0" json:"last_score_percent"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (LessonAttempt) TableName() string { return "lesson_attempt" }

func (a *LessonAttempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (a *LessonAttempt) Answers() []int {
	if a == nil || len(a.SelectedAnswers) == 0 {
		return nil
	}
	var out []int
	if err := json.Unmarshal(a.SelectedAnswers, &out); err != nil {
		return nil
	}
	return out
}

func EncodeAnswers(answers []int) datatypes.JSON {
	if answers == nil {
		answers = []int{}
	}
	b, _ := json.Marshal(answers)
	return datatypes.JSON(b)
}

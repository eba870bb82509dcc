package content

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuizQuestion struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	LessonID   uuid.UUID `gorm:"type:uuid;column:lesson_id;not null;index:idx_quiz_question_lesson_order,unique,priority:1" json:"lesson_id"`
	OrderIndex int       `gorm:"column:order_index;not null;index:idx_quiz_question_lesson_order,unique,priority:2" json:"order_index"`

	Prompt string `gorm:"column:prompt;type:text;not null" json:"prompt"`
	// Options is a JSON array of answer strings.
	Options      datatypes.JSON `gorm:"column:options" json:"options"`
	CorrectIndex int            `gorm:"column:correct_index;not null" json:"-"`
	Explanation  string         `gorm:"column:explanation;type:text" json:"explanation,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (QuizQuestion) TableName() string { return "quiz_question" }

func (q *QuizQuestion) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// OptionList decodes Options. A malformed column yields nil.
func (q *QuizQuestion) OptionList() []string {
	if q == nil || len(q.Options) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(q.Options, &out); err != nil {
		return nil
	}
	return out
}

package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Lesson struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	ModuleID uuid.UUID `gorm:"type:uuid;column:module_id;not null;index:idx_lesson_module_order,unique,priority:1" json:"module_id"`
	// OrderIndex is 1-based and dense within a module.
	OrderIndex int `gorm:"column:order_index;not null;index:idx_lesson_module_order,unique,priority:2" json:"order_index"`

	Title    string         `gorm:"column:title;not null" json:"title"`
	BodyMD   string         `gorm:"column:body_md;type:text" json:"body_md,omitempty"`
	Metadata datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Lesson) TableName() string { return "lesson" }

func (l *Lesson) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

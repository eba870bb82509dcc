package rewards

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActionCompletedModule = "completed module"
	ActionEarnedBadge     = "earned badge"
)

type ActivityLogEntry struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	UserID uuid.UUID `gorm:"type:uuid;column:user_id;not null;index" json:"user_id"`
	Action string    `gorm:"column:action;not null" json:"action"`
	Item   string    `gorm:"column:item;not null" json:"item"`
	Points int       `gorm:"column:points;not null;default:0" json:"points"`

	Metadata datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (ActivityLogEntry) TableName() string { return "activity_log_entry" }

func (e *ActivityLogEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

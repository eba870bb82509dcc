package rewards

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BadgeGrant struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	UserID    uuid.UUID `gorm:"type:uuid;column:user_id;not null;index:idx_badge_grant_user_name,unique,priority:1" json:"user_id"`
	BadgeName string    `gorm:"column:badge_name;not null;index:idx_badge_grant_user_name,unique,priority:2" json:"badge_name"`
	ModuleID  uuid.UUID `gorm:"type:uuid;column:module_id;not null;index" json:"module_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (BadgeGrant) TableName() string { return "badge_grant" }

func (b *BadgeGrant) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

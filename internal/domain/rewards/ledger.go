package rewards

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReasonModuleCompletion = "module_completion"
	ReasonBadgeBonus       = "badge_bonus"
)

// RewardLedgerEntry is append-only.
type RewardLedgerEntry struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	UserID   uuid.UUID  `gorm:"type:uuid;column:user_id;not null;index" json:"user_id"`
	ModuleID *uuid.UUID `gorm:"type:uuid;column:module_id;index" json:"module_id,omitempty"`
	Reason   string     `gorm:"column:reason;not null;index" json:"reason"`
	Amount   int        `gorm:"column:amount;not null" json:"amount"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (RewardLedgerEntry) TableName() string { return "reward_ledger_entry" }

func (e *RewardLedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// UserPoints is the running total kept alongside the ledger.
type UserPoints struct {
	UserID uuid.UUID `gorm:"type:uuid;column:user_id;primaryKey" json:"user_id"`
	Total  int       `gorm:"column:total;not null;default:0" json:"total"`

	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (UserPoints) TableName() string { return "user_points" }

package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Module is an ordered collection of lessons gated behind quizzes.
type Module struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Title       string `gorm:"column:title;not null" json:"title"`
	Description string `gorm:"column:description;type:text" json:"description,omitempty"`

	// Points is the module's full reward value before question weighting.
	Points int  `gorm:"column:points;not null;default:0" json:"points"`
	Locked bool `gorm:"column:locked;not null;default:false;index" json:"locked"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Module) TableName() string { return "module" }

func (m *Module) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

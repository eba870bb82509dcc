package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/modulegate-backend/internal/domain"
	"github.com/yungbote/modulegate-backend/internal/platform/dbctx"
	"github.com/yungbote/modulegate-backend/internal/platform/logger"
)

type ModuleRepo interface {
	Create(dbc dbctx.Context, rows []*types.Module) ([]*types.Module, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Module, error)
	List(dbc dbctx.Context, includeLocked bool) ([]*types.Module, error)
	SetLocked(dbc dbctx.Context, id uuid.UUID, locked bool) error
}

type moduleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewModuleRepo(db *gorm.DB, baseLog *logger.Logger) ModuleRepo {
	return &moduleRepo{db: db, log: baseLog.With("repo", "ModuleRepo")}
}

func (r *moduleRepo) Create(dbc dbctx.Context, rows []*types.Module) ([]*types.Module, error) {
	transaction := dbc.DB(r.db)
	if len(rows) == 0 {
		return []*types.Module{}, nil
	}
	if err := transaction.Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetByID returns nil, nil when the module does not exist.
func (r *moduleRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Module, error) {
	transaction := dbc.DB(r.db)
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Module
	if err := transaction.Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *moduleRepo) List(dbc dbctx.Context, includeLocked bool) ([]*types.Module, error) {
	transaction := dbc.DB(r.db)
	var out []*types.Module
	q := transaction.Order("title ASC")
	if !includeLocked {
		q = q.Where("locked = ?", false)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *moduleRepo) SetLocked(dbc dbctx.Context, id uuid.UUID, locked bool) error {
	transaction := dbc.DB(r.db)
	if id == uuid.Nil {
		return nil
	}
	return transaction.Model(&types.Module{}).
		Where("id = ?", id).
		Update("locked", locked).Error
}

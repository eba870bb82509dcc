package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/modulegate-backend/internal/domain"
	"github.com/yungbote/modulegate-backend/internal/platform/dbctx"
	"github.com/yungbote/modulegate-backend/internal/platform/logger"
)

type ModuleCompletionRepo interface {
	Get(dbc dbctx.Context, userID, moduleID uuid.UUID) (*types.ModuleCompletion, error)
	Ensure(dbc dbctx.Context, userID, moduleID uuid.UUID) (*types.ModuleCompletion, error)
	UpdatePosition(dbc dbctx.Context, userID, moduleID uuid.UUID, lessonIndex int) (bool, error)
	ListCompletedByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.ModuleCompletion, error)
}

type moduleCompletionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewModuleCompletionRepo(db *gorm.DB, baseLog *logger.Logger) ModuleCompletionRepo {
	return &moduleCompletionRepo{db: db, log: baseLog.With("repo", "ModuleCompletionRepo")}
}

func (r *moduleCompletionRepo) Get(dbc dbctx.Context, userID, moduleID uuid.UUID) (*types.ModuleCompletion, error) {
	transaction := dbc.DB(r.db)
	if userID == uuid.Nil || moduleID == uuid.Nil {
		return nil, nil
	}
	var row types.ModuleCompletion
	if err := transaction.
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// Ensure creates an incomplete record if none exists and returns the stored row.
func (r *moduleCompletionRepo) Ensure(dbc dbctx.Context, userID, moduleID uuid.UUID) (*types.ModuleCompletion, error) {
	transaction := dbc.DB(r.db)
	if userID == uuid.Nil || moduleID == uuid.Nil {
		return nil, nil
	}
	row := &types.ModuleCompletion{ID: uuid.New(), UserID: userID, ModuleID: moduleID}
	if err := transaction.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "module_id"}},
			DoNothing: true,
		}).
		Create(row).Error; err != nil {
		return nil, err
	}
	return r.Get(dbc, userID, moduleID)
}

// UpdatePosition only touches incomplete records and reports whether a row changed.
func (r *moduleCompletionRepo) UpdatePosition(dbc dbctx.Context, userID, moduleID uuid.UUID, lessonIndex int) (bool, error) {
	transaction := dbc.DB(r.db)
	if userID == uuid.Nil || moduleID == uuid.Nil || lessonIndex < 0 {
		return false, nil
	}
	res := transaction.Model(&types.ModuleCompletion{}).
		Where("user_id = ? AND module_id = ? AND completed = ?", userID, moduleID, false).
		Updates(map[string]interface{}{
			"last_lesson_index": lessonIndex,
			"updated_at":        time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *moduleCompletionRepo) ListCompletedByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.ModuleCompletion, error) {
	transaction := dbc.DB(r.db)
	var out []*types.ModuleCompletion
	if userID == uuid.Nil {
		return out, nil
	}
	if err := transaction.
		Where("user_id = ? AND completed = ?", userID, true).
		Order("completed_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

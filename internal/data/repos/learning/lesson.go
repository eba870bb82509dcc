package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/modulegate-backend/internal/domain"
	"github.com/yungbote/modulegate-backend/internal/platform/dbctx"
	"github.com/yungbote/modulegate-backend/internal/platform/logger"
)

type LessonRepo interface {
	Create(dbc dbctx.Context, rows []*types.Lesson) ([]*types.Lesson, error)
	ListByModuleID(dbc dbctx.Context, moduleID uuid.UUID) ([]*types.Lesson, error)
}

type lessonRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return &lessonRepo{db: db, log: baseLog.With("repo", "LessonRepo")}
}

func (r *lessonRepo) Create(dbc dbctx.Context, rows []*types.Lesson) ([]*types.Lesson, error) {
	transaction := dbc.DB(r.db)
	if len(rows) == 0 {
		return []*types.Lesson{}, nil
	}
	if err := transaction.Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByModuleID returns lessons in order_index order.
func (r *lessonRepo) ListByModuleID(dbc dbctx.Context, moduleID uuid.UUID) ([]*types.Lesson, error) {
	transaction := dbc.DB(r.db)
	var out []*types.Lesson
	if moduleID == uuid.Nil {
		return out, nil
	}
	if err := transaction.
		Where("module_id = ?", moduleID).
		Order("order_index ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

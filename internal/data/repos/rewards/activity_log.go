package rewards

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/modulegate-backend/internal/domain"
	"github.com/yungbote/modulegate-backend/internal/platform/dbctx"
	"github.com/yungbote/modulegate-backend/internal/platform/logger"
)

type ActivityLogRepo interface {
	Append(dbc dbctx.Context, row *types.ActivityLogEntry) (*types.ActivityLogEntry, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.ActivityLogEntry, error)
}

type activityLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityLogRepo(db *gorm.DB, baseLog *logger.Logger) ActivityLogRepo {
	return &activityLogRepo{db: db, log: baseLog.With("repo", "ActivityLogRepo")}
}

func (r *activityLogRepo) Append(dbc dbctx.Context, row *types.ActivityLogEntry) (*types.ActivityLogEntry, error) {
	transaction := dbc.DB(r.db)
	if row == nil || row.UserID == uuid.Nil {
		return nil, nil
	}
	if err := transaction.Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *activityLogRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.ActivityLogEntry, error) {
	transaction := dbc.DB(r.db)
	var out []*types.ActivityLogEntry
	if userID == uuid.Nil {
		return out, nil
	}
	q := transaction.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

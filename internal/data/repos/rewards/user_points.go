package rewards

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/modulegate-backend/internal/domain"
	"github.com/yungbote/modulegate-backend/internal/platform/dbctx"
	"github.com/yungbote/modulegate-backend/internal/platform/logger"
)

type UserPointsRepo interface {
	Add(dbc dbctx.Context, userID uuid.UUID, delta int) error
	Get(dbc dbctx.Context, userID uuid.UUID) (int, error)
}

type userPointsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserPointsRepo(db *gorm.DB, baseLog *logger.Logger) UserPointsRepo {
	return &userPointsRepo{db: db, log: baseLog.With("repo", "UserPointsRepo")}
}

func (r *userPointsRepo) Add(dbc dbctx.Context, userID uuid.UUID, delta int) error {
	transaction := dbc.DB(r.db)
	if userID == uuid.Nil || delta == 0 {
		return nil
	}
	now := time.Now().UTC()
	row := &types.UserPoints{UserID: userID, Total: delta, UpdatedAt: now}
	return transaction.
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"total":      gorm.Expr("user_points.total + excluded.total"),
				"updated_at": now,
			}),
		}).
		Create(row).Error
}

// Get returns 0 for users without a row.
func (r *userPointsRepo) Get(dbc dbctx.Context, userID uuid.UUID) (int, error) {
	transaction := dbc.DB(r.db)
	if userID == uuid.Nil {
		return 0, nil
	}
	var row types.UserPoints
	if err := transaction.Where("user_id = ?", userID).Limit(1).Find(&row).Error; err != nil {
		return 0, err
	}
	return row.Total, nil
}

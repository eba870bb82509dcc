package rewards

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/modulegate-backend/internal/domain"
	"github.com/yungbote/modulegate-backend/internal/platform/dbctx"
	"github.com/yungbote/modulegate-backend/internal/platform/logger"
)

type BadgeGrantRepo interface {
	Exists(dbc dbctx.Context, userID uuid.UUID, badgeName string) (bool, error)
	Create(dbc dbctx.Context, row *types.BadgeGrant) (*types.BadgeGrant, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.BadgeGrant, error)
}

type badgeGrantRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBadgeGrantRepo(db *gorm.DB, baseLog *logger.Logger) BadgeGrantRepo {
	return &badgeGrantRepo{db: db, log: baseLog.With("repo", "BadgeGrantRepo")}
}

func (r *badgeGrantRepo) Exists(dbc dbctx.Context, userID uuid.UUID, badgeName string) (bool, error) {
	transaction := dbc.DB(r.db)
	badgeName = strings.TrimSpace(badgeName)
	if userID == uuid.Nil || badgeName == "" {
		return false, nil
	}
	var n int64
	if err := transaction.Model(&types.BadgeGrant{}).
		Where("user_id = ? AND badge_name = ?", userID, badgeName).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *badgeGrantRepo) Create(dbc dbctx.Context, row *types.BadgeGrant) (*types.BadgeGrant, error) {
	transaction := dbc.DB(r.db)
	if row == nil || row.UserID == uuid.Nil || strings.TrimSpace(row.BadgeName) == "" {
		return nil, nil
	}
	if err := transaction.Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *badgeGrantRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.BadgeGrant, error) {
	transaction := dbc.DB(r.db)
	var out []*types.BadgeGrant
	if userID == uuid.Nil {
		return out, nil
	}
	if err := transaction.
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

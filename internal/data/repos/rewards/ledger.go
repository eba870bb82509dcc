package rewards

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/modulegate-backend/internal/domain"
	"github.com/yungbote/modulegate-backend/internal/platform/dbctx"
	"github.com/yungbote/modulegate-backend/internal/platform/logger"
)

type RewardLedgerRepo interface {
	Append(dbc dbctx.Context, row *types.RewardLedgerEntry) (*types.RewardLedgerEntry, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.RewardLedgerEntry, error)
	SumByUser(dbc dbctx.Context, userID uuid.UUID) (int, error)
}

type rewardLedgerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRewardLedgerRepo(db *gorm.DB, baseLog *logger.Logger) RewardLedgerRepo {
	return &rewardLedgerRepo{db: db, log: baseLog.With("repo", "RewardLedgerRepo")}
}

func (r *rewardLedgerRepo) Append(dbc dbctx.Context, row *types.RewardLedgerEntry) (*types.RewardLedgerEntry, error) {
	transaction := dbc.DB(r.db)
	if row == nil || row.UserID == uuid.Nil {
		return nil, nil
	}
	if err := transaction.Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// ListByUser returns newest entries first. limit <= 0 returns everything.
func (r *rewardLedgerRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.RewardLedgerEntry, error) {
	transaction := dbc.DB(r.db)
	var out []*types.RewardLedgerEntry
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

// SumByUser recomputes the balance from the ledger itself.
func (r *rewardLedgerRepo) SumByUser(dbc dbctx.Context, userID uuid.UUID) (int, error) {
	transaction := dbc.DB(r.db)
	if userID == uuid.Nil {
		return 0, nil
	}
	var total int64
	if err := transaction.Model(&types.RewardLedgerEntry{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return int(total), nil
}

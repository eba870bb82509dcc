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

type LessonAttemptRepo interface {
	ListByUserAndLessonIDs(dbc dbctx.Context, userID uuid.UUID, lessonIDs []uuid.UUID) (map[uuid.UUID]*types.LessonAttempt, error)
	Upsert(dbc dbctx.Context, row *types.LessonAttempt) error
}

type lessonAttemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonAttemptRepo(db *gorm.DB, baseLog *logger.Logger) LessonAttemptRepo {
	return &lessonAttemptRepo{db: db, log: baseLog.With("repo", "LessonAttemptRepo")}
}

// ListByUserAndLessonIDs keys the result by lesson id.
func (r *lessonAttemptRepo) ListByUserAndLessonIDs(dbc dbctx.Context, userID uuid.UUID, lessonIDs []uuid.UUID) (map[uuid.UUID]*types.LessonAttempt, error) {
	transaction := dbc.DB(r.db)
	out := map[uuid.UUID]*types.LessonAttempt{}
	if userID == uuid.Nil || len(lessonIDs) == 0 {
		return out, nil
	}
	var rows []*types.LessonAttempt
	if err := transaction.
		Where("user_id = ? AND lesson_id IN ?", userID, lessonIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.LessonID] = row
	}
	return out, nil
}

// Upsert writes the snapshot keyed by (user_id, lesson_id). attempts_used
// and best_score_percent only move up. The remaining columns are taken from
// the incoming row only when it has seen at least as many attempts as the
// stored one, so a handle holding an older snapshot cannot roll progress back.
func (r *lessonAttemptRepo) Upsert(dbc dbctx.Context, row *types.LessonAttempt) error {
	transaction := dbc.DB(r.db)
	if row == nil || row.UserID == uuid.Nil || row.LessonID == uuid.Nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.UpdatedAt = time.Now().UTC()

	return transaction.
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
			DoUpdates: clause.Set{
				{Column: clause.Column{Name: "attempts_used"}, Value: greatest("attempts_used")},
				{Column: clause.Column{Name: "best_score_percent"}, Value: greatest("best_score_percent")},
				{Column: clause.Column{Name: "selected_answers"}, Value: unlessStale("selected_answers")},
				{Column: clause.Column{Name: "submitted"}, Value: unlessStale("submitted")},
				{Column: clause.Column{Name: "last_score_percent"}, Value: unlessStale("last_score_percent")},
				{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr("excluded.updated_at")},
			},
		}).
		Create(row).Error
}

// GREATEST is postgres-only; CASE works on sqlite as well.
func greatest(col string) clause.Expr {
	return gorm.Expr("CASE WHEN excluded." + col + " > lesson_attempt." + col +
		" THEN excluded." + col + " ELSE lesson_attempt." + col + " END")
}

func unlessStale(col string) clause.Expr {
	return gorm.Expr("CASE WHEN excluded.attempts_used >= lesson_attempt.attempts_used" +
		" THEN excluded." + col + " ELSE lesson_attempt." + col + " END")
}

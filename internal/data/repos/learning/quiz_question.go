package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/modulegate-backend/internal/domain"
	"github.com/yungbote/modulegate-backend/internal/platform/dbctx"
	"github.com/yungbote/modulegate-backend/internal/platform/logger"
)

type QuizQuestionRepo interface {
	Create(dbc dbctx.Context, rows []*types.QuizQuestion) ([]*types.QuizQuestion, error)
	ListByLessonIDs(dbc dbctx.Context, lessonIDs []uuid.UUID) ([]*types.QuizQuestion, error)
}

type quizQuestionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuizQuestionRepo {
	return &quizQuestionRepo{db: db, log: baseLog.With("repo", "QuizQuestionRepo")}
}

func (r *quizQuestionRepo) Create(dbc dbctx.Context, rows []*types.QuizQuestion) ([]*types.QuizQuestion, error) {
	transaction := dbc.DB(r.db)
	if len(rows) == 0 {
		return []*types.QuizQuestion{}, nil
	}
	if err := transaction.Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *quizQuestionRepo) ListByLessonIDs(dbc dbctx.Context, lessonIDs []uuid.UUID) ([]*types.QuizQuestion, error) {
	transaction := dbc.DB(r.db)
	var out []*types.QuizQuestion
	if len(lessonIDs) == 0 {
		return out, nil
	}
	if err := transaction.
		Where("lesson_id IN ?", lessonIDs).
		Order("lesson_id ASC, order_index ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

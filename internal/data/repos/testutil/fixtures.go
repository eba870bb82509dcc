package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/modulegate-backend/internal/domain"
)

func SeedModule(tb testing.TB, ctx context.Context, tx *gorm.DB, title string, points int) *types.Module {
	tb.Helper()
	m := &types.Module{
		ID:     uuid.New(),
		Title:  title,
		Points: points,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed module: %v", err)
	}
	return m
}

func SeedLesson(tb testing.TB, ctx context.Context, tx *gorm.DB, moduleID uuid.UUID, index int) *types.Lesson {
	tb.Helper()
	l := &types.Lesson{
		ID:         uuid.New(),
		ModuleID:   moduleID,
		OrderIndex: index,
		Title:      fmt.Sprintf("lesson %d", index),
		BodyMD:     "content",
		Metadata:   datatypes.JSON([]byte("{}")),
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed lesson: %v", err)
	}
	return l
}

func SeedQuestion(tb testing.TB, ctx context.Context, tx *gorm.DB, lessonID uuid.UUID, index int, correct int, options ...string) *types.QuizQuestion {
	tb.Helper()
	if len(options) == 0 {
		options = []string{"a", "b", "c"}
	}
	raw, err := json.Marshal(options)
	if err != nil {
		tb.Fatalf("marshal options: %v", err)
	}
	q := &types.QuizQuestion{
		ID:           uuid.New(),
		LessonID:     lessonID,
		OrderIndex:   index,
		Prompt:       fmt.Sprintf("question %d", index),
		Options:      datatypes.JSON(raw),
		CorrectIndex: correct,
	}
	if err := tx.WithContext(ctx).Create(q).Error; err != nil {
		tb.Fatalf("seed question: %v", err)
	}
	return q
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrInt(v int) *int { return &v }

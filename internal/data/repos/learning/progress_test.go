package learning

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/modulegate-backend/internal/data/repos/testutil"
	types "github.com/yungbote/modulegate-backend/internal/domain"
	"github.com/yungbote/modulegate-backend/internal/platform/dbctx"
)

func TestLessonAttemptRepoUpsert(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewLessonAttemptRepo(db, testutil.Logger(t))

	userID := uuid.New()
	m := testutil.SeedModule(t, ctx, tx, "Ladder Safety", 100)
	l := testutil.SeedLesson(t, ctx, tx, m.ID, 1)

	row := &types.LessonAttempt{
		UserID:          userID,
		LessonID:        l.ID,
		ModuleID:        m.ID,
		SelectedAnswers: types.EncodeAnswers([]int{-1, -1}),
	}
	if err := repo.Upsert(dbc, row); err != nil {
		t.Fatalf("Upsert(insert): %v", err)
	}

	next := &types.LessonAttempt{
		UserID:           userID,
		LessonID:         l.ID,
		ModuleID:         m.ID,
		SelectedAnswers:  types.EncodeAnswers([]int{0, 1}),
		Submitted:        true,
		AttemptsUsed:     1,
		BestScorePercent: 50,
		LastScorePercent: 50,
	}
	if err := repo.Upsert(dbc, next); err != nil {
		t.Fatalf("Upsert(update): %v", err)
	}

	got, err := repo.ListByUserAndLessonIDs(dbc, userID, []uuid.UUID{l.ID})
	if err != nil {
		t.Fatalf("ListByUserAndLessonIDs: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one attempt row, got %d", len(got))
	}
	at := got[l.ID]
	if at == nil || !at.Submitted || at.AttemptsUsed != 1 || at.BestScorePercent != 50 {
		t.Fatalf("unexpected attempt: %+v", at)
	}
	if ans := at.Answers(); len(ans) != 2 || ans[0] != 0 || ans[1] != 1 {
		t.Fatalf("unexpected answers: %v", ans)
	}

	other, err := repo.ListByUserAndLessonIDs(dbc, uuid.New(), []uuid.UUID{l.ID})
	if err != nil || len(other) != 0 {
		t.Fatalf("other user: err=%v len=%d", err, len(other))
	}
}

func TestModuleCompletionRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewModuleCompletionRepo(db, testutil.Logger(t))

	userID := uuid.New()
	m := testutil.SeedModule(t, ctx, tx, "Ladder Safety", 100)

	if got, err := repo.Get(dbc, userID, m.ID); err != nil || got != nil {
		t.Fatalf("Get(missing): got=%+v err=%v", got, err)
	}

	first, err := repo.Ensure(dbc, userID, m.ID)
	if err != nil || first == nil {
		t.Fatalf("Ensure: got=%+v err=%v", first, err)
	}
	if first.Completed || first.LastLessonIndex != nil {
		t.Fatalf("fresh record should be empty: %+v", first)
	}
	second, err := repo.Ensure(dbc, userID, m.ID)
	if err != nil || second == nil || second.ID != first.ID {
		t.Fatalf("Ensure should be idempotent: first=%v second=%+v err=%v", first.ID, second, err)
	}

	ok, err := repo.UpdatePosition(dbc, userID, m.ID, 2)
	if err != nil || !ok {
		t.Fatalf("UpdatePosition: ok=%v err=%v", ok, err)
	}
	got, err := repo.Get(dbc, userID, m.ID)
	if err != nil || got == nil || got.LastLessonIndex == nil || *got.LastLessonIndex != 2 {
		t.Fatalf("Get after position: got=%+v err=%v", got, err)
	}

	now := time.Now().UTC()
	if err := tx.WithContext(ctx).Model(&types.ModuleCompletion{}).
		Where("id = ?", first.ID).
		Updates(map[string]interface{}{"completed": true, "completed_at": now}).Error; err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	ok, err = repo.UpdatePosition(dbc, userID, m.ID, 0)
	if err != nil || ok {
		t.Fatalf("UpdatePosition on completed record: ok=%v err=%v", ok, err)
	}

	done, err := repo.ListCompletedByUser(dbc, userID)
	if err != nil || len(done) != 1 {
		t.Fatalf("ListCompletedByUser: err=%v len=%d", err, len(done))
	}
}

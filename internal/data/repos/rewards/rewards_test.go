package rewards

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/modulegate-backend/internal/data/repos/testutil"
	types "github.com/yungbote/modulegate-backend/internal/domain"
	"github.com/yungbote/modulegate-backend/internal/platform/dbctx"
)

func TestRewardLedgerAndPoints(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	ledger := NewRewardLedgerRepo(db, testutil.Logger(t))
	points := NewUserPointsRepo(db, testutil.Logger(t))

	userID := uuid.New()
	moduleID := uuid.New()

	if got, err := points.Get(dbc, userID); err != nil || got != 0 {
		t.Fatalf("Get(empty): got=%d err=%v", got, err)
	}

	for _, e := range []*types.RewardLedgerEntry{
		{UserID: userID, ModuleID: testutil.PtrUUID(moduleID), Reason: types.ReasonModuleCompletion, Amount: 50},
		{UserID: userID, ModuleID: testutil.PtrUUID(moduleID), Reason: types.ReasonBadgeBonus, Amount: 50},
	} {
		if _, err := ledger.Append(dbc, e); err != nil {
			t.Fatalf("Append: %v", err)
		}
		if err := points.Add(dbc, userID, e.Amount); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	if got, err := points.Get(dbc, userID); err != nil || got != 100 {
		t.Fatalf("Get: got=%d err=%v", got, err)
	}
	if got, err := ledger.SumByUser(dbc, userID); err != nil || got != 100 {
		t.Fatalf("SumByUser: got=%d err=%v", got, err)
	}
	rows, err := ledger.ListByUser(dbc, userID, 1)
	if err != nil || len(rows) != 1 {
		t.Fatalf("ListByUser(limit): err=%v len=%d", err, len(rows))
	}
	if err := points.Add(dbc, userID, 0); err != nil {
		t.Fatalf("Add(0): %v", err)
	}
}

func TestBadgeGrantRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewBadgeGrantRepo(db, testutil.Logger(t))

	userID := uuid.New()
	if ok, err := repo.Exists(dbc, userID, "Ladder Safety Master"); err != nil || ok {
		t.Fatalf("Exists(before): ok=%v err=%v", ok, err)
	}
	if _, err := repo.Create(dbc, &types.BadgeGrant{UserID: userID, BadgeName: "Ladder Safety Master", ModuleID: uuid.New()}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ok, err := repo.Exists(dbc, userID, "Ladder Safety Master"); err != nil || !ok {
		t.Fatalf("Exists(after): ok=%v err=%v", ok, err)
	}
	if ok, err := repo.Exists(dbc, uuid.New(), "Ladder Safety Master"); err != nil || ok {
		t.Fatalf("Exists(other user): ok=%v err=%v", ok, err)
	}
	rows, err := repo.ListByUser(dbc, userID)
	if err != nil || len(rows) != 1 {
		t.Fatalf("ListByUser: err=%v len=%d", err, len(rows))
	}
}

func TestActivityLogRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewActivityLogRepo(db, testutil.Logger(t))

	userID := uuid.New()
	if _, err := repo.Append(dbc, &types.ActivityLogEntry{UserID: userID, Action: types.ActionCompletedModule, Item: "Ladder Safety", Points: 50}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := repo.Append(dbc, &types.ActivityLogEntry{UserID: userID, Action: types.ActionEarnedBadge, Item: "Ladder Safety Master", Points: 50}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	rows, err := repo.ListByUser(dbc, userID, 0)
	if err != nil || len(rows) != 2 {
		t.Fatalf("ListByUser: err=%v len=%d", err, len(rows))
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/modulegate-backend/internal/app"
	"github.com/yungbote/modulegate-backend/internal/data/repos"
	"github.com/yungbote/modulegate-backend/internal/data/seed"
	"github.com/yungbote/modulegate-backend/internal/platform/dbctx"
)

func main() {
	var (
		file     string
		dryRun   bool
		lockID   string
		unlockID string
	)
	flag.StringVar(&file, "file", "content/modules.yaml", "YAML file with modules, lessons and quiz questions")
	flag.BoolVar(&dryRun, "dry-run", false, "validate the file without writing")
	flag.StringVar(&lockID, "lock", "", "module id to lock instead of seeding")
	flag.StringVar(&unlockID, "unlock", "", "module id to unlock instead of seeding")
	flag.Parse()

	if lockID != "" || unlockID != "" {
		os.Exit(setLock(lockID, unlockID))
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		fmt.Printf("read %s: %v\n", file, err)
		os.Exit(1)
	}
	content, err := seed.Parse(raw)
	if err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}
	if dryRun {
		fmt.Printf("ok: %d modules\n", len(content.Modules))
		return
	}

	ctx := context.Background()
	application, err := app.New(ctx)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = application.Close(closeCtx)
	}()

	var res seed.Result
	err = application.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = seed.Apply(dbctx.Context{Ctx: ctx, Tx: tx}, repos.NewSet(tx, application.Log), content)
		return err
	})
	if err != nil {
		application.Log.Error("seed failed", "error", err)
		fmt.Printf("seed failed: %v\n", err)
		return
	}
	for _, t := range res.Created {
		fmt.Printf("created: %s\n", t)
	}
	for _, t := range res.Skipped {
		fmt.Printf("skipped (exists): %s\n", t)
	}
	application.Log.Info("seed complete", "created", len(res.Created), "skipped", len(res.Skipped))
}

func setLock(lockID, unlockID string) int {
	if lockID != "" && unlockID != "" {
		fmt.Println("use either -lock or -unlock, not both")
		return 2
	}
	raw, locked := unlockID, false
	if lockID != "" {
		raw, locked = lockID, true
	}
	moduleID, err := uuid.Parse(raw)
	if err != nil {
		fmt.Printf("invalid module id %q: %v\n", raw, err)
		return 2
	}

	ctx := context.Background()
	application, err := app.New(ctx)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		return 1
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = application.Close(closeCtx)
	}()

	m, err := application.Services.Modules.SetLocked(ctx, moduleID, locked)
	if err != nil {
		fmt.Printf("set lock: %v\n", err)
		return 1
	}
	fmt.Printf("%s locked=%v\n", m.Title, m.Locked)
	return 0
}

package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/modulegate-backend/internal/data/cache"
	"github.com/yungbote/modulegate-backend/internal/data/repos"
	types "github.com/yungbote/modulegate-backend/internal/domain"
	"github.com/yungbote/modulegate-backend/internal/modules/progression"
	"github.com/yungbote/modulegate-backend/internal/platform/apierr"
	"github.com/yungbote/modulegate-backend/internal/platform/dbctx"
	"github.com/yungbote/modulegate-backend/internal/platform/logger"
)

// ModuleService covers operator-side module changes. Anything that alters
// what Engine.Open sees must drop the cached content entry.
type ModuleService interface {
	SetLocked(ctx context.Context, moduleID uuid.UUID, locked bool) (*types.Module, error)
}

type moduleService struct {
	db      *gorm.DB
	log     *logger.Logger
	modules repos.ModuleRepo
	cache   cache.Cache
}

func NewModuleService(db *gorm.DB, baseLog *logger.Logger, modules repos.ModuleRepo, contentCache cache.Cache) ModuleService {
	return &moduleService{
		db:      db,
		log:     baseLog.With("service", "ModuleService"),
		modules: modules,
		cache:   contentCache,
	}
}

func (s *moduleService) SetLocked(ctx context.Context, moduleID uuid.UUID, locked bool) (*types.Module, error) {
	if moduleID == uuid.Nil {
		return nil, apierr.BadRequest("invalid_module_id", "missing module id")
	}
	var out *types.Module
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		m, err := s.modules.GetByID(dbc, moduleID)
		if err != nil {
			return err
		}
		if m == nil {
			return apierr.NotFound("module_not_found", "module not found")
		}
		if err := s.modules.SetLocked(dbc, moduleID, locked); err != nil {
			return err
		}
		m.Locked = locked
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, progression.ContentCacheKey(moduleID)); err != nil {
			// Engine.Open still sees the old flag until the entry expires.
			s.log.Warn("SetLocked: content cache eviction failed", "module_id", moduleID, "error", err)
		}
	}
	s.log.Info("module lock changed", "module_id", moduleID, "locked", locked)
	return out, nil
}

package aggregates

import (
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/modulegate-backend/internal/platform/dbctx"
)

// CASGuard runs conditional updates whose WHERE clause carries the invariant.
type CASGuard struct {
	db *gorm.DB
}

func NewCASGuard(db *gorm.DB) CASGuard {
	return CASGuard{db: db}
}

func (g CASGuard) baseDB(dbc dbctx.Context) (*gorm.DB, error) {
	if dbc.Tx == nil && g.db == nil {
		return nil, ValidationError("missing db transaction context")
	}
	return dbc.DB(g.db), nil
}

// UpdateWhereFlagUnset updates rows matching keys only while flag is false.
// It reports whether any row changed, which is the compare-and-set result.
func (g CASGuard) UpdateWhereFlagUnset(dbc dbctx.Context, table string, keys map[string]any, flag string, updates map[string]any) (bool, error) {
	db, err := g.baseDB(dbc)
	if err != nil {
		return false, err
	}
	table = strings.TrimSpace(table)
	flag = strings.TrimSpace(flag)
	if table == "" || flag == "" || len(keys) == 0 {
		return false, ValidationError("table, flag and keys are required for UpdateWhereFlagUnset")
	}
	if len(updates) == 0 {
		return false, ValidationError("updates must not be empty")
	}
	res := db.Table(table).
		Where(keys).
		Where(flag+" = ?", false).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

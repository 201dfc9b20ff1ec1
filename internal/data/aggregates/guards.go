package aggregates

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Monetiqai/Monetiq-sub003/internal/platform/dbctx"
)

// StatusGuard moves pack and variant rows between statuses with a
// compare-and-set on the current status column.
type StatusGuard struct {
	db *gorm.DB
}

func NewStatusGuard(db *gorm.DB) StatusGuard {
	return StatusGuard{db: db}
}

func (g StatusGuard) conn(dbc dbctx.Context) (*gorm.DB, error) {
	if db := dbc.Conn(g.db); db != nil {
		return db, nil
	}
	return nil, ValidationError("status guard has no db handle")
}

// Swap applies updates to the row only while its status is one of from.
// The bool reports whether a row was changed.
func (g StatusGuard) Swap(dbc dbctx.Context, table string, id uuid.UUID, from []string, updates map[string]any) (bool, error) {
	db, err := g.conn(dbc)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(table) == "" || id == uuid.Nil {
		return false, ValidationError("status swap needs a table and a row id")
	}
	if len(from) == 0 {
		return false, ValidationError("status swap needs at least one source status")
	}
	res := db.Table(table).Where("id = ? AND status IN ?", id, from).Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// mustSwap reports a lost status swap as a conflict.
func mustSwap(ok bool, what string) error {
	if ok {
		return nil
	}
	return ConflictError(what)
}

func statusStrings[S ~string](vals ...S) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		out = append(out, string(v))
	}
	return out
}

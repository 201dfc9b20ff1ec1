package adpack

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/Monetiqai/Monetiq-sub003/internal/domain/adpack"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/dbctx"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/logger"
)

type PackRepo interface {
	Create(dbc dbctx.Context, row *domain.Pack) (*domain.Pack, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Pack, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*domain.Pack, error)
	ListByOwner(dbc dbctx.Context, ownerID uuid.UUID, limit int) ([]*domain.Pack, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type packRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPackRepo(db *gorm.DB, baseLog *logger.Logger) PackRepo {
	return &packRepo{db: db, log: baseLog.With("repo", "PackRepo")}
}

func (r *packRepo) Create(dbc dbctx.Context, row *domain.Pack) (*domain.Pack, error) {
	t := dbc.Conn(r.db)
	if row == nil {
		return nil, nil
	}
	if err := t.Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *packRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Pack, error) {
	t := dbc.Conn(r.db)
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []*domain.Pack
	if err := t.Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// LockByID reads the pack with a row lock. Callers must hold a transaction.
func (r *packRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*domain.Pack, error) {
	t := dbc.Conn(r.db)
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []*domain.Pack
	if err := t.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *packRepo) ListByOwner(dbc dbctx.Context, ownerID uuid.UUID, limit int) ([]*domain.Pack, error) {
	t := dbc.Conn(r.db)
	var out []*domain.Pack
	if ownerID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if err := t.
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *packRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Conn(r.db)
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return t.
		Model(&domain.Pack{}).
		Where("id = ?", id).
		Updates(updates).Error
}

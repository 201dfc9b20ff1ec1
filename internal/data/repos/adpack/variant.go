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

type VariantRepo interface {
	Create(dbc dbctx.Context, rows []*domain.Variant) ([]*domain.Variant, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Variant, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*domain.Variant, error)
	ListByPack(dbc dbctx.Context, packID uuid.UUID) ([]*domain.Variant, error)

	// ClearWinners unsets is_winner on every variant of the pack except keepID.
	ClearWinners(dbc dbctx.Context, packID, keepID uuid.UUID) (int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type variantRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVariantRepo(db *gorm.DB, baseLog *logger.Logger) VariantRepo {
	return &variantRepo{db: db, log: baseLog.With("repo", "VariantRepo")}
}

func (r *variantRepo) Create(dbc dbctx.Context, rows []*domain.Variant) ([]*domain.Variant, error) {
	t := dbc.Conn(r.db)
	if len(rows) == 0 {
		return []*domain.Variant{}, nil
	}
	if err := t.Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *variantRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Variant, error) {
	t := dbc.Conn(r.db)
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []*domain.Variant
	if err := t.Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *variantRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*domain.Variant, error) {
	t := dbc.Conn(r.db)
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []*domain.Variant
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

func (r *variantRepo) ListByPack(dbc dbctx.Context, packID uuid.UUID) ([]*domain.Variant, error) {
	t := dbc.Conn(r.db)
	var out []*domain.Variant
	if packID == uuid.Nil {
		return out, nil
	}
	if err := t.
		Where("pack_id = ?", packID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	domain.SortVariants(out)
	return out, nil
}

func (r *variantRepo) ClearWinners(dbc dbctx.Context, packID, keepID uuid.UUID) (int64, error) {
	t := dbc.Conn(r.db)
	if packID == uuid.Nil {
		return 0, nil
	}
	res := t.
		Model(&domain.Variant{}).
		Where("pack_id = ? AND id <> ? AND is_winner = ?", packID, keepID, true).
		Updates(map[string]interface{}{
			"is_winner":  false,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *variantRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&domain.Variant{}).
		Where("id = ?", id).
		Updates(updates).Error
}

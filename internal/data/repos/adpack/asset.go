package adpack

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/Monetiqai/Monetiq-sub003/internal/domain/adpack"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/dbctx"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/logger"
)

type AssetRepo interface {
	Create(dbc dbctx.Context, row *domain.AdAsset) (*domain.AdAsset, error)
	GetByOwnerVariantShot(dbc dbctx.Context, ownerID, variantID uuid.UUID, shotType domain.ShotType) (*domain.AdAsset, error)
	ListByVariant(dbc dbctx.Context, ownerID, variantID uuid.UUID) ([]*domain.AdAsset, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type assetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssetRepo(db *gorm.DB, baseLog *logger.Logger) AssetRepo {
	return &assetRepo{db: db, log: baseLog.With("repo", "AdAssetRepo")}
}

func (r *assetRepo) Create(dbc dbctx.Context, row *domain.AdAsset) (*domain.AdAsset, error) {
	t := dbc.Conn(r.db)
	if row == nil {
		return nil, nil
	}
	if err := t.Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// GetByOwnerVariantShot returns the oldest entry for the key, or nil.
func (r *assetRepo) GetByOwnerVariantShot(dbc dbctx.Context, ownerID, variantID uuid.UUID, shotType domain.ShotType) (*domain.AdAsset, error) {
	t := dbc.Conn(r.db)
	if ownerID == uuid.Nil || variantID == uuid.Nil || shotType == "" {
		return nil, nil
	}
	var rows []*domain.AdAsset
	if err := t.
		Where("owner_id = ? AND variant_id = ? AND shot_type = ?", ownerID, variantID, shotType).
		Order("created_at ASC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *assetRepo) ListByVariant(dbc dbctx.Context, ownerID, variantID uuid.UUID) ([]*domain.AdAsset, error) {
	t := dbc.Conn(r.db)
	var out []*domain.AdAsset
	if ownerID == uuid.Nil || variantID == uuid.Nil {
		return out, nil
	}
	if err := t.
		Where("owner_id = ? AND variant_id = ?", ownerID, variantID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assetRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&domain.AdAsset{}).
		Where("id = ?", id).
		Updates(updates).Error
}

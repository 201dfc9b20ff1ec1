package adpack

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const AssetKindImage = "image"

// AdAsset is a ledger entry. One per (owner, variant, shot type), kept by lookup-before-write.
type AdAsset struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID     uuid.UUID      `gorm:"type:uuid;column:owner_id;not null;index:idx_ad_asset_owner_variant_shot,priority:1" json:"owner_id"`
	VariantID   uuid.UUID      `gorm:"type:uuid;column:variant_id;not null;index:idx_ad_asset_owner_variant_shot,priority:2" json:"variant_id"`
	ShotType    ShotType       `gorm:"column:shot_type;not null;index:idx_ad_asset_owner_variant_shot,priority:3" json:"shot_type"`
	Kind        string         `gorm:"column:kind;not null" json:"kind"`
	Role        string         `gorm:"column:role;not null" json:"role"`
	URL         string         `gorm:"column:url;not null" json:"url"`
	StorageKey  string         `gorm:"column:storage_key" json:"storage_key,omitempty"`
	Prompt      string         `gorm:"column:prompt;type:text" json:"prompt,omitempty"`
	SpatialRole string         `gorm:"column:spatial_role" json:"spatial_role,omitempty"`
	Metadata    datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (AdAsset) TableName() string { return "ad_asset" }

func (a *AdAsset) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

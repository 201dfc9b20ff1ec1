package adpack

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Pack is the unit of work for one product generation request.
type Pack struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID     uuid.UUID      `gorm:"type:uuid;column:owner_id;not null;index" json:"owner_id"`
	ProductID   string         `gorm:"column:product_id;not null;index" json:"product_id"`
	ProductName string         `gorm:"column:product_name;not null" json:"product_name"`
	Category    Category       `gorm:"column:category;not null" json:"category"`
	Template    Template       `gorm:"column:template;not null" json:"template"`
	Status      PackStatus     `gorm:"column:status;not null;index" json:"status"`
	Metadata    datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Pack) TableName() string { return "ad_pack" }

func (p *Pack) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

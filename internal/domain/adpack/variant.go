package adpack

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Variant is one candidate creative inside a pack. Ownership is derived through the pack.
type Variant struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	PackID          uuid.UUID      `gorm:"type:uuid;column:pack_id;not null;index" json:"pack_id"`
	VariantType     VariantType    `gorm:"column:variant_type;not null" json:"variant_type"`
	IsFinal         bool           `gorm:"column:is_final;not null;default:false" json:"is_final"`
	IsWinner        bool           `gorm:"column:is_winner;not null;default:false" json:"is_winner"`
	Status          VariantStatus  `gorm:"column:status;not null;index" json:"status"`
	Shots           datatypes.JSON `gorm:"column:shots;type:jsonb" json:"shots,omitempty"`
	Payload         datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload,omitempty"`
	Metadata        datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	SourceVariantID *uuid.UUID     `gorm:"type:uuid;column:source_variant_id;index" json:"source_variant_id,omitempty"`
	FailureReason   string         `gorm:"column:failure_reason" json:"failure_reason,omitempty"`
	CreatedAt       time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Variant) TableName() string { return "ad_variant" }

func (v *Variant) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

func (v *Variant) ShotMap() (ShotMap, error) {
	if v == nil {
		return ShotMap{}, nil
	}
	return DecodeShotMap(v.Shots)
}

func (v *Variant) GenerationPayload() (GenerationPayload, error) {
	var out GenerationPayload
	if v == nil || isEmptyJSON(v.Payload) {
		return out, nil
	}
	err := json.Unmarshal(v.Payload, &out)
	return out, err
}

// MergeMetadata returns raw with patch applied key by key.
func MergeMetadata(raw datatypes.JSON, patch map[string]any) (datatypes.JSON, error) {
	merged := map[string]any{}
	if !isEmptyJSON(raw) {
		if err := json.Unmarshal(raw, &merged); err != nil {
			return nil, err
		}
		if merged == nil {
			merged = map[string]any{}
		}
	}
	for k, v := range patch {
		merged[k] = v
	}
	b, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func isEmptyJSON(raw datatypes.JSON) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}

// SortVariants orders FAST before FINAL, then by VariantTypes order, then by creation.
func SortVariants(vs []*Variant) {
	typeRank := func(t VariantType) int {
		for i, v := range VariantTypes {
			if v == t {
				return i
			}
		}
		return len(VariantTypes)
	}
	sort.SliceStable(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]
		if a.IsFinal != b.IsFinal {
			return !a.IsFinal
		}
		if ra, rb := typeRank(a.VariantType), typeRank(b.VariantType); ra != rb {
			return ra < rb
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

package adpack

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type ShotPrompt struct {
	Prompt      string `json:"prompt"`
	SpatialRole string `json:"spatial_role,omitempty"`
}

// GenerationPayload is the frozen input a variant was generated from.
type GenerationPayload struct {
	ProductID   string                  `json:"product_id"`
	ProductName string                  `json:"product_name"`
	Category    Category                `json:"category"`
	Template    Template                `json:"template"`
	VariantType VariantType             `json:"variant_type"`
	Model       string                  `json:"model"`
	Angle       string                  `json:"angle,omitempty"`
	AspectRatio string                  `json:"aspect_ratio,omitempty"`
	Shots       map[ShotType]ShotPrompt `json:"shots"`
	Options     map[string]any          `json:"options,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
}

func (p GenerationPayload) JSON() (datatypes.JSON, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

// Promote derives the FINAL payload from a FAST one. Only Model and CreatedAt differ.
func Promote(fast GenerationPayload, finalModel string, now time.Time) GenerationPayload {
	out := fast
	out.Model = finalModel
	out.CreatedAt = now
	if fast.Shots != nil {
		out.Shots = make(map[ShotType]ShotPrompt, len(fast.Shots))
		for k, v := range fast.Shots {
			out.Shots[k] = v
		}
	}
	if fast.Options != nil {
		out.Options = make(map[string]any, len(fast.Options))
		for k, v := range fast.Options {
			out.Options[k] = v
		}
	}
	return out
}

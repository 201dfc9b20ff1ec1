package adpack

import (
	"encoding/json"
	"strings"

	"gorm.io/datatypes"
)

type Shot struct {
	ShotType    ShotType       `json:"shot_type"`
	ImageURL    string         `json:"image_url"`
	StorageKey  string         `json:"storage_key,omitempty"`
	Prompt      string         `json:"prompt,omitempty"`
	SpatialRole string         `json:"spatial_role,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// ShotMap is the variant's embedded shot record. It is authoritative for lifecycle decisions.
type ShotMap map[ShotType]Shot

func DecodeShotMap(raw datatypes.JSON) (ShotMap, error) {
	out := ShotMap{}
	if isEmptyJSON(raw) {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = ShotMap{}
	}
	return out, nil
}

func (m ShotMap) JSON() (datatypes.JSON, error) {
	if m == nil {
		m = ShotMap{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

// Present reports whether the shot exists with a non-empty image reference.
func (m ShotMap) Present(t ShotType) bool {
	s, ok := m[t]
	return ok && strings.TrimSpace(s.ImageURL) != ""
}

// Missing lists required shots that are not present, in canonical order.
func Missing(m ShotMap) []ShotType {
	out := make([]ShotType, 0, len(RequiredShots))
	for _, t := range RequiredShots {
		if !m.Present(t) {
			out = append(out, t)
		}
	}
	return out
}

func IsComplete(m ShotMap) bool {
	return len(Missing(m)) == 0
}

func ShotTypeStrings(in []ShotType) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		out = append(out, string(t))
	}
	return out
}

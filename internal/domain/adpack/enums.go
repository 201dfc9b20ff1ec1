package adpack

import "strings"

type PackStatus string

const (
	PackStatusGenerating PackStatus = "generating"
	PackStatusReady      PackStatus = "ready"
	PackStatusFailed     PackStatus = "failed"
)

func (s PackStatus) Valid() bool {
	switch s {
	case PackStatusGenerating, PackStatusReady, PackStatusFailed:
		return true
	default:
		return false
	}
}

type VariantStatus string

const (
	VariantStatusGenerating     VariantStatus = "generating"
	VariantStatusShotsReady     VariantStatus = "shots_ready"
	VariantStatusShotsValidated VariantStatus = "shots_validated"
	VariantStatusReady          VariantStatus = "ready"
	VariantStatusFailed         VariantStatus = "failed"
)

func (s VariantStatus) Valid() bool {
	_, ok := variantRank[s]
	return ok
}

type VariantType string

const (
	VariantTypeHook       VariantType = "hook"
	VariantTypeTrust      VariantType = "trust"
	VariantTypeAggressive VariantType = "aggressive"
	VariantTypeOffer      VariantType = "offer"
)

// VariantTypes is the fixed set generated for every pack, in display order.
var VariantTypes = []VariantType{VariantTypeHook, VariantTypeTrust, VariantTypeAggressive, VariantTypeOffer}

func (t VariantType) Valid() bool {
	for _, v := range VariantTypes {
		if v == t {
			return true
		}
	}
	return false
}

// ShotType names a creative beat. ShotTypeWinner is a beat, not the variant winner flag.
type ShotType string

const (
	ShotTypeHook      ShotType = "hook"
	ShotTypeProof     ShotType = "proof"
	ShotTypeVariation ShotType = "variation"
	ShotTypeWinner    ShotType = "winner"
)

// RequiredShots is the canonical shot order.
var RequiredShots = []ShotType{ShotTypeHook, ShotTypeProof, ShotTypeVariation, ShotTypeWinner}

func ParseShotType(raw string) (ShotType, bool) {
	t := ShotType(strings.ToLower(strings.TrimSpace(raw)))
	for _, s := range RequiredShots {
		if s == t {
			return t, true
		}
	}
	return "", false
}

// Role is the ledger role label for the shot.
func (t ShotType) Role() string { return "shot_" + string(t) }

type Category string

const (
	CategoryHoodies     Category = "hoodies"
	CategoryBags        Category = "bags"
	CategoryTShirts     Category = "tshirts"
	CategoryAccessories Category = "accessories"
)

var Categories = []Category{CategoryHoodies, CategoryBags, CategoryTShirts, CategoryAccessories}

func ParseCategory(raw string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	for _, v := range Categories {
		if v == c {
			return c, true
		}
	}
	return "", false
}

type Template string

const (
	TemplateLuxury     Template = "luxury"
	TemplateStreetwear Template = "streetwear"
	TemplateMinimalist Template = "minimalist"
	TemplateBold       Template = "bold"
)

var Templates = []Template{TemplateLuxury, TemplateStreetwear, TemplateMinimalist, TemplateBold}

func ParseTemplate(raw string) (Template, bool) {
	t := Template(strings.ToLower(strings.TrimSpace(raw)))
	for _, v := range Templates {
		if v == t {
			return t, true
		}
	}
	return "", false
}

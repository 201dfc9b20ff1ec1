package testutil

import (
	"context"
	"testing"

	"github.com/Monetiqai/Monetiq-sub003/internal/domain/adpack"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func SeedPack(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) *adpack.Pack {
	tb.Helper()
	p := &adpack.Pack{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		ProductID:   "sku-" + uuid.NewString()[:8],
		ProductName: "Cloud Hoodie",
		Category:    adpack.CategoryHoodies,
		Template:    adpack.TemplateStreetwear,
		Status:      adpack.PackStatusGenerating,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed pack: %v", err)
	}
	return p
}

func SeedVariant(tb testing.TB, ctx context.Context, tx *gorm.DB, packID uuid.UUID, vt adpack.VariantType, status adpack.VariantStatus) *adpack.Variant {
	tb.Helper()
	v := &adpack.Variant{
		ID:          uuid.New(),
		PackID:      packID,
		VariantType: vt,
		Status:      status,
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed variant: %v", err)
	}
	return v
}

// CompleteShots returns a shot map with every required shot present.
func CompleteShots(prefix string) adpack.ShotMap {
	out := adpack.ShotMap{}
	for _, st := range adpack.RequiredShots {
		out[st] = adpack.Shot{ShotType: st, ImageURL: prefix + "/" + string(st) + ".png", StorageKey: prefix + "/" + string(st) + ".png"}
	}
	return out
}

package services

import (
	"strings"
	"testing"
	"time"

	"github.com/Monetiqai/Monetiq-sub003/internal/domain/adpack"
)

func TestEmbeddedCatalogCoversEveryCombination(t *testing.T) {
	c, err := ParsePromptCatalog(embeddedPromptCatalog)
	if err != nil {
		t.Fatalf("ParsePromptCatalog: %v", err)
	}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, cat := range adpack.Categories {
		for _, tpl := range adpack.Templates {
			for _, vt := range adpack.VariantTypes {
				p, err := c.BuildPayload(PayloadInput{
					ProductID:   "sku-1",
					ProductName: "  Trail Cap ",
					Category:    cat,
					Template:    tpl,
					VariantType: vt,
					Model:       "fast",
					Now:         now,
				})
				if err != nil {
					t.Fatalf("%s/%s/%s: %v", cat, tpl, vt, err)
				}
				if p.Model != "fast" || !p.CreatedAt.Equal(now) || p.AspectRatio != "4:5" {
					t.Fatalf("payload header: %+v", p)
				}
				if len(p.Shots) != len(adpack.RequiredShots) {
					t.Fatalf("shots: want=%d got=%d", len(adpack.RequiredShots), len(p.Shots))
				}
				for st, sp := range p.Shots {
					if !strings.Contains(sp.Prompt, "Trail Cap") || strings.Contains(sp.Prompt, "{") {
						t.Fatalf("%s prompt: %q", st, sp.Prompt)
					}
					if sp.SpatialRole == "" {
						t.Fatalf("%s has no spatial role", st)
					}
				}
			}
		}
	}
}

func TestShotsHaveDistinctRoles(t *testing.T) {
	c, err := ParsePromptCatalog(embeddedPromptCatalog)
	if err != nil {
		t.Fatalf("ParsePromptCatalog: %v", err)
	}
	p, err := c.BuildPayload(PayloadInput{ProductName: "Tote", Category: adpack.CategoryBags, Template: adpack.TemplateLuxury, VariantType: adpack.VariantTypeOffer})
	if err != nil {
		t.Fatalf("BuildPayload: %v", err)
	}
	want := map[adpack.ShotType]string{
		adpack.ShotTypeHook:      "hero",
		adpack.ShotTypeProof:     "detail",
		adpack.ShotTypeVariation: "context",
		adpack.ShotTypeWinner:    "closing",
	}
	for st, role := range want {
		if p.Shots[st].SpatialRole != role {
			t.Fatalf("%s: want=%s got=%s", st, role, p.Shots[st].SpatialRole)
		}
	}
}

func TestParsePromptCatalogRejectsGaps(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"no format", "version: 1\n", "format is required"},
		{"missing enums", "format: \"{product_name}\"\ncategories:\n  hoodies: {subject: x}\n", "categories.bags"},
		{"bad yaml", "format: [", "parse prompt catalog"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParsePromptCatalog([]byte(tc.yaml))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("want error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestBuildPayloadUnknownVariantType(t *testing.T) {
	c, err := ParsePromptCatalog(embeddedPromptCatalog)
	if err != nil {
		t.Fatalf("ParsePromptCatalog: %v", err)
	}
	_, err = c.BuildPayload(PayloadInput{Category: adpack.CategoryBags, Template: adpack.TemplateBold, VariantType: "teaser"})
	if err == nil {
		t.Fatalf("expected error for unknown variant type")
	}
}

package adpack

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func reasonOf(t *testing.T, err error) string {
	t.Helper()
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransitionError, got=%v", err)
	}
	return te.Reason
}

func TestCheckWinnerEligible(t *testing.T) {
	if err := CheckWinnerEligible(&Variant{Status: VariantStatusShotsReady}); err != nil {
		t.Fatalf("fast variant: %v", err)
	}
	if err := CheckWinnerEligible(&Variant{Status: VariantStatusGenerating}); err != nil {
		t.Fatalf("generating fast variant should be eligible: %v", err)
	}
	if got := reasonOf(t, CheckWinnerEligible(&Variant{IsFinal: true, Status: VariantStatusFailed})); got != ReasonFinalVariant {
		t.Fatalf("final checked before failed, got=%s", got)
	}
	if got := reasonOf(t, CheckWinnerEligible(&Variant{Status: VariantStatusFailed})); got != ReasonVariantFailed {
		t.Fatalf("failed reason: %s", got)
	}
}

func TestCheckPromotable(t *testing.T) {
	winner := &Variant{ID: uuid.New(), IsWinner: true, Status: VariantStatusShotsValidated}
	if err := CheckPromotable(winner, []*Variant{winner}); err != nil {
		t.Fatalf("promotable: %v", err)
	}
	if got := reasonOf(t, CheckPromotable(&Variant{Status: VariantStatusShotsValidated}, nil)); got != ReasonNotWinner {
		t.Fatalf("reason: %s", got)
	}
	if got := reasonOf(t, CheckPromotable(&Variant{IsWinner: true, Status: VariantStatusShotsReady}, nil)); got != ReasonNotValidated {
		t.Fatalf("reason: %s", got)
	}
	if got := reasonOf(t, CheckPromotable(&Variant{IsFinal: true}, nil)); got != ReasonFinalPromotable {
		t.Fatalf("reason: %s", got)
	}
	live := &Variant{ID: uuid.New(), IsFinal: true, Status: VariantStatusGenerating}
	if got := reasonOf(t, CheckPromotable(winner, []*Variant{winner, live})); got != ReasonAlreadyPromoted {
		t.Fatalf("reason: %s", got)
	}
	dead := &Variant{ID: uuid.New(), IsFinal: true, Status: VariantStatusFailed}
	if err := CheckPromotable(winner, []*Variant{winner, dead}); err != nil {
		t.Fatalf("failed final should allow another promotion: %v", err)
	}
}

func TestPromoteChangesOnlyModelAndCreatedAt(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	fast := GenerationPayload{
		ProductID:   "sku-1",
		ProductName: "Cloud Hoodie",
		Category:    CategoryHoodies,
		Template:    TemplateStreetwear,
		VariantType: VariantTypeTrust,
		Model:       "fast-model",
		Angle:       "social proof",
		AspectRatio: "9:16",
		Shots: map[ShotType]ShotPrompt{
			ShotTypeHook: {Prompt: "hook prompt", SpatialRole: "close"},
		},
		Options:   map[string]any{"seed": 7},
		CreatedAt: created,
	}
	now := created.Add(time.Hour)
	final := Promote(fast, "final-model", now)

	if final.Model != "final-model" || !final.CreatedAt.Equal(now) {
		t.Fatalf("model/created_at not swapped: %+v", final)
	}
	final.Model = fast.Model
	final.CreatedAt = fast.CreatedAt
	a, _ := final.JSON()
	b, _ := fast.JSON()
	if string(a) != string(b) {
		t.Fatalf("payload drift:\nfast=%s\nfinal=%s", b, a)
	}

	final.Shots[ShotTypeHook] = ShotPrompt{Prompt: "mutated"}
	if fast.Shots[ShotTypeHook].Prompt != "hook prompt" {
		t.Fatalf("promote must not share the shot map with its input")
	}
}

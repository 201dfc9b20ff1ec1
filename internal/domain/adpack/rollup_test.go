package adpack

import "testing"

func TestRollup(t *testing.T) {
	cases := []struct {
		name     string
		current  PackStatus
		statuses []VariantStatus
		want     PackStatus
		changed  bool
	}{
		{"still generating", PackStatusGenerating, []VariantStatus{VariantStatusShotsReady, VariantStatusGenerating}, PackStatusGenerating, false},
		{"all past generating", PackStatusGenerating, []VariantStatus{VariantStatusShotsReady, VariantStatusFailed, VariantStatusReady, VariantStatusShotsValidated}, PackStatusReady, true},
		{"all failed", PackStatusGenerating, []VariantStatus{VariantStatusFailed, VariantStatusFailed}, PackStatusReady, true},
		{"already ready", PackStatusReady, []VariantStatus{VariantStatusShotsReady}, PackStatusReady, false},
		{"ready pack with new final generating", PackStatusReady, []VariantStatus{VariantStatusShotsValidated, VariantStatusGenerating}, PackStatusReady, false},
		{"failed is terminal", PackStatusFailed, []VariantStatus{VariantStatusReady}, PackStatusFailed, false},
		{"no variants", PackStatusGenerating, nil, PackStatusGenerating, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, changed := Rollup(tc.current, tc.statuses)
			if got != tc.want || changed != tc.changed {
				t.Fatalf("Rollup: want=(%s,%v) got=(%s,%v)", tc.want, tc.changed, got, changed)
			}
			again, changedAgain := Rollup(got, tc.statuses)
			if again != got || changedAgain {
				t.Fatalf("second rollup not a no-op: (%s,%v)", again, changedAgain)
			}
		})
	}
}

func TestVariantStatusesSkipsFinal(t *testing.T) {
	variants := []*Variant{
		{VariantType: VariantTypeHook, Status: VariantStatusShotsValidated, IsWinner: true},
		{VariantType: VariantTypeTrust, Status: VariantStatusFailed},
		{VariantType: VariantTypeHook, Status: VariantStatusGenerating, IsFinal: true},
		nil,
	}
	got := VariantStatuses(variants)
	if len(got) != 2 || got[0] != VariantStatusShotsValidated || got[1] != VariantStatusFailed {
		t.Fatalf("VariantStatuses: got %v", got)
	}
	if next, changed := Rollup(PackStatusGenerating, got); next != PackStatusReady || !changed {
		t.Fatalf("generating FINAL held the pack back: (%s,%v)", next, changed)
	}
}

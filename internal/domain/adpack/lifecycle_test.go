package adpack

import (
	"errors"
	"testing"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to VariantStatus
		want     bool
	}{
		{VariantStatusGenerating, VariantStatusShotsReady, true},
		{VariantStatusGenerating, VariantStatusFailed, true},
		{VariantStatusGenerating, VariantStatusShotsValidated, false},
		{VariantStatusGenerating, VariantStatusReady, false},
		{VariantStatusShotsReady, VariantStatusShotsValidated, true},
		{VariantStatusShotsReady, VariantStatusReady, true},
		{VariantStatusShotsReady, VariantStatusFailed, true},
		{VariantStatusShotsReady, VariantStatusGenerating, false},
		{VariantStatusShotsValidated, VariantStatusReady, true},
		{VariantStatusShotsValidated, VariantStatusFailed, true},
		{VariantStatusShotsValidated, VariantStatusShotsReady, false},
		{VariantStatusReady, VariantStatusFailed, false},
		{VariantStatusFailed, VariantStatusReady, false},
		{VariantStatusFailed, VariantStatusGenerating, false},
		{VariantStatusShotsReady, VariantStatusShotsReady, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			if got := CanTransition(tc.from, tc.to); got != tc.want {
				t.Fatalf("CanTransition: want=%v got=%v", tc.want, got)
			}
			err := CheckTransition(tc.from, tc.to)
			if tc.want && err != nil {
				t.Fatalf("CheckTransition: unexpected %v", err)
			}
			if !tc.want {
				var te *TransitionError
				if !errors.As(err, &te) || te.Reason != ReasonIllegalTransition {
					t.Fatalf("CheckTransition: want illegal transition, got=%v", err)
				}
			}
		})
	}
}

func TestTransitionsNeverLowerRank(t *testing.T) {
	all := []VariantStatus{VariantStatusGenerating, VariantStatusShotsReady, VariantStatusShotsValidated, VariantStatusReady, VariantStatusFailed}
	for _, from := range all {
		for _, to := range all {
			if CanTransition(from, to) && to.Rank() <= from.Rank() {
				t.Fatalf("%s -> %s moves backward", from, to)
			}
		}
	}
}

func TestFailAndValidateSources(t *testing.T) {
	for _, from := range []VariantStatus{VariantStatusGenerating, VariantStatusShotsReady, VariantStatusShotsValidated} {
		if !CanTransition(from, VariantStatusFailed) {
			t.Fatalf("%s should be able to fail", from)
		}
		if want := from == VariantStatusShotsReady; CanTransition(from, VariantStatusShotsValidated) != want {
			t.Fatalf("%s -> shots_validated: want %v", from, want)
		}
	}
}

func TestCheckValidationMissingWinner(t *testing.T) {
	shots := ShotMap{
		ShotTypeHook:      {ImageURL: "h"},
		ShotTypeProof:     {ImageURL: "p"},
		ShotTypeVariation: {ImageURL: "v"},
	}
	err := CheckValidation(VariantStatusShotsReady, shots)
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("expected transition error, got=%v", err)
	}
	if te.Reason != ReasonShotsIncomplete {
		t.Fatalf("reason: %s", te.Reason)
	}
	if len(te.Missing) != 1 || te.Missing[0] != ShotTypeWinner {
		t.Fatalf("missing: %v", te.Missing)
	}

	shots[ShotTypeWinner] = Shot{ImageURL: "w"}
	if err := CheckValidation(VariantStatusShotsReady, shots); err != nil {
		t.Fatalf("complete shots_ready variant: %v", err)
	}
	err = CheckValidation(VariantStatusGenerating, shots)
	if !errors.As(err, &te) || te.Reason != ReasonIllegalTransition {
		t.Fatalf("generating variant must not validate, got=%v", err)
	}
	err = CheckValidation(VariantStatusShotsValidated, shots)
	if !errors.As(err, &te) || te.Reason != ReasonIllegalTransition {
		t.Fatalf("validated variant must not validate again, got=%v", err)
	}
}

package adpack

import (
	"fmt"
	"strings"
)

// Reasons carried by a TransitionError. Clients switch on these.
const (
	ReasonIllegalTransition = "illegal_transition"
	ReasonShotsIncomplete   = "shots_incomplete"
	ReasonFinalVariant      = "final_variant"
	ReasonVariantFailed     = "variant_failed"
	ReasonFinalPromotable   = "final_not_promotable"
	ReasonNotWinner         = "not_winner"
	ReasonNotValidated      = "not_validated"
	ReasonAlreadyPromoted   = "already_promoted"
)

// TransitionError reports a rejected state change. Missing is set for ReasonShotsIncomplete.
type TransitionError struct {
	From    VariantStatus
	To      VariantStatus
	Reason  string
	Missing []ShotType
}

func (e *TransitionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case len(e.Missing) > 0:
		return fmt.Sprintf("%s: missing shots %s", e.Reason, strings.Join(ShotTypeStrings(e.Missing), ","))
	case e.From != "" || e.To != "":
		return fmt.Sprintf("%s: %s -> %s", e.Reason, e.From, e.To)
	default:
		return e.Reason
	}
}

// Both terminal states share the top rank so neither can follow the other.
var variantRank = map[VariantStatus]int{
	VariantStatusGenerating:     0,
	VariantStatusShotsReady:     1,
	VariantStatusShotsValidated: 2,
	VariantStatusReady:          3,
	VariantStatusFailed:         3,
}

var variantTransitions = map[VariantStatus][]VariantStatus{
	VariantStatusGenerating:     {VariantStatusShotsReady, VariantStatusFailed},
	VariantStatusShotsReady:     {VariantStatusShotsValidated, VariantStatusReady, VariantStatusFailed},
	VariantStatusShotsValidated: {VariantStatusReady, VariantStatusFailed},
}

func (s VariantStatus) Rank() int {
	r, ok := variantRank[s]
	if !ok {
		return -1
	}
	return r
}

// CanTransition reports whether from -> to is an allowed forward edge.
func CanTransition(from, to VariantStatus) bool {
	for _, next := range variantTransitions[from] {
		if next == to {
			return next.Rank() > from.Rank()
		}
	}
	return false
}

func CheckTransition(from, to VariantStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	return &TransitionError{From: from, To: to, Reason: ReasonIllegalTransition}
}

// CheckValidation is the shots_ready -> shots_validated gate. Missing shots are
// reported before status so the caller learns what is left to produce.
func CheckValidation(status VariantStatus, shots ShotMap) error {
	if missing := Missing(shots); len(missing) > 0 {
		return &TransitionError{From: status, To: VariantStatusShotsValidated, Reason: ReasonShotsIncomplete, Missing: missing}
	}
	return CheckTransition(status, VariantStatusShotsValidated)
}

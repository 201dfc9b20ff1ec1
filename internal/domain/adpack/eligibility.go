package adpack

// CheckWinnerEligible rejects FINAL and failed variants. Ownership is checked by the caller.
func CheckWinnerEligible(v *Variant) error {
	if v.IsFinal {
		return &TransitionError{Reason: ReasonFinalVariant}
	}
	if v.Status == VariantStatusFailed {
		return &TransitionError{From: v.Status, Reason: ReasonVariantFailed}
	}
	return nil
}

// CheckPromotable checks a FAST winner against its pack siblings before a FINAL is created.
func CheckPromotable(v *Variant, siblings []*Variant) error {
	if v.IsFinal {
		return &TransitionError{Reason: ReasonFinalPromotable}
	}
	if !v.IsWinner {
		return &TransitionError{Reason: ReasonNotWinner}
	}
	if v.Status != VariantStatusShotsValidated && v.Status != VariantStatusReady {
		return &TransitionError{From: v.Status, Reason: ReasonNotValidated}
	}
	for _, s := range siblings {
		if s == nil || s.ID == v.ID {
			continue
		}
		if s.IsFinal && s.Status != VariantStatusFailed {
			return &TransitionError{Reason: ReasonAlreadyPromoted}
		}
	}
	return nil
}

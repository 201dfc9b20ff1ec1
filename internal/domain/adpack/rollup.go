package adpack

// RollupDone is true when no variant is still in bare generating.
// A pack without variants has nothing to review and is not done.
func RollupDone(statuses []VariantStatus) bool {
	if len(statuses) == 0 {
		return false
	}
	for _, s := range statuses {
		if s == VariantStatusGenerating {
			return false
		}
	}
	return true
}

// Rollup returns the pack status implied by its variants. changed is false when
// nothing should be written.
func Rollup(current PackStatus, statuses []VariantStatus) (next PackStatus, changed bool) {
	if current != PackStatusGenerating {
		return current, false
	}
	if !RollupDone(statuses) {
		return current, false
	}
	return PackStatusReady, true
}

// VariantStatuses lists the FAST variants' statuses. A FINAL render started
// after promotion does not hold the pack back.
func VariantStatuses(variants []*Variant) []VariantStatus {
	out := make([]VariantStatus, 0, len(variants))
	for _, v := range variants {
		if v != nil && !v.IsFinal {
			out = append(out, v.Status)
		}
	}
	return out
}

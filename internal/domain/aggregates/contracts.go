package aggregates

// Contract names an aggregate, the invariant it guards and the tables its
// transactions write.
type Contract struct {
	Name      string
	Invariant string
	Tables    []string
}

// Aggregate is implemented by every write boundary in this package.
type Aggregate interface {
	Contract() Contract
}

// Writes reports whether the contract declares table as one it writes.
func (c Contract) Writes(table string) bool {
	for _, t := range c.Tables {
		if t == table {
			return true
		}
	}
	return false
}

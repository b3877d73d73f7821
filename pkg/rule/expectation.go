package rule

import "fmt"

// Unbounded marks an expectation with no upper limit.
const Unbounded = -1

// Expectation is an inclusive call-count range [Min, Max]. Max < 0 means no
// upper bound. The zero value intentionally means "exactly zero calls"; use
// AnyCount for the no-constraint default.
type Expectation struct {
	Min int
	Max int
}

// AnyCount places no constraint on the call count (0..unbounded).
// This is the default when a rule specifies no expectation.
func AnyCount() Expectation {
	return Expectation{Min: 0, Max: Unbounded}
}

// Exactly requires the rule to be called exactly n times.
func Exactly(n int) Expectation {
	return Expectation{Min: n, Max: n}
}

// AtLeast requires the rule to be called n or more times.
func AtLeast(n int) Expectation {
	return Expectation{Min: n, Max: Unbounded}
}

// AtMost requires the rule to be called no more than n times.
func AtMost(n int) Expectation {
	return Expectation{Min: 0, Max: n}
}

// Between requires the call count to fall in the inclusive range [min, max].
func Between(min, max int) Expectation {
	return Expectation{Min: min, Max: max}
}

// Contains reports whether count satisfies the expectation.
func (e Expectation) Contains(count int) bool {
	if count < e.Min {
		return false
	}
	return e.Max < 0 || count <= e.Max
}

// String renders the range for violation reports, e.g. "[1,3]", "[2,2]",
// "[1,unbounded]".
func (e Expectation) String() string {
	if e.Max < 0 {
		return fmt.Sprintf("[%d,unbounded]", e.Min)
	}
	return fmt.Sprintf("[%d,%d]", e.Min, e.Max)
}

// Violation reports a rule whose observed call count fell outside its
// expectation at verification time.
type Violation struct {
	// RuleID is the identity assigned to the rule at mount time.
	RuleID string

	// Description is the rule's matcher description.
	Description string

	// Expected is the required call-count range.
	Expected Expectation

	// Observed is the call count recorded for the rule.
	Observed int
}

func (v *Violation) Error() string {
	return fmt.Sprintf("rule %s (%s): expected %s calls, observed %d",
		v.RuleID, v.Description, v.Expected, v.Observed)
}

// Verify compares an observed call count against an expectation. Returns nil
// on success, or a *Violation describing the mismatch.
func Verify(id, description string, expected Expectation, observed int) error {
	if expected.Contains(observed) {
		return nil
	}
	return &Violation{
		RuleID:      id,
		Description: description,
		Expected:    expected,
		Observed:    observed,
	}
}

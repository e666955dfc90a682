package customs

import (
	"strings"

	"github.com/OpenNSW/customs/internal/declaration"
)

// Verdict is the outcome of a review.
type Verdict string

const (
	VerdictApprove Verdict = "APPROVE"
	VerdictReject  Verdict = "REJECT"
)

// ParseVerdict reads a verdict label, case-insensitively.
func ParseVerdict(label string) (Verdict, error) {
	switch v := Verdict(strings.ToUpper(strings.TrimSpace(label))); v {
	case VerdictApprove, VerdictReject:
		return v, nil
	default:
		return "", &InvalidFieldError{Field: "verdict", Value: label, Reason: "expected APPROVE or REJECT"}
	}
}

// VerdictPolicy decides how a review ends. The assessment is nil when the inspector
// did not assess the declaration.
type VerdictPolicy interface {
	Decide(d declaration.Inspecting, assessment *TaxAssessment) (Verdict, error)
}

// VerdictFunc adapts a function to VerdictPolicy.
type VerdictFunc func(d declaration.Inspecting, assessment *TaxAssessment) (Verdict, error)

func (f VerdictFunc) Decide(d declaration.Inspecting, assessment *TaxAssessment) (Verdict, error) {
	return f(d, assessment)
}

// StaticVerdict always returns the same verdict, for reviews decided by a person.
type StaticVerdict Verdict

func (s StaticVerdict) Decide(declaration.Inspecting, *TaxAssessment) (Verdict, error) {
	return ParseVerdict(string(s))
}

// Package classify assigns clause-type labels and heuristic risk scores
// to clause spans. All classification is deterministic keyword matching;
// there is no trained model and no claim of legal correctness. Outputs
// are estimates intended for human review.
package classify

import "strings"

// Type is a clause-type label.
type Type string

const (
	Confidentiality      Type = "confidentiality"
	Payment              Type = "payment"
	Termination          Type = "termination"
	Indemnification      Type = "indemnification"
	IntellectualProperty Type = "intellectual_property"
	GoverningLaw         Type = "governing_law"
	General              Type = "general"
)

// rule pairs a clause type with its lowercase indicator phrases.
type rule struct {
	label      Type
	indicators []string
}

// rules is evaluated in order; the first type with any indicator present
// wins. The ordering is a deliberate tie-break: a span mentioning both
// "payment" and "terminate" is classified under whichever type appears
// earlier here. Do not reorder without revisiting callers that depend on
// the documented priority.
var rules = []rule{
	{Confidentiality, []string{"confidential", "non-disclosure", "proprietary"}},
	{Payment, []string{"payment", "fee", "compensation", "invoice"}},
	{Termination, []string{"terminate", "termination", "end", "expire"}},
	{Indemnification, []string{"indemnify", "indemnification", "liability", "damages"}},
	{IntellectualProperty, []string{"intellectual property", "copyright", "patent", "trademark"}},
	{GoverningLaw, []string{"governing law", "jurisdiction", "dispute", "arbitration"}},
}

// TypeOf returns the clause type for a span. Unmatched spans are General;
// that is a defined fallback, never a failure.
func TypeOf(span string) Type {
	lower := strings.ToLower(span)
	for _, r := range rules {
		for _, ind := range r.indicators {
			if strings.Contains(lower, ind) {
				return r.label
			}
		}
	}
	return General
}

// Classify returns the clause type and canonical risk score for a span.
func Classify(span string) (Type, float64) {
	return TypeOf(span), Score(span)
}

// AllTypes lists every clause type in priority order, General last.
func AllTypes() []Type {
	types := make([]Type, 0, len(rules)+1)
	for _, r := range rules {
		types = append(types, r.label)
	}
	return append(types, General)
}

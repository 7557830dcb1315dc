package classify

import "strings"

// docTypeRule pairs a document-type label with its indicator phrases.
// Evaluated in order, first match wins.
type docTypeRule struct {
	label      string
	indicators []string
}

var docTypeRules = []docTypeRule{
	{"Employment Agreement", []string{"employment agreement", "employment contract", "job offer"}},
	{"Service Agreement", []string{"service agreement", "consulting agreement", "professional services"}},
	{"Non-Disclosure Agreement", []string{"non-disclosure", "nda", "confidentiality agreement"}},
	{"Lease Agreement", []string{"lease agreement", "rental agreement", "tenancy"}},
	{"Purchase Agreement", []string{"purchase agreement", "sales contract", "buy-sell"}},
	{"Partnership Agreement", []string{"partnership agreement", "joint venture"}},
}

// DetectDocumentType identifies the overall document type from content.
// Returns "General Legal Document" when nothing matches.
func DetectDocumentType(text string) string {
	lower := strings.ToLower(text)
	for _, r := range docTypeRules {
		for _, ind := range r.indicators {
			if strings.Contains(lower, ind) {
				return r.label
			}
		}
	}
	return "General Legal Document"
}

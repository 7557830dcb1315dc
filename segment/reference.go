package segment

import (
	"regexp"
	"strings"
)

// ---------------------------------------------------------------------------
// Clause numbering
// ---------------------------------------------------------------------------

// clausePattern matches hierarchical numbered clauses such as
// "1.1", "1.1.1", "12.3.4", etc. at the start of a span.
var clausePattern = regexp.MustCompile(`^(\d+(?:\.\d+)+)\s`)

// ClauseNumber extracts the leading clause number from a span.
// Given "1.2.3 The contractor shall..." it returns "1.2.3" and true.
func ClauseNumber(text string) (string, bool) {
	text = strings.TrimSpace(text)
	m := clausePattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

// ---------------------------------------------------------------------------
// Defined terms
// ---------------------------------------------------------------------------

// definedTermPattern matches a quoted term being defined using "means"
// or "shall mean", the dominant style in contract definition sections.
var definedTermPattern = regexp.MustCompile(
	`(?i)[""\x{201c}]([^"""\x{201d}]+)[""\x{201d}]\s+(?:means|shall\s+mean)\b`,
)

// DefinedTerms scans a span for contract-style definitions and returns
// the defined terms in order of appearance, deduplicated.
func DefinedTerms(text string) []string {
	matches := definedTermPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	var terms []string
	for _, m := range matches {
		term := strings.TrimSpace(m[1])
		key := strings.ToLower(term)
		if term == "" || seen[key] {
			continue
		}
		seen[key] = true
		terms = append(terms, term)
	}
	return terms
}

// ---------------------------------------------------------------------------
// Cross-references
// ---------------------------------------------------------------------------

// crossRefPatterns match common cross-reference styles found in legal
// and contractual documents.
var crossRefPatterns = []*regexp.Regexp{
	// "clause 1.2", "Clause 1.2.3"
	regexp.MustCompile(`(?i)\bclause\s+(\d+(?:\.\d+)*)`),
	// "section 1.2", "Section 3"
	regexp.MustCompile(`(?i)\bsection\s+(\d+(?:\.\d+)*)`),
	// "article 5", "Article IV"
	regexp.MustCompile(`(?i)\barticle\s+(\d+|[IVXLCDM]+)`),
	// "schedule 1", "Schedule A"
	regexp.MustCompile(`(?i)\bschedule\s+([A-Z0-9]+)`),
	// "appendix A", "Appendix 3"
	regexp.MustCompile(`(?i)\bappendix\s+([A-Z0-9]+)`),
	// "annex 1", "Annex B"
	regexp.MustCompile(`(?i)\bannex\s+([A-Z0-9]+)`),
}

// CrossReference holds a detected cross-reference within a span.
type CrossReference struct {
	FullMatch string // entire matched substring, e.g. "clause 1.2.3"
	Target    string // reference target, e.g. "1.2.3"
	Type      string // "clause", "section", "article", "schedule", "appendix", "annex"
}

var crossRefLabels = []string{
	"clause", "section", "article", "schedule", "appendix", "annex",
}

// CrossReferences scans text and returns all cross-references found.
func CrossReferences(text string) []CrossReference {
	var refs []CrossReference
	for i, re := range crossRefPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if len(m) < 2 {
				continue
			}
			refs = append(refs, CrossReference{
				FullMatch: m[0],
				Target:    m[1],
				Type:      crossRefLabels[i],
			})
		}
	}
	return refs
}

// HasCrossReferences reports whether text contains any cross-references.
func HasCrossReferences(text string) bool {
	for _, re := range crossRefPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// Package audit checks a document's clause types against the checklist
// expected for its contract category. Pure set arithmetic; no external
// calls.
package audit

import (
	"fmt"
	"sort"
)

// checklists maps contract categories to their required clause types.
// Static configuration: unknown categories fall back to "general".
var checklists = map[string][]string{
	"general": {
		"definitions", "scope", "payment", "termination",
		"confidentiality", "governing_law", "signatures",
	},
	"service_agreement": {
		"definitions", "scope", "payment", "performance_standards",
		"termination", "confidentiality", "liability", "governing_law",
	},
	"nda": {
		"definitions", "confidentiality", "exceptions", "term",
		"return_of_information", "remedies", "governing_law",
	},
}

// FallbackCategory is used when the requested category has no checklist.
const FallbackCategory = "general"

// Report is the outcome of a completeness audit.
type Report struct {
	Category        string   `json:"category"`
	Required        []string `json:"required_clauses"`
	Present         []string `json:"present_clauses"`
	Missing         []string `json:"missing_clauses"`
	Extra           []string `json:"extra_clauses"`
	Score           float64  `json:"completeness_score"`
	Recommendations []string `json:"recommendations"`
}

// Categories lists the known contract categories, sorted.
func Categories() []string {
	out := make([]string, 0, len(checklists))
	for c := range checklists {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Audit compares the clause types present in a document against the
// checklist for the category. Score is |required ∩ present| / |required|,
// always in [0,1]. Output slices are sorted for stable reporting.
func Audit(presentTypes []string, category string) Report {
	required, ok := checklists[category]
	if !ok {
		category = FallbackCategory
		required = checklists[FallbackCategory]
	}

	requiredSet := make(map[string]bool, len(required))
	for _, t := range required {
		requiredSet[t] = true
	}
	presentSet := make(map[string]bool, len(presentTypes))
	for _, t := range presentTypes {
		if t != "" {
			presentSet[t] = true
		}
	}

	var missing, extra []string
	covered := 0
	for t := range requiredSet {
		if presentSet[t] {
			covered++
		} else {
			missing = append(missing, t)
		}
	}
	for t := range presentSet {
		if !requiredSet[t] {
			extra = append(extra, t)
		}
	}

	present := make([]string, 0, len(presentSet))
	for t := range presentSet {
		present = append(present, t)
	}

	sort.Strings(missing)
	sort.Strings(extra)
	sort.Strings(present)

	recommendations := make([]string, len(missing))
	for i, t := range missing {
		recommendations[i] = fmt.Sprintf("Add %s clause", t)
	}

	req := append([]string(nil), required...)
	sort.Strings(req)

	return Report{
		Category:        category,
		Required:        req,
		Present:         present,
		Missing:         missing,
		Extra:           extra,
		Score:           float64(covered) / float64(len(required)),
		Recommendations: recommendations,
	}
}

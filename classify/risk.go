package classify

import "strings"

// Risk term tables. One authoritative table is shared by both scoring
// variants so the drafting pipeline and the document analyzer always
// agree on what counts as risky.
var (
	highRiskTerms = []string{
		"unlimited liability",
		"personal guarantee",
		"no limitation",
		"perpetual",
		"joint and several",
		"indemnify",
		"hold harmless",
		"liquidated damages",
		"irrevocable",
	}

	mediumRiskTerms = []string{
		"liable",
		"damages",
		"penalty",
		"breach",
	}

	protectiveTerms = []string{
		"limitation of liability",
		"caps",
		"reasonable efforts",
		"commercially reasonable",
		"force majeure",
		"cure period",
	}
)

// Risk level thresholds on the canonical score.
const (
	highRiskFloor   = 0.7
	mediumRiskFloor = 0.4
	baseRisk        = 0.3
)

// Level buckets a risk score.
type Level string

const (
	LevelLow    Level = "Low"
	LevelMedium Level = "Medium"
	LevelHigh   Level = "High"
)

// RiskProfile is the full per-clause risk breakdown, computed on demand
// and never stored.
type RiskProfile struct {
	HighHits       int     `json:"high_risk_indicators"`
	MediumHits     int     `json:"medium_risk_indicators"`
	ProtectiveHits int     `json:"protective_indicators"`
	Score          float64 `json:"risk_score"`
	Level          Level   `json:"risk_level"`
	FoundHigh      []string `json:"found_high_risk,omitempty"`
	FoundMedium    []string `json:"found_medium_risk,omitempty"`
	FoundProtective []string `json:"found_protective,omitempty"`
}

// Score is the canonical risk function: base 0.3, +0.3 per high-risk
// term, +0.1 per medium-risk term, -0.1 per protective term, clamped to
// [0,1]. The subtractive form is authoritative because it is strictly
// more informative than the additive-only variant.
func Score(span string) float64 {
	lower := strings.ToLower(span)
	score := baseRisk
	score += 0.3 * float64(countTerms(lower, highRiskTerms))
	score += 0.1 * float64(countTerms(lower, mediumRiskTerms))
	score -= 0.1 * float64(countTerms(lower, protectiveTerms))
	return clamp01(score)
}

// ScoreAdditive is the legacy additive-only risk function, kept as a
// supported fallback for callers without protective-term data. Same term
// table, no subtraction, clamped above only (it cannot go below base).
func ScoreAdditive(span string) float64 {
	lower := strings.ToLower(span)
	score := baseRisk
	score += 0.3 * float64(countTerms(lower, highRiskTerms))
	score += 0.1 * float64(countTerms(lower, mediumRiskTerms))
	if score > 1.0 {
		return 1.0
	}
	return score
}

// Assess computes the full risk profile for a span using the canonical
// score.
func Assess(span string) RiskProfile {
	lower := strings.ToLower(span)

	foundHigh := findTerms(lower, highRiskTerms)
	foundMedium := findTerms(lower, mediumRiskTerms)
	foundProtective := findTerms(lower, protectiveTerms)

	score := clamp01(baseRisk +
		0.3*float64(len(foundHigh)) +
		0.1*float64(len(foundMedium)) -
		0.1*float64(len(foundProtective)))

	return RiskProfile{
		HighHits:        len(foundHigh),
		MediumHits:      len(foundMedium),
		ProtectiveHits:  len(foundProtective),
		Score:           score,
		Level:           LevelFor(score),
		FoundHigh:       foundHigh,
		FoundMedium:     foundMedium,
		FoundProtective: foundProtective,
	}
}

// LevelFor buckets a score: High >= 0.7, Medium >= 0.4, otherwise Low.
func LevelFor(score float64) Level {
	switch {
	case score >= highRiskFloor:
		return LevelHigh
	case score >= mediumRiskFloor:
		return LevelMedium
	default:
		return LevelLow
	}
}

func countTerms(lower string, terms []string) int {
	n := 0
	for _, t := range terms {
		if strings.Contains(lower, t) {
			n++
		}
	}
	return n
}

func findTerms(lower string, terms []string) []string {
	var found []string
	for _, t := range terms {
		if strings.Contains(lower, t) {
			found = append(found, t)
		}
	}
	return found
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

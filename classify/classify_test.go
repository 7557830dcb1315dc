package classify

import (
	"math"
	"strings"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		span string
		want Type
	}{
		{
			name: "confidentiality",
			span: "Each party shall keep all Confidential Information strictly secret.",
			want: Confidentiality,
		},
		{
			name: "payment",
			span: "Payment shall be made within thirty (30) days of invoice.",
			want: Payment,
		},
		{
			name: "termination",
			span: "Either party may terminate this agreement with notice.",
			want: Termination,
		},
		{
			name: "indemnification",
			span: "The supplier shall indemnify the customer against third-party claims.",
			want: Indemnification,
		},
		{
			name: "intellectual property",
			span: "All copyright in the deliverables vests in the client.",
			want: IntellectualProperty,
		},
		{
			name: "governing law",
			span: "This agreement is subject to arbitration in Geneva.",
			want: GoverningLaw,
		},
		{
			name: "general fallback",
			span: "The parties shall cooperate in good faith.",
			want: General,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TypeOf(tt.span); got != tt.want {
				t.Errorf("TypeOf(%q) = %v, want %v", tt.span, got, tt.want)
			}
		})
	}
}

// Priority is a defined rule: a span containing both a payment indicator
// and a termination indicator is always classified payment, because
// payment appears earlier in the rule table.
func TestTypePriorityIsStable(t *testing.T) {
	span := "If any payment is late the client may terminate this agreement."
	for i := 0; i < 100; i++ {
		if got := TypeOf(span); got != Payment {
			t.Fatalf("TypeOf = %v on iteration %d, want payment every time", got, i)
		}
	}
}

func TestScoreBase(t *testing.T) {
	span := "Payment shall be made within thirty (30) days of receipt of invoice; late payments may incur interest."
	if got := Score(span); !almostEqual(got, 0.3) {
		t.Errorf("Score = %v, want base 0.3 (no risk terms present)", got)
	}
}

func TestScoreMediumTerms(t *testing.T) {
	span := "The vendor is responsible for direct damages and any applicable penalty."
	if got := Score(span); !almostEqual(got, 0.5) {
		t.Errorf("Score = %v, want 0.3 + 0.1*2 = 0.5", got)
	}
}

func TestScoreHighTerm(t *testing.T) {
	span := "The guarantor accepts unlimited liability for the obligations hereunder."
	// "unlimited liability" is a high-risk hit; "liable" is not a substring
	// of this span, so no medium hit.
	if got := Score(span); !almostEqual(got, 0.6) {
		t.Errorf("Score = %v, want 0.3 + 0.3 = 0.6", got)
	}
}

func TestScoreProtectiveSubtraction(t *testing.T) {
	span := "Subject to the limitation of liability in clause 9, the supplier shall use commercially reasonable efforts."
	// Protective hits: "limitation of liability", "commercially reasonable",
	// "reasonable efforts". No high or medium terms are present.
	got := Score(span)
	want := 0.3 - 0.3
	if !almostEqual(got, want) {
		t.Errorf("Score = %v, want %v", got, want)
	}

	// The additive variant ignores protective terms entirely.
	if add := ScoreAdditive(span); !almostEqual(add, 0.3) {
		t.Errorf("ScoreAdditive = %v, want 0.3", add)
	}
}

func TestScoreClamped(t *testing.T) {
	// Pile on every high-risk term: the score must stay within [0,1].
	hot := strings.Join(highRiskTerms, " and ")
	if got := Score(hot); got != 1.0 {
		t.Errorf("Score = %v, want clamp at 1.0", got)
	}
	if got := ScoreAdditive(hot); got != 1.0 {
		t.Errorf("ScoreAdditive = %v, want clamp at 1.0", got)
	}

	// Pile on protective terms with nothing risky: clamp at 0.
	safe := strings.Join(protectiveTerms, " and ")
	if got := Score(safe); got != 0.0 {
		t.Errorf("Score = %v, want clamp at 0.0", got)
	}
}

func TestScoreAlwaysInRange(t *testing.T) {
	spans := []string{
		"",
		"plain text",
		strings.Repeat("unlimited liability penalty damages breach ", 20),
		strings.Repeat("force majeure cure period caps ", 20),
	}
	for _, span := range spans {
		for _, score := range []float64{Score(span), ScoreAdditive(span)} {
			if score < 0 || score > 1 {
				t.Errorf("score %v out of [0,1] for %q", score, span)
			}
		}
	}
}

func TestAssess(t *testing.T) {
	span := "The licensee shall indemnify and hold harmless the licensor from all damages arising from any breach, subject to a cure period."

	p := Assess(span)

	if p.HighHits != 2 {
		t.Errorf("HighHits = %d, want 2 (indemnify, hold harmless): %v", p.HighHits, p.FoundHigh)
	}
	if p.MediumHits != 2 {
		t.Errorf("MediumHits = %d, want 2 (damages, breach): %v", p.MediumHits, p.FoundMedium)
	}
	if p.ProtectiveHits != 1 {
		t.Errorf("ProtectiveHits = %d, want 1 (cure period): %v", p.ProtectiveHits, p.FoundProtective)
	}
	want := 0.3 + 0.6 + 0.2 - 0.1
	if !almostEqual(p.Score, want) {
		t.Errorf("Score = %v, want %v", p.Score, want)
	}
	if p.Level != LevelHigh {
		t.Errorf("Level = %v, want High", p.Level)
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		score float64
		want  Level
	}{
		{0.0, LevelLow},
		{0.39, LevelLow},
		{0.4, LevelMedium},
		{0.69, LevelMedium},
		{0.7, LevelHigh},
		{1.0, LevelHigh},
	}
	for _, tt := range tests {
		if got := LevelFor(tt.score); got != tt.want {
			t.Errorf("LevelFor(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestDetectDocumentType(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"This Employment Agreement is entered into by...", "Employment Agreement"},
		{"MASTER SERVICE AGREEMENT between the parties", "Service Agreement"},
		{"This mutual non-disclosure agreement governs...", "Non-Disclosure Agreement"},
		{"Residential lease agreement for the premises at...", "Lease Agreement"},
		{"Asset purchase agreement dated as of...", "Purchase Agreement"},
		{"The partners enter this joint venture to...", "Partnership Agreement"},
		{"Miscellaneous memorandum of understanding", "General Legal Document"},
	}
	for _, tt := range tests {
		if got := DetectDocumentType(tt.text); got != tt.want {
			t.Errorf("DetectDocumentType(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

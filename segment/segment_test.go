package segment

import (
	"strings"
	"testing"
)

func TestSplitDropsShortSpans(t *testing.T) {
	s := New(0)
	text := "Clause A text here which is definitely more than fifty characters long in total.\n\nHi"

	spans := s.SplitAll(text)

	if len(spans) != 1 {
		t.Fatalf("SplitAll returned %d spans, want 1: %v", len(spans), spans)
	}
	if !strings.HasPrefix(spans[0], "Clause A") {
		t.Errorf("surviving span = %q, want the long clause", spans[0])
	}
}

func TestSplitEmptyInput(t *testing.T) {
	s := New(0)
	for _, input := range []string{"", "   ", "\n\n\n\n"} {
		if got := s.SplitAll(input); got != nil {
			t.Errorf("SplitAll(%q) = %v, want empty", input, got)
		}
	}
}

func TestSplitOnBlankLines(t *testing.T) {
	s := New(0)
	a := "1.1 Payment shall be made within thirty (30) days of receipt of a valid invoice."
	b := "2.1 Either party may terminate this agreement upon ninety (90) days written notice."
	spans := s.SplitAll(a + "\n\n" + b)

	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	if spans[0] != a || spans[1] != b {
		t.Errorf("spans = %v, want original order preserved", spans)
	}
}

func TestSplitIsRestartable(t *testing.T) {
	s := New(0)
	text := "This first clause body easily clears the fifty character minimum threshold.\n\n" +
		"This second clause body also easily clears the fifty character minimum."

	seq := s.Split(text)

	// Consume once, stopping early.
	for range seq {
		break
	}

	// A second full pass over the same sequence must see everything.
	n := 0
	for range seq {
		n++
	}
	if n != 2 {
		t.Errorf("second iteration saw %d spans, want 2", n)
	}
}

func TestSplitCustomMinimum(t *testing.T) {
	s := New(10)
	spans := s.SplitAll("short one\n\nlong enough span")
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1 (9-char span dropped)", len(spans))
	}
}

func TestClauseNumber(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"1.2.3 The contractor shall deliver...", "1.2.3", true},
		{"  12.1 Indented clause", "12.1", true},
		{"Preamble without numbering", "", false},
		{"1 Single level is not a hierarchical clause", "", false},
	}
	for _, tt := range tests {
		got, ok := ClauseNumber(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ClauseNumber(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDefinedTerms(t *testing.T) {
	text := `"Confidential Information" means any non-public information disclosed by either party.
"Effective Date" shall mean the date first written above.
"Confidential Information" means a duplicate definition.`

	terms := DefinedTerms(text)
	if len(terms) != 2 {
		t.Fatalf("got %d terms, want 2 (deduplicated): %v", len(terms), terms)
	}
	if terms[0] != "Confidential Information" || terms[1] != "Effective Date" {
		t.Errorf("terms = %v, want order of appearance", terms)
	}
}

func TestCrossReferences(t *testing.T) {
	text := "Subject to clause 4.2 and Section 7, see also Schedule A and Article IV."

	refs := CrossReferences(text)
	byType := map[string]string{}
	for _, r := range refs {
		byType[r.Type] = r.Target
	}

	want := map[string]string{
		"clause":   "4.2",
		"section":  "7",
		"schedule": "A",
		"article":  "IV",
	}
	for typ, target := range want {
		if byType[typ] != target {
			t.Errorf("missing %s reference to %q, got %v", typ, target, refs)
		}
	}

	if HasCrossReferences("No references in this span at all.") {
		t.Error("HasCrossReferences reported a false positive")
	}
}

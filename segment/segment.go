// Package segment splits raw legal-document text into candidate clause
// spans. Splitting is purely structural: paragraphs separated by blank
// lines, with short spans discarded as headers or noise. No semantic
// boundary detection happens here.
package segment

import (
	"iter"
	"strings"
)

// DefaultMinChars is the minimum trimmed length for a span to be kept.
// Anything shorter is treated as a heading, page number, or signature
// line rather than a negotiable clause.
const DefaultMinChars = 50

// Segmenter produces candidate clause spans from document text.
type Segmenter struct {
	minChars int
}

// New creates a Segmenter. minChars <= 0 selects DefaultMinChars.
func New(minChars int) *Segmenter {
	if minChars <= 0 {
		minChars = DefaultMinChars
	}
	return &Segmenter{minChars: minChars}
}

// Split returns a lazy, restartable sequence of non-empty clause spans.
// Spans are trimmed; spans shorter than the minimum are dropped. Empty
// input yields an empty sequence.
func (s *Segmenter) Split(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, part := range strings.Split(text, "\n\n") {
			span := strings.TrimSpace(part)
			if len(span) < s.minChars {
				continue
			}
			if !yield(span) {
				return
			}
		}
	}
}

// SplitAll collects Split into a slice.
func (s *Segmenter) SplitAll(text string) []string {
	var spans []string
	for span := range s.Split(text) {
		spans = append(spans, span)
	}
	return spans
}

// Count returns the number of spans Split would yield, without
// materialising them.
func (s *Segmenter) Count(text string) int {
	n := 0
	for range s.Split(text) {
		n++
	}
	return n
}

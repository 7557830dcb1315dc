// Package similarity vectorizes corpora of legal text into sparse TF-IDF
// term vectors and derives pairwise similarity, topic clusters, and
// representative terms from them. Everything is deterministic: identical
// input always produces identical output.
package similarity

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// DefaultMaxVocabulary caps the vocabulary size.
const DefaultMaxVocabulary = 1000

// Vectorizer builds TF-IDF vectors over unigrams and bigrams with
// English stop-words removed.
type Vectorizer struct {
	maxVocab int
}

// NewVectorizer creates a Vectorizer. maxVocab <= 0 selects the default.
func NewVectorizer(maxVocab int) *Vectorizer {
	if maxVocab <= 0 {
		maxVocab = DefaultMaxVocabulary
	}
	return &Vectorizer{maxVocab: maxVocab}
}

// Model holds a fitted vocabulary and the per-document vectors.
type Model struct {
	Vocabulary []string    // index -> term
	Vectors    [][]float64 // one L2-normalized TF-IDF vector per input document
}

// tokenize lowercases text and splits it into word tokens of length >= 2.
func tokenize(text string) []string {
	var tokens []string
	var b strings.Builder
	flush := func() {
		if b.Len() >= 2 {
			tokens = append(tokens, b.String())
		}
		b.Reset()
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// terms produces the unigram+bigram term stream for a document, with
// stop-words removed before bigram formation.
func terms(text string) []string {
	tokens := tokenize(text)
	kept := tokens[:0]
	for _, t := range tokens {
		if !englishStopWords[t] {
			kept = append(kept, t)
		}
	}

	out := make([]string, 0, 2*len(kept))
	for i, t := range kept {
		out = append(out, t)
		if i+1 < len(kept) {
			out = append(out, t+" "+kept[i+1])
		}
	}
	return out
}

// Fit builds the vocabulary over the corpus and computes one
// L2-normalized TF-IDF vector per document. Vocabulary selection keeps
// the maxVocab most frequent terms; ties break alphabetically so the
// model is reproducible.
func (v *Vectorizer) Fit(docs []string) *Model {
	counts := make(map[string]int)      // total occurrences across corpus
	docFreq := make(map[string]int)     // number of documents containing term
	docTerms := make([][]string, len(docs))

	for i, doc := range docs {
		ts := terms(doc)
		docTerms[i] = ts
		seen := make(map[string]bool, len(ts))
		for _, t := range ts {
			counts[t]++
			if !seen[t] {
				seen[t] = true
				docFreq[t]++
			}
		}
	}

	vocab := make([]string, 0, len(counts))
	for t := range counts {
		vocab = append(vocab, t)
	}
	sort.Slice(vocab, func(a, b int) bool {
		if counts[vocab[a]] != counts[vocab[b]] {
			return counts[vocab[a]] > counts[vocab[b]]
		}
		return vocab[a] < vocab[b]
	})
	if len(vocab) > v.maxVocab {
		vocab = vocab[:v.maxVocab]
	}
	sort.Strings(vocab)

	index := make(map[string]int, len(vocab))
	for i, t := range vocab {
		index[t] = i
	}

	// Smoothed IDF: ln((1+n)/(1+df)) + 1.
	n := float64(len(docs))
	idf := make([]float64, len(vocab))
	for i, t := range vocab {
		idf[i] = math.Log((1+n)/(1+float64(docFreq[t]))) + 1
	}

	vectors := make([][]float64, len(docs))
	for i, ts := range docTerms {
		vec := make([]float64, len(vocab))
		for _, t := range ts {
			if j, ok := index[t]; ok {
				vec[j] += idf[j]
			}
		}
		normalize(vec)
		vectors[i] = vec
	}

	return &Model{Vocabulary: vocab, Vectors: vectors}
}

// Matrix is a square, symmetric similarity matrix with unit diagonal.
type Matrix [][]float64

// Compare vectorizes the documents and returns their pairwise cosine
// similarity. A single document yields [[1.0]]. When the corpus has
// fewer than two surviving terms, off-diagonal entries are zero; that is
// a degenerate result, not an error.
func (v *Vectorizer) Compare(docs []string) Matrix {
	if len(docs) == 0 {
		return Matrix{}
	}

	model := v.Fit(docs)

	m := make(Matrix, len(docs))
	for i := range m {
		m[i] = make([]float64, len(docs))
		m[i][i] = 1.0
	}
	for i := 0; i < len(docs); i++ {
		for j := i + 1; j < len(docs); j++ {
			// Vectors are L2-normalized, so the dot product is the cosine.
			sim := dot(model.Vectors[i], model.Vectors[j])
			m[i][j] = sim
			m[j][i] = sim
		}
	}
	return m
}

// Pair is one document pair with its similarity.
type Pair struct {
	I          int     `json:"doc1_index"`
	J          int     `json:"doc2_index"`
	Similarity float64 `json:"similarity"`
}

// TopPairs returns the n most similar distinct pairs, descending.
func (m Matrix) TopPairs(n int) []Pair {
	var pairs []Pair
	for i := 0; i < len(m); i++ {
		for j := i + 1; j < len(m); j++ {
			pairs = append(pairs, Pair{I: i, J: j, Similarity: m[i][j]})
		}
	}
	sort.SliceStable(pairs, func(a, b int) bool {
		return pairs[a].Similarity > pairs[b].Similarity
	})
	if len(pairs) > n {
		pairs = pairs[:n]
	}
	return pairs
}

// Average returns the mean of all matrix entries, diagonal included.
func (m Matrix) Average() float64 {
	if len(m) == 0 {
		return 0
	}
	var sum float64
	for _, row := range m {
		for _, v := range row {
			sum += v
		}
	}
	return sum / float64(len(m)*len(m))
}

// KeyTerms extracts the top-n terms of a single text by TF-IDF weight.
// Zero-weight terms are excluded, so fewer than n terms may be returned.
func (v *Vectorizer) KeyTerms(text string, n int) []string {
	model := v.Fit([]string{text})
	if len(model.Vectors) == 0 {
		return nil
	}
	vec := model.Vectors[0]

	type weighted struct {
		term   string
		weight float64
	}
	ws := make([]weighted, 0, len(vec))
	for i, w := range vec {
		if w > 0 {
			ws = append(ws, weighted{model.Vocabulary[i], w})
		}
	}
	sort.SliceStable(ws, func(a, b int) bool {
		if ws[a].weight != ws[b].weight {
			return ws[a].weight > ws[b].weight
		}
		return ws[a].term < ws[b].term
	})
	if len(ws) > n {
		ws = ws[:n]
	}
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.term
	}
	return out
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func normalize(vec []float64) {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= norm
	}
}

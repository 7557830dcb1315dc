package similarity

import (
	"hash/fnv"
	"math"
)

// DefaultHashDim is the default dimension for hashed term vectors.
const DefaultHashDim = 256

// HashVector folds a text's unigram+bigram term frequencies into a
// fixed-dimension vector via feature hashing, then L2-normalizes it.
// Unlike the fitted TF-IDF vectors, hashed vectors are comparable across
// corpora, which makes them suitable for persistent KNN indexes.
func HashVector(text string, dim int) []float32 {
	if dim <= 0 {
		dim = DefaultHashDim
	}

	vec := make([]float32, dim)
	for _, t := range terms(text) {
		h := fnv.New32a()
		h.Write([]byte(t))
		vec[h.Sum32()%uint32(dim)]++
	}

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

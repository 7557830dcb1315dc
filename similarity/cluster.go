package similarity

import (
	"math"
	"math/rand"
	"sort"
)

// clusterSeed fixes the k-means random source so clustering is
// reproducible for identical input.
const clusterSeed = 42

const maxKMeansIterations = 100

// Cluster is one topic cluster over the input clauses.
type Cluster struct {
	ID       int      `json:"cluster_id"`
	Members  []Member `json:"members"`
	TopTerms []string `json:"top_terms"`
}

// Member is one clause assigned to a cluster, with its cosine distance
// to the cluster centroid (0 = identical direction).
type Member struct {
	Index            int     `json:"index"`
	CentroidDistance float64 `json:"centroid_distance"`
}

// ClusterClauses partitions clauses into k topic clusters via k-means on
// TF-IDF vectors. A k larger than the clause count is silently clamped;
// that is an adjustment, not an error. topTerms bounds the number of
// representative terms reported per cluster.
func (v *Vectorizer) ClusterClauses(clauses []string, k, topTerms int) []Cluster {
	if len(clauses) == 0 {
		return nil
	}
	if k > len(clauses) {
		k = len(clauses)
	}
	if k < 1 {
		k = 1
	}

	model := v.Fit(clauses)
	centroids := kMeans(model.Vectors, k, rand.New(rand.NewSource(clusterSeed)))

	clusters := make([]Cluster, k)
	for i := range clusters {
		clusters[i].ID = i
	}
	for i, vec := range model.Vectors {
		c := nearestCentroid(vec, centroids)
		clusters[c].Members = append(clusters[c].Members, Member{
			Index:            i,
			CentroidDistance: cosineDistance(vec, centroids[c]),
		})
	}
	for i := range clusters {
		clusters[i].TopTerms = topCentroidTerms(centroids[i], model.Vocabulary, topTerms)
	}
	return clusters
}

// kMeans runs Lloyd's algorithm with centroids initialised from k
// distinct input points chosen by the seeded source.
func kMeans(vectors [][]float64, k int, rng *rand.Rand) [][]float64 {
	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}

	centroids := make([][]float64, k)
	for i, p := range rng.Perm(len(vectors))[:k] {
		centroids[i] = append([]float64(nil), vectors[p]...)
	}

	assignments := make([]int, len(vectors))
	for iter := 0; iter < maxKMeansIterations; iter++ {
		changed := false
		for i, vec := range vectors {
			c := nearestCentroid(vec, centroids)
			if c != assignments[i] {
				assignments[i] = c
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for i := range sums {
			sums[i] = make([]float64, dim)
		}
		for i, vec := range vectors {
			c := assignments[i]
			counts[c]++
			for j, val := range vec {
				sums[c][j] += val
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				continue // keep previous centroid for empty clusters
			}
			for j := range sums[c] {
				sums[c][j] /= float64(counts[c])
			}
			centroids[c] = sums[c]
		}
	}
	return centroids
}

func nearestCentroid(vec []float64, centroids [][]float64) int {
	best := 0
	bestDist := math.Inf(1)
	for c, centroid := range centroids {
		d := squaredDistance(vec, centroid)
		if d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// cosineDistance is 1 - cosine similarity; zero vectors are maximally
// distant.
func cosineDistance(a, b []float64) float64 {
	na, nb := norm(a), norm(b)
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot(a, b)/(na*nb)
}

func norm(vec []float64) float64 {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// topCentroidTerms returns the n vocabulary terms with the highest
// centroid weight, descending, excluding zero weights.
func topCentroidTerms(centroid []float64, vocab []string, n int) []string {
	type weighted struct {
		term   string
		weight float64
	}
	ws := make([]weighted, 0, len(centroid))
	for i, w := range centroid {
		if w > 0 {
			ws = append(ws, weighted{vocab[i], w})
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

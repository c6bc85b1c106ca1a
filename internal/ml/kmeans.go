package ml

import (
	"math"
	"math/rand"
)

// KMeans is a fitted k-means clustering over scaled feature rows. Spread is
// the mean distance from a training point to its assigned centroid; the
// anomaly detector uses it to judge when a point is "far" from every cluster.
type KMeans struct {
	Centroids [][]float64 `json:"centroids"`
	Spread    float64     `json:"spread"`
	K         int         `json:"k"`
	Seed      int64       `json:"seed"`
}

// NewKMeans creates an unfitted clustering with the given cluster count.
func NewKMeans(k int) *KMeans {
	if k <= 0 {
		k = 5
	}
	return &KMeans{K: k, Seed: 42}
}

const kmeansMaxIterations = 100

// Fit runs Lloyd's algorithm with k-means++ style seeding. If there are
// fewer rows than clusters, the cluster count is reduced to the row count.
func (km *KMeans) Fit(rows [][]float64) {
	if len(rows) == 0 {
		return
	}
	k := km.K
	if k > len(rows) {
		k = len(rows)
	}

	rng := rand.New(rand.NewSource(km.Seed))
	km.Centroids = seedCentroids(rows, k, rng)

	assignments := make([]int, len(rows))
	for iter := 0; iter < kmeansMaxIterations; iter++ {
		changed := false
		for i, row := range rows {
			best := km.nearest(row)
			if best != assignments[i] {
				assignments[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		// Recompute centroids; empty clusters get reseeded to a random row.
		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, len(rows[0]))
		}
		for i, row := range rows {
			c := assignments[i]
			counts[c]++
			for j, v := range row {
				sums[c][j] += v
			}
		}
		for c := range km.Centroids {
			if counts[c] == 0 {
				km.Centroids[c] = append([]float64(nil), rows[rng.Intn(len(rows))]...)
				continue
			}
			for j := range sums[c] {
				km.Centroids[c][j] = sums[c][j] / float64(counts[c])
			}
		}
	}

	var total float64
	for i, row := range rows {
		total += euclidean(row, km.Centroids[assignments[i]])
	}
	km.Spread = total / float64(len(rows))
}

// NearestDistance returns the distance from x to the closest centroid.
func (km *KMeans) NearestDistance(x []float64) float64 {
	best := math.Inf(1)
	for _, c := range km.Centroids {
		if d := euclidean(x, c); d < best {
			best = d
		}
	}
	return best
}

func (km *KMeans) nearest(x []float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range km.Centroids {
		if d := euclidean(x, centroid); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// seedCentroids picks initial centroids favoring points far from those
// already chosen (k-means++).
func seedCentroids(rows [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, append([]float64(nil), rows[rng.Intn(len(rows))]...))

	for len(centroids) < k {
		dists := make([]float64, len(rows))
		var total float64
		for i, row := range rows {
			best := math.Inf(1)
			for _, c := range centroids {
				if d := euclidean(row, c); d < best {
					best = d
				}
			}
			dists[i] = best * best
			total += dists[i]
		}

		if total == 0 {
			centroids = append(centroids, append([]float64(nil), rows[rng.Intn(len(rows))]...))
			continue
		}

		target := rng.Float64() * total
		var cum float64
		pick := len(rows) - 1
		for i, d := range dists {
			cum += d
			if cum >= target {
				pick = i
				break
			}
		}
		centroids = append(centroids, append([]float64(nil), rows[pick]...))
	}
	return centroids
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		if i >= len(b) {
			break
		}
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

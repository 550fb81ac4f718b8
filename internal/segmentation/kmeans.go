package segmentation

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// KMeans partitions points with Lloyd's algorithm from k-means++ seeds.
// The best of Restarts runs by inertia is kept. A fixed Seed makes the
// result reproducible.
type KMeans struct {
	K        int
	Seed     int64
	Restarts int
	MaxIter  int
}

// Result is the outcome of a k-means fit.
type Result struct {
	Assignments []int
	Centroids   [][]float64
	Inertia     float64
	Iterations  int
}

// NewKMeans returns a configuration with 10 restarts and 300 iterations.
func NewKMeans(k int, seed int64) *KMeans {
	return &KMeans{K: k, Seed: seed, Restarts: 10, MaxIter: 300}
}

// Fit clusters points. It requires len(points) >= K >= 1; every cluster of
// the result has at least one member.
func (km *KMeans) Fit(points [][]float64) Result {
	rng := rand.New(rand.NewSource(km.Seed))
	restarts := max(km.Restarts, 1)

	var best Result
	for r := 0; r < restarts; r++ {
		res := km.run(points, rng)
		if r == 0 || res.Inertia < best.Inertia {
			best = res
		}
	}
	return best
}

func (km *KMeans) run(points [][]float64, rng *rand.Rand) Result {
	n, k := len(points), km.K
	centroids := seedCentroids(points, k, rng)
	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}

	iter := 0
	for ; iter < km.MaxIter; iter++ {
		changed := false
		for i, p := range points {
			c := nearest(p, centroids)
			if c != assign[i] {
				assign[i] = c
				changed = true
			}
		}
		if fillEmpty(points, centroids, assign, k) {
			changed = true
		}
		centroids = means(points, assign, k)
		if !changed {
			break
		}
	}

	var inertia float64
	for i, p := range points {
		d := floats.Distance(p, centroids[assign[i]], 2)
		inertia += d * d
	}
	return Result{Assignments: assign, Centroids: centroids, Inertia: inertia, Iterations: iter + 1}
}

// seedCentroids picks k initial centroids with k-means++ weighting.
func seedCentroids(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(points[rng.Intn(n)]))

	d2 := make([]float64, n)
	for len(centroids) < k {
		var total float64
		for i, p := range points {
			d := floats.Distance(p, centroids[nearest(p, centroids)], 2)
			d2[i] = d * d
			total += d2[i]
		}

		pick := rng.Intn(n)
		if total > 0 {
			target := rng.Float64() * total
			var cum float64
			for i, w := range d2 {
				cum += w
				if cum >= target && w > 0 {
					pick = i
					break
				}
			}
		}
		centroids = append(centroids, clone(points[pick]))
	}
	return centroids
}

func nearest(p []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := floats.Distance(p, centroid, 2); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// fillEmpty moves, for each empty cluster, the point farthest from its
// centroid out of a cluster that has more than one member. It reports
// whether any point moved.
func fillEmpty(points, centroids [][]float64, assign []int, k int) bool {
	counts := make([]int, k)
	for _, c := range assign {
		counts[c]++
	}

	moved := false
	for c := 0; c < k; c++ {
		if counts[c] > 0 {
			continue
		}
		far, farDist := -1, -1.0
		for i, p := range points {
			if counts[assign[i]] < 2 {
				continue
			}
			if d := floats.Distance(p, centroids[assign[i]], 2); d > farDist {
				far, farDist = i, d
			}
		}
		if far < 0 {
			break
		}
		counts[assign[far]]--
		assign[far] = c
		counts[c]++
		centroids[c] = clone(points[far])
		moved = true
	}
	return moved
}

func means(points [][]float64, assign []int, k int) [][]float64 {
	dims := len(points[0])
	sums := make([][]float64, k)
	counts := make([]float64, k)
	for c := range sums {
		sums[c] = make([]float64, dims)
	}
	for i, p := range points {
		floats.Add(sums[assign[i]], p)
		counts[assign[i]]++
	}
	for c := range sums {
		if counts[c] > 0 {
			floats.Scale(1/counts[c], sums[c])
		}
	}
	return sums
}

func clone(p []float64) []float64 {
	out := make([]float64, len(p))
	copy(out, p)
	return out
}

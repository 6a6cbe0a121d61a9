package cluster

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	DefaultSeed    int64 = 42
	DefaultMaxIter       = 300
	DefaultTol           = 1e-4
)

// Options configures a k-means run. Zero fields take the defaults.
type Options struct {
	K       int
	Seed    int64
	MaxIter int
	Tol     float64
}

func (o Options) withDefaults() Options {
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.MaxIter <= 0 {
		o.MaxIter = DefaultMaxIter
	}
	if o.Tol <= 0 {
		o.Tol = DefaultTol
	}
	return o
}

// Result is the outcome of one k-means fit.
type Result struct {
	Labels     []int
	Centroids  [][]float64
	Inertia    float64
	Iterations int
	Converged  bool
}

var errNonFinite = errors.New("features contain NaN or Inf")

// KMeans partitions X into opt.K clusters with k-means++ seeding followed by
// Lloyd iterations. The run is deterministic for a fixed seed.
func KMeans(X [][]float64, opt Options) (*Result, error) {
	opt = opt.withDefaults()
	n := len(X)
	if opt.K < 2 {
		return nil, fmt.Errorf("k must be at least 2, got %d", opt.K)
	}
	if n < opt.K {
		return nil, &InsufficientDataError{Rows: n, K: opt.K}
	}
	for _, row := range X {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &FitError{Err: errNonFinite}
			}
		}
	}
	if d := distinctRows(X, opt.K); d < opt.K {
		return nil, &FitError{Err: fmt.Errorf("only %d distinct points for %d clusters", d, opt.K)}
	}

	rng := rand.New(rand.NewSource(opt.Seed))
	centers := seedPlusPlus(X, opt.K, rng)
	tol := opt.Tol * meanVariance(X)

	labels := make([]int, n)
	dist := make([]float64, n)
	res := &Result{}
	for it := 1; it <= opt.MaxIter; it++ {
		res.Iterations = it
		assignLabels(X, centers, labels, dist)
		next := recompute(X, labels, dist, opt.K)
		shift := 0.0
		for c := range centers {
			shift += sqDist(centers[c], next[c])
		}
		centers = next
		if shift <= tol {
			res.Converged = true
			break
		}
	}
	res.Inertia = assignLabels(X, centers, labels, dist)
	res.Labels = labels
	res.Centroids = centers
	return res, nil
}

// seedPlusPlus picks k initial centres with greedy k-means++: each step draws
// several candidates proportional to squared distance and keeps the one that
// lowers the total potential most.
func seedPlusPlus(X [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(X)
	trials := 2 + int(math.Log(float64(k)))
	centers := make([][]float64, 0, k)
	first := X[rng.Intn(n)]
	centers = append(centers, append([]float64(nil), first...))

	closest := make([]float64, n)
	for i, x := range X {
		closest[i] = sqDist(x, first)
	}
	potential := floats.Sum(closest)

	cand := make([]float64, n)
	for len(centers) < k {
		bestIdx, bestPot := -1, math.Inf(1)
		var bestClosest []float64
		for t := 0; t < trials; t++ {
			idx := sampleWeighted(closest, potential, rng)
			pot := 0.0
			for i, x := range X {
				cand[i] = math.Min(closest[i], sqDist(x, X[idx]))
				pot += cand[i]
			}
			if pot < bestPot {
				bestIdx, bestPot = idx, pot
				bestClosest = append(bestClosest[:0], cand...)
			}
		}
		centers = append(centers, append([]float64(nil), X[bestIdx]...))
		copy(closest, bestClosest)
		potential = bestPot
	}
	return centers
}

func sampleWeighted(w []float64, total float64, rng *rand.Rand) int {
	r := rng.Float64() * total
	acc := 0.0
	last := 0
	for i, v := range w {
		if v <= 0 {
			continue
		}
		acc += v
		last = i
		if r < acc {
			return i
		}
	}
	return last
}

// assignLabels moves each point to its nearest centre and returns the inertia.
func assignLabels(X, centers [][]float64, labels []int, dist []float64) float64 {
	inertia := 0.0
	for i, x := range X {
		best, bestD := 0, math.Inf(1)
		for c, ctr := range centers {
			if d := sqDist(x, ctr); d < bestD {
				best, bestD = c, d
			}
		}
		labels[i] = best
		dist[i] = bestD
		inertia += bestD
	}
	return inertia
}

// recompute returns cluster means. An empty cluster takes the point farthest
// from its current centre.
func recompute(X [][]float64, labels []int, dist []float64, k int) [][]float64 {
	dim := len(X[0])
	sums := make([][]float64, k)
	counts := make([]int, k)
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	for i, x := range X {
		floats.Add(sums[labels[i]], x)
		counts[labels[i]]++
	}
	for c := range sums {
		if counts[c] > 0 {
			continue
		}
		far := -1
		for i := range X {
			if counts[labels[i]] > 1 && (far < 0 || dist[i] > dist[far]) {
				far = i
			}
		}
		if far < 0 {
			continue
		}
		from := labels[far]
		floats.Sub(sums[from], X[far])
		counts[from]--
		copy(sums[c], X[far])
		counts[c] = 1
		labels[far] = c
		dist[far] = 0
	}
	for c := range sums {
		if counts[c] > 0 {
			floats.Scale(1/float64(counts[c]), sums[c])
		}
	}
	return sums
}

func meanVariance(X [][]float64) float64 {
	dim := len(X[0])
	col := make([]float64, len(X))
	total := 0.0
	for j := 0; j < dim; j++ {
		for i, row := range X {
			col[i] = row[j]
		}
		_, std := stat.PopMeanStdDev(col, nil)
		total += std * std
	}
	return total / float64(dim)
}

func distinctRows(X [][]float64, limit int) int {
	seen := map[string]struct{}{}
	for _, row := range X {
		seen[fmt.Sprint(row)] = struct{}{}
		if len(seen) >= limit {
			break
		}
	}
	return len(seen)
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

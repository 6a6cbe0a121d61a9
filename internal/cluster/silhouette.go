package cluster

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Silhouette returns the mean silhouette coefficient of labels over X.
// It needs at least two distinct labels and at least two rows in every
// represented label; otherwise it returns *UndefinedScoreError.
func Silhouette(X [][]float64, labels []int) (float64, error) {
	if len(X) != len(labels) {
		return 0, fmt.Errorf("silhouette: %d rows but %d labels", len(X), len(labels))
	}
	sizes := map[int]int{}
	for _, l := range labels {
		sizes[l]++
	}
	if len(sizes) < 2 {
		return 0, &UndefinedScoreError{Reason: fmt.Sprintf("%d distinct label(s), need at least 2", len(sizes))}
	}
	for l, n := range sizes {
		if n < 2 {
			return 0, &UndefinedScoreError{Reason: fmt.Sprintf("cluster %d has %d row(s), need at least 2", l, n)}
		}
	}

	total := 0.0
	sums := map[int]float64{}
	for i, x := range X {
		for l := range sums {
			delete(sums, l)
		}
		for j, y := range X {
			if i == j {
				continue
			}
			sums[labels[j]] += floats.Distance(x, y, 2)
		}
		own := labels[i]
		a := sums[own] / float64(sizes[own]-1)
		b := math.Inf(1)
		for l, s := range sums {
			if l == own {
				continue
			}
			b = math.Min(b, s/float64(sizes[l]))
		}
		if m := math.Max(a, b); m > 0 {
			total += (b - a) / m
		}
	}
	return total / float64(len(X)), nil
}

// Round3 rounds a score to three decimals for display.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

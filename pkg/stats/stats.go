// Package stats provides the small numeric reductions used throughout the
// analysis pipeline: mean/median (via gonum's stat package, matching the
// retrieval pack's use of gonum for exactly this kind of numeric plumbing)
// and Otsu thresholding (hand-rolled, grounded on
// `original_source/src/bkAlgorithm/otsu.h`).
package stats

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// Median returns the median of values: for an odd count the middle value,
// via gonum's empirical quantile function at p=0.5; for an even count the
// mean of the two middle values. values is not mutated; a sorted copy is
// taken internally, as stat.Quantile requires sorted input.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	if n := len(sorted); n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

// MinMax returns the minimum and maximum of values.
func MinMax(values []float64) (min, max float64) {
	if len(values) == 0 {
		return 0, 0
	}
	min, max = values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// otsuBuckets is the fixed histogram resolution used by the source Otsu
// implementation.
const otsuBuckets = 256

// Otsu computes a binary threshold over values by maximizing the
// between-class variance of a 256-bucket histogram spanning [min, max],
// per spec.md §4.5. Returns 0 for an empty input and the common value for a
// constant input (no threshold is meaningful).
func Otsu(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	min, max := MinMax(values)
	if max == min {
		return min
	}

	hist := make([]float64, otsuBuckets)
	span := max - min
	for _, v := range values {
		b := int((v - min) / span * otsuBuckets)
		if b >= otsuBuckets {
			b = otsuBuckets - 1
		}
		if b < 0 {
			b = 0
		}
		hist[b]++
	}

	total := float64(len(values))
	sumAll := 0.0
	for i, h := range hist {
		sumAll += float64(i) * h
	}

	var (
		wB, sumB  float64
		bestVar   float64
		bestBucket int
	)
	for t := 0; t < otsuBuckets; t++ {
		wB += hist[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * hist[t]

		q1 := wB / total
		q2 := wF / total
		mu1 := sumB / wB
		mu2 := (sumAll - sumB) / wF

		between := q1 * q2 * (mu1 - mu2) * (mu1 - mu2)
		if between > bestVar {
			bestVar = between
			bestBucket = t
		}
	}

	return min + (float64(bestBucket)/float64(otsuBuckets))*span
}

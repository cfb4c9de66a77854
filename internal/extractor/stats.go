package extractor

import (
	"math"
	"sort"
)

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// populationStd is the population (not sample) standard deviation.
func populationStd(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	sumSq := 0.0
	for _, x := range xs {
		d := x - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)))
}

// hasActiveRun reports whether the timestamps, once sorted, contain a
// maximal run of consecutive gaps all below gapMs with more than one event.
func hasActiveRun(timestamps []int64, gapMs int64) bool {
	if len(timestamps) < 2 {
		return false
	}
	sorted := make([]int64, len(timestamps))
	copy(sorted, timestamps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	// A run with more than one event exists iff some adjacent gap is small.
	for i := 1; i < len(sorted); i++ {
		if sorted[i]-sorted[i-1] < gapMs {
			return true
		}
	}
	return false
}

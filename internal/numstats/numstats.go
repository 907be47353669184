// Package numstats holds the numeric helpers shared by the full-build and
// filtered-build paths.
package numstats

import (
	"math"
	"sort"

	"property-analytics/internal/domain"
)

// Mean calculates the arithmetic mean, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Median returns the 50th percentile of values. The input is not mutated.
func Median(values []float64) float64 {
	return PercentileOf(values, 0.50)
}

// PercentileOf copies and sorts values, then interpolates the percentile.
func PercentileOf(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return Percentile(sorted, p)
}

// Percentile uses linear interpolation over a pre-sorted ASC slice.
// p is the percentile as a fraction (0.50 = median).
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}
	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CAGR computes the compound annual growth rate between a start and end
// average over yearSpan years, as a percentage. Returns 0 when the inputs
// cannot produce a meaningful rate.
func CAGR(startAvg, endAvg float64, yearSpan int) float64 {
	if startAvg <= 0 || endAvg <= 0 || yearSpan <= 0 {
		return 0
	}
	return Round2((math.Pow(endAvg/startAvg, 1/float64(yearSpan)) - 1) * 100)
}

// Histogram buckets values into fixed-width bars. The range is derived from
// the observed min/max, rounded outward to bucket boundaries.
func Histogram(values []float64, width float64) []domain.HistBucket {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	lo := math.Floor(min/width) * width
	hi := math.Ceil(max/width) * width
	if hi == lo {
		hi = lo + width
	}

	n := int((hi - lo) / width)
	buckets := make([]domain.HistBucket, n)
	for i := range buckets {
		buckets[i] = domain.HistBucket{Lo: lo + float64(i)*width, Hi: lo + float64(i+1)*width}
	}
	for _, v := range values {
		i := int((v - lo) / width)
		if i >= n {
			i = n - 1 // max lands on the top boundary
		}
		buckets[i].Count++
	}
	return buckets
}

package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation (N-1 denominator)
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// MeanStdDev returns the mean and sample standard deviation in one pass
func MeanStdDev(data []float64) (float64, float64) {
	if len(data) < 2 {
		return Mean(data), 0
	}
	return stat.MeanStdDev(data, nil)
}

// CalculateReturns converts prices to percentage returns
// Returns[i] = Price[i+1] / Price[i] - 1
//
// A zero or non-finite previous price yields NaN so that callers can drop
// the row instead of silently treating it as a flat day.
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev := prices[i-1]
		if prev == 0 || math.IsNaN(prev) || math.IsInf(prev, 0) {
			returns[i-1] = math.NaN()
			continue
		}
		returns[i-1] = prices[i]/prev - 1
	}

	return returns
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Sorted returns an ascending copy of data.
func Sorted(data []float64) []float64 {
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	return sorted
}

// Percentile returns the q-th percentile (0 <= q <= 100) of ascending data
// using linear interpolation between the closest ranks:
//
//	h = (n-1) * q/100
//	P = x[floor(h)] + (h - floor(h)) * (x[floor(h)+1] - x[floor(h)])
//
// This is the textbook "linear" definition used by most numerical packages.
// sorted must be non-empty and in ascending order.
func Percentile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}

	h := float64(n-1) * q / 100
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	if lo < 0 {
		return sorted[0]
	}

	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// TailMean averages every value at or below cutoff and reports how many
// values contributed. sorted must be in ascending order.
func TailMean(sorted []float64, cutoff float64) (float64, int) {
	sum := 0.0
	count := 0
	for _, v := range sorted {
		if v > cutoff {
			break
		}
		sum += v
		count++
	}
	if count == 0 {
		return math.NaN(), 0
	}
	return sum / float64(count), count
}

// ZeroTolerance is the magnitude below which a dispersion is treated as zero.
const ZeroTolerance = 1e-12

// NearZero reports whether |v| is within ZeroTolerance of zero.
func NearZero(v float64) bool {
	return math.Abs(v) <= ZeroTolerance
}

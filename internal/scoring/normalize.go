package scoring

import "math"

// zscores normalizes a cross-sectional slice: (x - mean) / population stddev.
// NaN entries (undefined metrics) are excluded from the distribution and come
// back as 0, neutral. A zero-variance distribution also yields all zeros.
func zscores(values []float64) []float64 {
	var sum float64
	var n int
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}

	out := make([]float64, len(values))
	if n == 0 {
		return out
	}
	mean := sum / float64(n)

	var variance float64
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		d := v - mean
		variance += d * d
	}
	std := math.Sqrt(variance / float64(n))
	if std == 0 {
		return out
	}

	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		out[i] = (v - mean) / std
	}
	return out
}

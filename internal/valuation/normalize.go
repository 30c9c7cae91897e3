package valuation

import "math"

// Normalize returns the relative deviation of actual from expected,
// clamped to [-bound, bound]. With a zero expectation the absolute difference
// is used when absoluteFallback is set, otherwise the delta is 0.
func Normalize(actual, expected, bound float64, absoluteFallback bool) float64 {
	if !finite(actual) || !finite(expected) || !finite(bound) || bound <= 0 {
		return 0
	}
	var delta float64
	switch {
	case expected != 0:
		delta = (actual - expected) / math.Abs(expected)
	case absoluteFallback:
		delta = actual - expected
	default:
		return 0
	}
	return clamp(delta, -bound, bound)
}

// NormalizeMetric applies the metric's cap and fallback rule.
func NormalizeMetric(m Metric, actual, expected float64) float64 {
	rule, ok := metricRules[m]
	if !ok {
		return 0
	}
	return Normalize(actual, expected, rule.Cap, rule.AbsoluteFallback)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

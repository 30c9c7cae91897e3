package valuation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		actual   float64
		expected float64
		bound    float64
		fallback bool
		want     float64
	}{
		{"on target", 10, 10, 1, false, 0},
		{"above", 12, 10, 1, false, 0.2},
		{"below", 5, 10, 1, false, -0.5},
		{"negative expectation uses magnitude", -5, -10, 1, false, 0.5},
		{"clamped high", 1000, 1, 1, false, 1},
		{"clamped low", -1000, 1, 0.5, false, -0.5},
		{"zero expectation without fallback", 3, 0, 1, false, 0},
		{"zero expectation with fallback", 0.3, 0, 1, true, 0.3},
		{"zero expectation fallback clamped", 7, 0, 1, true, 1},
		{"nan actual", math.NaN(), 1, 1, true, 0},
		{"inf expected", 1, math.Inf(1), 1, true, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, Normalize(tc.actual, tc.expected, tc.bound, tc.fallback), 1e-12)
		})
	}
}

func TestNormalizeStaysWithinBound(t *testing.T) {
	extremes := []float64{-1e300, -1e9, -1, -1e-12, 0, 1e-12, 1, 1e9, 1e300}
	for _, a := range extremes {
		for _, e := range extremes {
			for _, fb := range []bool{true, false} {
				d := Normalize(a, e, 0.75, fb)
				assert.LessOrEqual(t, math.Abs(d), 0.75, "actual=%g expected=%g", a, e)
			}
		}
	}
}

func TestNormalizeMetricUnknown(t *testing.T) {
	assert.Zero(t, NormalizeMetric("bogus", 10, 1))
}

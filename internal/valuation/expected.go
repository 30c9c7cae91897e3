package valuation

import (
	"math"

	"winery/internal/economy"
)

// GrowthTrendStep is added to a metric's trend each period the company
// meets or beats the expectation.
const GrowthTrendStep = 0.005

// GrowthTrend is the per-metric ratchet applied on top of the baseline.
// It only ever increases.
type GrowthTrend map[Metric]float64

// PrestigeFactor scales expectations with prestige, saturating at 1.5.
func PrestigeFactor(prestige float64) float64 {
	if !finite(prestige) || prestige <= 0 {
		return 1
	}
	return 1 + 0.5*(1-math.Exp(-prestige/50))
}

type Estimator struct {
	Phase    economy.Phase
	Prestige float64
	Trend    GrowthTrend
}

// Expected computes the expectation for every tracked metric. Delta
// metrics expect the previous period's value; without a previous
// snapshot they expect the current value, which yields a zero delta.
func (e Estimator) Expected(current Snapshot, previous *Snapshot) Values {
	phaseMult := e.Phase.Multipliers().ValuationExpectation
	prestige := PrestigeFactor(e.Prestige)
	actual := current.Actuals()
	var prior Values
	if previous != nil {
		prior = previous.Actuals()
	}

	out := make(Values, len(Metrics))
	for _, m := range Metrics {
		rule := metricRules[m]
		if rule.Delta {
			if prior != nil {
				out[m] = prior[m]
			} else {
				out[m] = actual[m]
			}
			continue
		}
		out[m] = rule.Baseline * phaseMult * prestige * (1 + e.Trend[m])
	}
	return out
}

// Ratchet returns a new trend with every baseline metric whose actual
// met its expectation stepped up. Delta metrics never carry a trend.
func (t GrowthTrend) Ratchet(actual, expected Values) GrowthTrend {
	out := make(GrowthTrend, len(Metrics))
	for m, v := range t {
		out[m] = v
	}
	for _, m := range Metrics {
		if metricRules[m].Delta {
			continue
		}
		a, okA := actual[m]
		e, okE := expected[m]
		if !okA || !okE || !finite(a) || !finite(e) {
			continue
		}
		if a >= e {
			out[m] += GrowthTrendStep
		}
	}
	return out
}

// Package valuation turns a company's weekly financials into expected
// values, normalized metric deltas and a share price update.
package valuation

type Metric string

const (
	MetricEPS              Metric = "eps"
	MetricRevenuePerShare  Metric = "revenue_per_share"
	MetricDividendPerShare Metric = "dividend_per_share"
	MetricRevenueGrowth    Metric = "revenue_growth"
	MetricProfitMargin     Metric = "profit_margin"
	MetricCreditRating     Metric = "credit_rating"
	MetricFixedAssetRatio  Metric = "fixed_asset_ratio"
	MetricPrestige         Metric = "prestige"
)

// Metrics is the fixed set tracked by the share price adjuster.
var Metrics = []Metric{
	MetricEPS,
	MetricRevenuePerShare,
	MetricDividendPerShare,
	MetricRevenueGrowth,
	MetricProfitMargin,
	MetricCreditRating,
	MetricFixedAssetRatio,
	MetricPrestige,
}

// MetricRule describes how one metric is expected, normalized and priced.
// Delta metrics are measured against the previous period instead of a baseline.
type MetricRule struct {
	Baseline         float64
	Cap              float64
	BaseAdjustment   float64
	AbsoluteFallback bool
	Delta            bool
}

var metricRules = map[Metric]MetricRule{
	MetricEPS:              {Baseline: 0.02, Cap: 1.0, BaseAdjustment: 0.40},
	MetricRevenuePerShare:  {Baseline: 0.10, Cap: 1.0, BaseAdjustment: 0.20},
	MetricDividendPerShare: {Baseline: 0.005, Cap: 1.0, BaseAdjustment: 0.25},
	MetricRevenueGrowth:    {Baseline: 0.02, Cap: 1.0, BaseAdjustment: 0.30, AbsoluteFallback: true},
	MetricProfitMargin:     {Baseline: 0.10, Cap: 1.0, BaseAdjustment: 0.25, AbsoluteFallback: true},
	MetricCreditRating:     {Cap: 1.0, BaseAdjustment: 0.30, AbsoluteFallback: true, Delta: true},
	MetricFixedAssetRatio:  {Cap: 1.0, BaseAdjustment: 0.10, AbsoluteFallback: true, Delta: true},
	MetricPrestige:         {Cap: 1.0, BaseAdjustment: 0.20, AbsoluteFallback: true, Delta: true},
}

// Values holds one number per metric.
type Values map[Metric]float64

func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, x := range v {
		out[k] = x
	}
	return out
}

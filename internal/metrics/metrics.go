// Package metrics exposes Prometheus collectors for the valuation cycle.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	WeeksAdvanced = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "winery_weeks_advanced_total",
			Help: "Total number of simulated weeks processed",
		},
	)

	PhaseTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "winery_economy_phase_transitions_total",
			Help: "Economy phase draws at season boundaries",
		},
		[]string{"from", "to"},
	)

	CompanyValuations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "winery_company_valuations_total",
			Help: "Company valuations computed",
		},
		[]string{"status"}, // status: ok|floored
	)

	PersistenceFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "winery_persistence_failures_total",
			Help: "Store writes that failed and were left to local state",
		},
		[]string{"operation"},
	)

	ValuationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "winery_week_duration_seconds",
			Help:    "Wall time of one simulated week",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
	)

	SharePrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "winery_share_price_euros",
			Help: "Latest share price per company",
		},
		[]string{"company"},
	)

	CreditRating = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "winery_credit_rating",
			Help: "Latest credit rating per company",
		},
		[]string{"company"},
	)
)

func init() {
	prometheus.MustRegister(
		WeeksAdvanced,
		PhaseTransitions,
		CompanyValuations,
		PersistenceFailures,
		ValuationDuration,
		SharePrice,
		CreditRating,
	)
}

func Handler() http.Handler {
	return promhttp.Handler()
}

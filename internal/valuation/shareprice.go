package valuation

import (
	"errors"
	"math"
)

const (
	// FloorFraction of book value per share is the lowest price allowed.
	FloorFraction = 0.10
	// AnchorStrength controls how fast adjustments shrink away from book value.
	AnchorStrength = 4.0
)

var (
	ErrInvalidShares = errors.New("share count must be > 0")
	ErrInvalidEquity = errors.New("equity must be > 0 at issuance")
)

type PriceState struct {
	Price             float64 `json:"price"`
	BookValuePerShare float64 `json:"book_value_per_share"`
}

// Issue creates the price state at share issuance: price equals book value.
func Issue(equity, shares float64) (PriceState, error) {
	if shares <= 0 || !finite(shares) {
		return PriceState{}, ErrInvalidShares
	}
	if equity <= 0 || !finite(equity) {
		return PriceState{}, ErrInvalidEquity
	}
	book := equity / shares
	return PriceState{Price: book, BookValuePerShare: book}, nil
}

func (s PriceState) Floor() float64 {
	return FloorFraction * s.BookValuePerShare
}

// AnchorFactor is 1 at book value and decays smoothly as the price drifts
// away from it in either direction.
func AnchorFactor(price, book float64) float64 {
	if book <= 0 || !finite(price) || !finite(book) {
		return 1
	}
	d := math.Abs(price-book) / book
	return 1 / (1 + AnchorStrength*d*d)
}

type Adjustment struct {
	Deltas        Values  `json:"deltas"`
	Contributions Values  `json:"contributions"`
	RawDelta      float64 `json:"raw_delta"`
	AnchorFactor  float64 `json:"anchor_factor"`
	PreviousPrice float64 `json:"previous_price"`
	Price         float64 `json:"price"`
	Floored       bool    `json:"floored"`
}

// RawDelta sums each metric's normalized delta times its base adjustment.
// Metrics missing from either side contribute nothing.
func RawDelta(actual, expected Values) (float64, Values, Values) {
	deltas := make(Values, len(Metrics))
	contrib := make(Values, len(Metrics))
	total := 0.0
	for _, m := range Metrics {
		a, okA := actual[m]
		e, okE := expected[m]
		if !okA || !okE {
			continue
		}
		d := NormalizeMetric(m, a, e)
		c := d * metricRules[m].BaseAdjustment
		deltas[m] = d
		contrib[m] = c
		total += c
	}
	return total, deltas, contrib
}

// Adjust applies one week of metric performance to the price.
func Adjust(state PriceState, actual, expected Values) (PriceState, Adjustment) {
	raw, deltas, contrib := RawDelta(actual, expected)
	anchor := AnchorFactor(state.Price, state.BookValuePerShare)
	next := state.Price + raw*anchor

	adj := Adjustment{
		Deltas:        deltas,
		Contributions: contrib,
		RawDelta:      raw,
		AnchorFactor:  anchor,
		PreviousPrice: state.Price,
	}
	if floor := state.Floor(); next < floor || !finite(next) {
		next = floor
		adj.Floored = true
	}
	adj.Price = next
	state.Price = next
	return state, adj
}

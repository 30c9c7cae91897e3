package wine

import (
	"fmt"
	"math"
)

const overshootPenaltyFactor = 2.0

type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (r Range) Midpoint() float64 {
	return (r.Min + r.Max) / 2
}

// Ranges maps every characteristic to its target range.
type Ranges map[Characteristic]Range

// DefaultRanges is the static target table.
func DefaultRanges() Ranges {
	return Ranges{
		Acidity:   {Min: 0.4, Max: 0.6},
		Aroma:     {Min: 0.3, Max: 0.7},
		Body:      {Min: 0.4, Max: 0.8},
		Spice:     {Min: 0.35, Max: 0.65},
		Sweetness: {Min: 0.4, Max: 0.6},
		Tannins:   {Min: 0.35, Max: 0.65},
	}
}

// UniformRanges applies one range to every characteristic.
func UniformRanges(r Range) Ranges {
	out := make(Ranges, len(AllCharacteristics))
	for _, ch := range AllCharacteristics {
		out[ch] = r
	}
	return out
}

func (r Ranges) Validate() error {
	for _, ch := range AllCharacteristics {
		rg, ok := r[ch]
		if !ok {
			return fmt.Errorf("missing range for %s", ch)
		}
		if rg.Min > rg.Max {
			return fmt.Errorf("%s: %w", ch, ErrInvalidRange)
		}
	}
	return nil
}

// Penalty is the distance from the midpoint, plus twice the overshoot
// beyond the range when the value falls outside it.
func Penalty(v float64, r Range) float64 {
	p := math.Abs(v - r.Midpoint())
	switch {
	case v < r.Min:
		p += overshootPenaltyFactor * (r.Min - v)
	case v > r.Max:
		p += overshootPenaltyFactor * (v - r.Max)
	}
	return p
}

type BalanceResult struct {
	Score     float64                    `json:"score"`
	Aggregate float64                    `json:"aggregate"`
	Penalties map[Characteristic]float64 `json:"penalties"`
}

// Balance scores characteristics against ranges. Score is 1 only when
// every characteristic sits exactly on its midpoint. Characteristics
// missing from ranges fall back to the default table.
func Balance(c Characteristics, ranges Ranges) BalanceResult {
	defaults := DefaultRanges()
	res := BalanceResult{Penalties: make(map[Characteristic]float64, len(AllCharacteristics))}
	sum := 0.0
	for _, ch := range AllCharacteristics {
		rg, ok := ranges[ch]
		if !ok {
			rg = defaults[ch]
		}
		p := Penalty(c.Get(ch), rg)
		res.Penalties[ch] = p
		sum += p
	}
	res.Aggregate = sum / float64(len(AllCharacteristics))
	res.Score = math.Max(0, 1-2*res.Aggregate)
	if math.IsNaN(res.Score) {
		res.Score = 0
	}
	return res
}

func BalanceScore(c Characteristics) float64 {
	return Balance(c, DefaultRanges()).Score
}

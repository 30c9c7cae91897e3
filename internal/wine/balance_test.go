package wine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func even(v float64) Characteristics {
	return Characteristics{Acidity: v, Aroma: v, Body: v, Spice: v, Sweetness: v, Tannins: v}
}

func TestBalancePerfectAtMidpoints(t *testing.T) {
	res := Balance(even(0.5), UniformRanges(Range{Min: 0.4, Max: 0.6}))
	assert.Equal(t, 1.0, res.Score)
	assert.Zero(t, res.Aggregate)
}

func TestBalanceDefaultMidpoints(t *testing.T) {
	def := DefaultRanges()
	c := Characteristics{
		Acidity:   def[Acidity].Midpoint(),
		Aroma:     def[Aroma].Midpoint(),
		Body:      def[Body].Midpoint(),
		Spice:     def[Spice].Midpoint(),
		Sweetness: def[Sweetness].Midpoint(),
		Tannins:   def[Tannins].Midpoint(),
	}
	assert.InDelta(t, 1.0, BalanceScore(c), 1e-12)
}

func TestBalanceBelowOneOffMidpoint(t *testing.T) {
	ranges := UniformRanges(Range{Min: 0.4, Max: 0.6})
	c := even(0.5)
	c.Spice = 0.55
	res := Balance(c, ranges)
	assert.Less(t, res.Score, 1.0)
	assert.InDelta(t, 1-2*(0.05/6), res.Score, 1e-12)
}

func TestPenaltyOutsideRange(t *testing.T) {
	r := Range{Min: 0.4, Max: 0.6}
	assert.InDelta(t, 0.1, Penalty(0.6, r), 1e-12)
	assert.InDelta(t, 0.3+2*0.2, Penalty(0.8, r), 1e-12)
	assert.InDelta(t, 0.4+2*0.3, Penalty(0.1, r), 1e-12)
}

func TestBalanceScoreInUnitRange(t *testing.T) {
	for _, v := range []float64{0, 0.1, 0.33, 0.5, 0.77, 1} {
		s := BalanceScore(even(v))
		require.GreaterOrEqual(t, s, 0.0)
		require.LessOrEqual(t, s, 1.0)
	}
	assert.Zero(t, Balance(even(1), UniformRanges(Range{Min: 0, Max: 0.1})).Score)
}

func TestRangesValidate(t *testing.T) {
	require.NoError(t, DefaultRanges().Validate())
	bad := DefaultRanges()
	bad[Body] = Range{Min: 0.9, Max: 0.2}
	assert.ErrorIs(t, bad.Validate(), ErrInvalidRange)
	delete(bad, Body)
	assert.Error(t, bad.Validate())
}

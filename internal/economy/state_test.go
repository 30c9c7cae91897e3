package economy

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionWeightsSumToOne(t *testing.T) {
	for _, p := range Phases {
		sum := 0.0
		for _, w := range TransitionWeights(p) {
			require.GreaterOrEqual(t, w, 0.0)
			sum += w
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "phase %s", p)
	}
}

func TestTransitionWeightsFavourNeighbours(t *testing.T) {
	w := TransitionWeights(Recovery)
	assert.InDelta(t, 0.40, w[2], 1e-9)
	assert.Greater(t, w[1], w[0])
	assert.Greater(t, w[3], w[4])

	crash := TransitionWeights(Crash)
	assert.InDelta(t, 0.70, crash[0], 1e-9)
	assert.InDelta(t, 0.25, crash[1], 1e-9)
}

func TestNextPhaseAlwaysValid(t *testing.T) {
	draws := []float64{0, 0.1, 0.39999, 0.5, 0.999999, 1, 1.5, -0.2}
	for _, p := range Phases {
		for _, d := range draws {
			next := NextPhase(p, d)
			assert.True(t, next.Valid(), "from %s draw %v got %q", p, d, next)
		}
	}
}

func TestEndPhasesAreStickier(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	const draws = 50_000
	stays := map[Phase]int{}
	for _, p := range Phases {
		for i := 0; i < draws; i++ {
			if NextPhase(p, r.Float64()) == p {
				stays[p]++
			}
		}
	}
	for _, end := range []Phase{Crash, Boom} {
		for _, mid := range []Phase{Recession, Recovery, Expansion} {
			assert.Greater(t, stays[end], stays[mid], "%s vs %s", end, mid)
		}
	}
}

func TestMachineTransition(t *testing.T) {
	m := NewMachine("", rand.New(rand.NewSource(7)))
	require.Equal(t, Recovery, m.Phase())

	for i := 0; i < 500; i++ {
		from, to := m.Transition()
		require.True(t, from.Valid())
		require.True(t, to.Valid())
		require.Equal(t, to, m.Phase())
	}

	require.NoError(t, m.Restore(Boom))
	assert.Equal(t, Boom, m.Phase())
	assert.ErrorIs(t, m.Restore("stagflation"), ErrUnknownPhase)
}

func TestParsePhase(t *testing.T) {
	p, err := ParsePhase(" Boom ")
	require.NoError(t, err)
	assert.Equal(t, Boom, p)

	_, err = ParsePhase("depression")
	assert.ErrorIs(t, err, ErrUnknownPhase)
}

func TestUnknownPhaseMultipliersAreNeutral(t *testing.T) {
	assert.Equal(t, Recovery.Multipliers(), Phase("nope").Multipliers())
	assert.Greater(t, Boom.Multipliers().ValuationExpectation, Crash.Multipliers().ValuationExpectation)
}

func TestNextPhaseOutOfRangeDraws(t *testing.T) {
	for _, p := range Phases {
		assert.Equal(t, Phases[0], NextPhase(p, -0.5))
		assert.Equal(t, Phases[len(Phases)-1], NextPhase(p, 1.5))
	}
}

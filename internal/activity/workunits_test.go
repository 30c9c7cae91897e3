package activity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkUnits(t *testing.T) {
	tests := []struct {
		name string
		in   WorkInput
		want int
	}{
		{"planting default density", WorkInput{Category: Planting, Amount: 2}, 4},
		{"planting dense", WorkInput{Category: Planting, Amount: 2, Density: 7500}, 6},
		{"crushing", WorkInput{Category: Crushing, Amount: 6000}, 3},
		{"density ignored for crushing", WorkInput{Category: Crushing, Amount: 5000, Density: 10000}, 2},
		{"modifiers", WorkInput{Category: Clearing, Amount: 10, Modifiers: []float64{0.2, -0.5}}, 6},
		{"modifier floor", WorkInput{Category: Clearing, Amount: 10, Modifiers: []float64{-5}}, 1},
		{"zero amount", WorkInput{Category: Harvesting, Amount: 0}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := WorkUnits(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestWorkUnitsUnknownCategory(t *testing.T) {
	_, err := WorkUnits(WorkInput{Category: "pruning", Amount: 1})
	assert.ErrorIs(t, err, ErrUnknownCategory)

	_, err = ParseCategory("bottling")
	assert.ErrorIs(t, err, ErrUnknownCategory)

	c, err := ParseCategory(" Staff_Search ")
	require.NoError(t, err)
	assert.Equal(t, StaffSearch, c)
}

func TestWeeksToComplete(t *testing.T) {
	w, err := WeeksToComplete(10, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, w)

	w, err = WeeksToComplete(0, 3)
	require.NoError(t, err)
	assert.Zero(t, w)

	_, err = WeeksToComplete(5, 0)
	assert.ErrorIs(t, err, ErrNoCapacity)
}

func TestWorkUnitsBounds(t *testing.T) {
	_, err := WorkUnits(WorkInput{Category: Crushing, Amount: 1e300})
	assert.ErrorIs(t, err, ErrTooMuchWork)

	_, err = WorkUnits(WorkInput{Category: Planting, Amount: 1, Density: 1e300})
	assert.ErrorIs(t, err, ErrTooMuchWork)

	units, err := WorkUnits(WorkInput{Category: Administration, Amount: MaxWorkUnits})
	require.NoError(t, err)
	assert.Equal(t, MaxWorkUnits, units)

	_, err = WeeksToComplete(MaxWorkUnits, 1e-12)
	assert.ErrorIs(t, err, ErrTooMuchWork)

	weeks, err := WeeksToComplete(MaxWorkUnits, 1)
	require.NoError(t, err)
	assert.Equal(t, MaxWorkUnits, weeks)
}

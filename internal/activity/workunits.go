// Package activity sizes vineyard and winery tasks in work units.
package activity

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrUnknownCategory = errors.New("unknown activity category")
	ErrNoCapacity      = errors.New("staff capacity must be > 0")
	ErrTooMuchWork     = errors.New("work exceeds the schedulable limit")
)

// MaxWorkUnits bounds any single task so counts fit every platform int.
const MaxWorkUnits = math.MaxInt32

type Category string

const (
	Planting       Category = "planting"
	Harvesting     Category = "harvesting"
	Crushing       Category = "crushing"
	Fermentation   Category = "fermentation"
	Clearing       Category = "clearing"
	Administration Category = "administration"
	StaffSearch    Category = "staff_search"
)

// DefaultVineDensity is vines per hectare at which density has no effect.
const DefaultVineDensity = 5000.0

const minModifier = -0.9

type categoryRate struct {
	Rate         float64
	Unit         string
	DensityBased bool
}

// Rates are the amount of work one unit completes.
var rates = map[Category]categoryRate{
	Planting:       {Rate: 0.5, Unit: "ha", DensityBased: true},
	Harvesting:     {Rate: 0.8, Unit: "ha", DensityBased: true},
	Crushing:       {Rate: 2500, Unit: "kg"},
	Fermentation:   {Rate: 5000, Unit: "l"},
	Clearing:       {Rate: 1.0, Unit: "ha"},
	Administration: {Rate: 1, Unit: "task"},
	StaffSearch:    {Rate: 1, Unit: "candidate"},
}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := rates[c]; !ok {
		return "", fmt.Errorf("%q: %w", s, ErrUnknownCategory)
	}
	return c, nil
}

func Unit(c Category) string {
	return rates[c].Unit
}

type WorkInput struct {
	Category  Category  `json:"category"`
	Amount    float64   `json:"amount"`
	Density   float64   `json:"density,omitempty"`
	Modifiers []float64 `json:"modifiers,omitempty"`
}

// WorkUnits returns the whole number of units needed for the task.
// Non-positive amounts need no work.
func WorkUnits(in WorkInput) (int, error) {
	rate, ok := rates[in.Category]
	if !ok {
		return 0, fmt.Errorf("%q: %w", in.Category, ErrUnknownCategory)
	}
	if in.Amount <= 0 || math.IsNaN(in.Amount) {
		return 0, nil
	}
	units := in.Amount / rate.Rate
	if rate.DensityBased && in.Density > 0 {
		units *= in.Density / DefaultVineDensity
	}
	for _, m := range in.Modifiers {
		if m < minModifier {
			m = minModifier
		}
		units *= 1 + m
	}
	if math.IsNaN(units) || units > MaxWorkUnits {
		return 0, fmt.Errorf("%s %v: %w", in.Category, in.Amount, ErrTooMuchWork)
	}
	// Guard against 2.0000000001 rounding up to 3.
	return int(math.Ceil(units - 1e-9)), nil
}

// WeeksToComplete is how many weeks a staff team with the given weekly
// capacity needs for units.
func WeeksToComplete(units int, capacityPerWeek float64) (int, error) {
	if capacityPerWeek <= 0 || math.IsNaN(capacityPerWeek) {
		return 0, ErrNoCapacity
	}
	if units <= 0 {
		return 0, nil
	}
	if units > MaxWorkUnits {
		return 0, fmt.Errorf("%d units: %w", units, ErrTooMuchWork)
	}
	weeks := math.Ceil(float64(units) / capacityPerWeek)
	if weeks > MaxWorkUnits {
		return 0, fmt.Errorf("%v weeks: %w", weeks, ErrTooMuchWork)
	}
	return int(weeks), nil
}

package economy

import (
	"errors"
	"strings"
)

var ErrUnknownPhase = errors.New("unknown economy phase")

type Phase string

const (
	Crash     Phase = "crash"
	Recession Phase = "recession"
	Recovery  Phase = "recovery"
	Expansion Phase = "expansion"
	Boom      Phase = "boom"
)

// Phases lists every phase in cycle order. Transitions favour neighbours
// in this order, so it must not be resorted.
var Phases = []Phase{Crash, Recession, Recovery, Expansion, Boom}

const StartingPhase = Recovery

// Multipliers scale sales, orders, loans and valuation expectations while
// a phase is active. 1.0 is neutral.
type Multipliers struct {
	SaleFrequency        float64 `json:"sale_frequency"`
	OrderQuantity        float64 `json:"order_quantity"`
	PriceTolerance       float64 `json:"price_tolerance"`
	MultipleOrderPenalty float64 `json:"multiple_order_penalty"`
	LoanInterest         float64 `json:"loan_interest"`
	ValuationExpectation float64 `json:"valuation_expectation"`
}

var phaseMultipliers = map[Phase]Multipliers{
	Crash: {
		SaleFrequency:        0.60,
		OrderQuantity:        0.70,
		PriceTolerance:       0.80,
		MultipleOrderPenalty: 1.30,
		LoanInterest:         1.50,
		ValuationExpectation: 0.70,
	},
	Recession: {
		SaleFrequency:        0.80,
		OrderQuantity:        0.85,
		PriceTolerance:       0.90,
		MultipleOrderPenalty: 1.15,
		LoanInterest:         1.25,
		ValuationExpectation: 0.85,
	},
	Recovery: {
		SaleFrequency:        1.00,
		OrderQuantity:        1.00,
		PriceTolerance:       1.00,
		MultipleOrderPenalty: 1.00,
		LoanInterest:         1.00,
		ValuationExpectation: 1.00,
	},
	Expansion: {
		SaleFrequency:        1.15,
		OrderQuantity:        1.10,
		PriceTolerance:       1.10,
		MultipleOrderPenalty: 0.90,
		LoanInterest:         0.90,
		ValuationExpectation: 1.10,
	},
	Boom: {
		SaleFrequency:        1.30,
		OrderQuantity:        1.25,
		PriceTolerance:       1.20,
		MultipleOrderPenalty: 0.80,
		LoanInterest:         0.80,
		ValuationExpectation: 1.25,
	},
}

func ParsePhase(s string) (Phase, error) {
	p := Phase(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", ErrUnknownPhase
	}
	return p, nil
}

func (p Phase) Valid() bool {
	_, ok := phaseMultipliers[p]
	return ok
}

// Multipliers returns the neutral set for an unknown phase.
func (p Phase) Multipliers() Multipliers {
	if m, ok := phaseMultipliers[p]; ok {
		return m
	}
	return phaseMultipliers[Recovery]
}

func (p Phase) index() int {
	for i, q := range Phases {
		if q == p {
			return i
		}
	}
	return -1
}

func (p Phase) String() string {
	return string(p)
}

package economy

import "sync"

const (
	endPhaseStay     = 0.70
	endPhaseNeighbor = 0.25
	midPhaseStay     = 0.40
	midPhaseNeighbor = 0.25
)

// Rand is the subset of *math/rand.Rand the state machine draws from.
type Rand interface {
	Float64() float64
}

// TransitionWeights returns the probability of moving from p to each entry
// of Phases. Weights sum to 1.
func TransitionWeights(p Phase) []float64 {
	idx := p.index()
	if idx < 0 {
		idx = StartingPhase.index()
	}
	last := len(Phases) - 1
	stay, neighbor := midPhaseStay, midPhaseNeighbor
	if idx == 0 || idx == last {
		stay, neighbor = endPhaseStay, endPhaseNeighbor
	}

	weights := make([]float64, len(Phases))
	var neighbors, distant []int
	for i := range Phases {
		switch {
		case i == idx:
			weights[i] = stay
		case i == idx-1 || i == idx+1:
			neighbors = append(neighbors, i)
		default:
			distant = append(distant, i)
		}
	}
	for _, i := range neighbors {
		weights[i] = neighbor
	}
	rest := 1 - stay - neighbor*float64(len(neighbors))
	if len(distant) == 0 {
		weights[idx] += rest
		return weights
	}
	for _, i := range distant {
		weights[i] = rest / float64(len(distant))
	}
	return weights
}

// NextPhase maps a uniform draw in [0,1) onto the transition weights of
// current. Negative draws land on the first bucket and draws of 1 or more
// on the last, so the result is always a valid phase.
func NextPhase(current Phase, draw float64) Phase {
	weights := TransitionWeights(current)
	acc := 0.0
	for i, w := range weights {
		acc += w
		if draw < acc {
			return Phases[i]
		}
	}
	return Phases[len(Phases)-1]
}

// Machine holds the single active phase.
type Machine struct {
	mu    sync.Mutex
	phase Phase
	rand  Rand
}

func NewMachine(start Phase, r Rand) *Machine {
	if !start.Valid() {
		start = StartingPhase
	}
	return &Machine{phase: start, rand: r}
}

func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Restore replaces the active phase, e.g. with the value loaded from the store.
func (m *Machine) Restore(p Phase) error {
	if !p.Valid() {
		return ErrUnknownPhase
	}
	m.mu.Lock()
	m.phase = p
	m.mu.Unlock()
	return nil
}

// Transition draws the next phase. Call it once per season boundary.
func (m *Machine) Transition() (from, to Phase) {
	m.mu.Lock()
	defer m.mu.Unlock()
	from = m.phase
	m.phase = NextPhase(from, m.rand.Float64())
	return from, m.phase
}

// Package appstate holds session UI state (warnings, toasts, minimized
// modals, pending decisions) as one explicit object mutated only through
// dispatched events.
package appstate

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnknownEvent     = errors.New("unknown event")
	ErrWarningNotFound  = errors.New("warning not found")
	ErrDecisionNotFound = errors.New("decision not found")
	ErrDecisionOwner    = errors.New("decision belongs to another company")
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelDanger  Level = "danger"
)

// Warning stays in State until it is acknowledged.
type Warning struct {
	ID        uuid.UUID `json:"id"`
	CompanyID uuid.UUID `json:"company_id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	RaisedAt  time.Time `json:"raised_at"`
}

type Toast struct {
	ID        uuid.UUID `json:"id"`
	WarningID uuid.UUID `json:"warning_id,omitempty"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

type PendingDecision struct {
	ID        uuid.UUID `json:"id"`
	CompanyID uuid.UUID `json:"company_id"`
	Decision  Envelope  `json:"decision"`
	RaisedAt  time.Time `json:"raised_at"`
}

type State struct {
	Warnings  []Warning         `json:"warnings"`
	Toasts    []Toast           `json:"toasts"`
	Minimized map[string]bool   `json:"minimized"`
	Decisions []PendingDecision `json:"decisions"`
}

func (s State) clone() State {
	out := State{
		Warnings:  append([]Warning(nil), s.Warnings...),
		Toasts:    append([]Toast(nil), s.Toasts...),
		Decisions: append([]PendingDecision(nil), s.Decisions...),
		Minimized: make(map[string]bool, len(s.Minimized)),
	}
	for k, v := range s.Minimized {
		out.Minimized[k] = v
	}
	return out
}

// Listener is called after every applied event with a copy of the new state.
type Listener func(Event, State)

type Store struct {
	mu        sync.Mutex
	state     State
	listeners map[int]Listener
	nextID    int
}

func NewStore() *Store {
	return &Store{
		state:     State{Minimized: map[string]bool{}},
		listeners: map[int]Listener{},
	}
}

// Subscribe registers l and returns a function removing it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Dispatch applies e and notifies listeners in subscription order.
func (s *Store) Dispatch(e Event) error {
	s.mu.Lock()
	if err := s.apply(e); err != nil {
		s.mu.Unlock()
		return err
	}
	snap, ls := s.notifyLocked()
	s.mu.Unlock()

	for _, l := range ls {
		l(e, snap)
	}
	return nil
}

// notifyLocked copies the state and the listeners in subscription order.
// s.mu must be held.
func (s *Store) notifyLocked() (State, []Listener) {
	snap := s.state.clone()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	ls := make([]Listener, 0, len(ids))
	for _, id := range ids {
		ls = append(ls, s.listeners[id])
	}
	return snap, ls
}

// Take removes the pending decision id owned by companyID and returns it.
// Only one caller can take a given decision; the rest get
// ErrDecisionNotFound. Listeners see a DecisionResolved event.
func (s *Store) Take(id, companyID uuid.UUID) (PendingDecision, error) {
	s.mu.Lock()
	idx := -1
	for i, d := range s.state.Decisions {
		if d.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return PendingDecision{}, ErrDecisionNotFound
	}
	taken := s.state.Decisions[idx]
	if taken.CompanyID != companyID {
		s.mu.Unlock()
		return PendingDecision{}, ErrDecisionOwner
	}
	s.state.Decisions = append(s.state.Decisions[:idx], s.state.Decisions[idx+1:]...)
	ev := DecisionResolved{ID: id}
	snap, ls := s.notifyLocked()
	s.mu.Unlock()

	for _, l := range ls {
		l(ev, snap)
	}
	return taken, nil
}

// Match finds the pending decision of companyID that d answers: same type
// and same offer id.
func (s *Store) Match(companyID uuid.UUID, d Decision) (PendingDecision, error) {
	if d == nil {
		return PendingDecision{}, ErrDecisionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.state.Decisions {
		if p.CompanyID != companyID || p.Decision.Decision == nil {
			continue
		}
		if p.Decision.Decision.DecisionType() != d.DecisionType() {
			continue
		}
		if offerID(p.Decision.Decision) == offerID(d) {
			return p, nil
		}
	}
	return PendingDecision{}, ErrDecisionNotFound
}

func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Unacknowledged lists open warnings for a company; uuid.Nil lists all.
func (s *Store) Unacknowledged(companyID uuid.UUID) []Warning {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Warning
	for _, w := range s.state.Warnings {
		if companyID != uuid.Nil && w.CompanyID != companyID {
			continue
		}
		out = append(out, w)
	}
	return out
}

func (s *Store) Pending(companyID uuid.UUID) []PendingDecision {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []PendingDecision
	for _, d := range s.state.Decisions {
		if companyID == uuid.Nil || d.CompanyID == companyID {
			out = append(out, d)
		}
	}
	return out
}

// Decision returns the pending decision with id.
func (s *Store) Decision(id uuid.UUID) (PendingDecision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.state.Decisions {
		if d.ID == id {
			return d, nil
		}
	}
	return PendingDecision{}, ErrDecisionNotFound
}

// HasToastFor reports whether a live toast already points at the warning.
func (s *Store) HasToastFor(warningID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.state.Toasts {
		if t.WarningID == warningID {
			return true
		}
	}
	return false
}

func (s *Store) apply(e Event) error {
	st := &s.state
	switch ev := e.(type) {
	case WarningRaised:
		st.Warnings = append(st.Warnings, ev.Warning)
	case WarningAcknowledged:
		for i := range st.Warnings {
			if st.Warnings[i].ID == ev.ID {
				st.Warnings = append(st.Warnings[:i], st.Warnings[i+1:]...)
				st.Toasts = dropToasts(st.Toasts, func(t Toast) bool { return t.WarningID == ev.ID })
				return nil
			}
		}
		return ErrWarningNotFound
	case ToastShown:
		st.Toasts = append(st.Toasts, ev.Toast)
	case ToastsExpired:
		st.Toasts = dropToasts(st.Toasts, func(t Toast) bool { return !t.ExpiresAt.After(ev.Now) })
	case ModalMinimized:
		st.Minimized[ev.Name] = true
	case ModalRestored:
		delete(st.Minimized, ev.Name)
	case DecisionRaised:
		st.Decisions = append(st.Decisions, ev.Pending)
	case DecisionResolved:
		for i, d := range st.Decisions {
			if d.ID == ev.ID {
				st.Decisions = append(st.Decisions[:i], st.Decisions[i+1:]...)
				return nil
			}
		}
		return ErrDecisionNotFound
	default:
		return ErrUnknownEvent
	}
	return nil
}

func dropToasts(in []Toast, drop func(Toast) bool) []Toast {
	out := in[:0]
	for _, t := range in {
		if !drop(t) {
			out = append(out, t)
		}
	}
	return out
}

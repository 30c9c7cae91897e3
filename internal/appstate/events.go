package appstate

import (
	"time"

	"github.com/google/uuid"
)

// Event is a closed set of state transitions.
type Event interface {
	eventName() string
}

type WarningRaised struct{ Warning Warning }

type WarningAcknowledged struct{ ID uuid.UUID }

type ToastShown struct{ Toast Toast }

// ToastsExpired drops every toast whose deadline is at or before Now.
type ToastsExpired struct{ Now time.Time }

type ModalMinimized struct{ Name string }

type ModalRestored struct{ Name string }

type DecisionRaised struct{ Pending PendingDecision }

type DecisionResolved struct{ ID uuid.UUID }

func (WarningRaised) eventName() string       { return "warning_raised" }
func (WarningAcknowledged) eventName() string { return "warning_acknowledged" }
func (ToastShown) eventName() string          { return "toast_shown" }
func (ToastsExpired) eventName() string       { return "toasts_expired" }
func (ModalMinimized) eventName() string      { return "modal_minimized" }
func (ModalRestored) eventName() string       { return "modal_restored" }
func (DecisionRaised) eventName() string      { return "decision_raised" }
func (DecisionResolved) eventName() string    { return "decision_resolved" }

// EventName is the stable name used in logs.
func EventName(e Event) string {
	if e == nil {
		return ""
	}
	return e.eventName()
}

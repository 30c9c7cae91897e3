package appstate

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrUnknownDecision = errors.New("unknown decision type")

const (
	TypeForcedLoanRestructure = "forcedLoanRestructure"
	TypeLoanOffer             = "loanOffer"
	TypeShareIssuance         = "shareIssuance"
)

// Decision is a player-facing choice. The concrete types below are the
// only implementations.
type Decision interface {
	DecisionType() string
}

type ForcedLoanRestructure struct {
	OfferID   string `json:"offerId"`
	LoanID    string `json:"loanId"`
	TermWeeks int    `json:"termWeeks"`
}

type LoanOffer struct {
	OfferID   string  `json:"offerId"`
	Amount    float64 `json:"amount"`
	TermWeeks int     `json:"termWeeks"`
}

type ShareIssuance struct {
	OfferID string  `json:"offerId"`
	Shares  float64 `json:"shares"`
}

func (ForcedLoanRestructure) DecisionType() string { return TypeForcedLoanRestructure }
func (LoanOffer) DecisionType() string             { return TypeLoanOffer }
func (ShareIssuance) DecisionType() string         { return TypeShareIssuance }

func offerID(d Decision) string {
	switch v := d.(type) {
	case ForcedLoanRestructure:
		return v.OfferID
	case LoanOffer:
		return v.OfferID
	case ShareIssuance:
		return v.OfferID
	default:
		return ""
	}
}

// Envelope carries a Decision as flat JSON with a "type" discriminator,
// e.g. {"type":"forcedLoanRestructure","offerId":"o-1"}.
type Envelope struct {
	Decision Decision
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	if e.Decision == nil {
		return []byte("null"), nil
	}
	body, err := json.Marshal(e.Decision)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	typ, _ := json.Marshal(e.Decision.DecisionType())
	fields["type"] = typ
	return json.Marshal(fields)
}

func (e *Envelope) UnmarshalJSON(raw []byte) error {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return err
	}
	var d Decision
	switch head.Type {
	case TypeForcedLoanRestructure:
		var v ForcedLoanRestructure
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		d = v
	case TypeLoanOffer:
		var v LoanOffer
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		d = v
	case TypeShareIssuance:
		var v ShareIssuance
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		d = v
	default:
		return fmt.Errorf("%q: %w", head.Type, ErrUnknownDecision)
	}
	e.Decision = d
	return nil
}

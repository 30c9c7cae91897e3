// Package finance keeps a company's loan book and payment history.
package finance

import (
	"errors"
	"fmt"
	"math"

	"winery/internal/economy"
)

var (
	ErrInvalidLoan   = errors.New("loan principal and term must be > 0")
	ErrNoOpenLoans   = errors.New("no open loans")
	ErrLoanNotFound  = errors.New("loan not found")
	ErrInvalidAmount = errors.New("amount must be > 0")
)

// RestructureAfterMisses consecutive missed installments trigger a forced
// restructure offer.
const RestructureAfterMisses = 3

type LoanStatus string

const (
	LoanOpen   LoanStatus = "open"
	LoanRepaid LoanStatus = "repaid"
)

type Loan struct {
	ID          string     `json:"id"`
	Principal   float64    `json:"principal"`
	Outstanding float64    `json:"outstanding"`
	AnnualRate  float64    `json:"annual_rate"`
	TermWeeks   int        `json:"term_weeks"`
	Installment float64    `json:"installment"`
	MissedInRow int        `json:"missed_in_row"`
	Status      LoanStatus `json:"status"`
	TakenWeek   int        `json:"taken_week"`
}

// EffectiveRate scales a base annual rate by the economy phase and the
// borrower's credit rating: a perfect rating earns half the rate of a zero one.
func EffectiveRate(base float64, phase economy.Phase, rating float64) float64 {
	if rating < 0 {
		rating = 0
	}
	if rating > 1 {
		rating = 1
	}
	return base * phase.Multipliers().LoanInterest * (1.5 - rating)
}

// WeeklyInstallment is the annuity payment over weeks at annualRate.
func WeeklyInstallment(principal, annualRate float64, weeks int) float64 {
	if principal <= 0 || weeks <= 0 {
		return 0
	}
	r := annualRate / economy.WeeksPerYear
	if r <= 0 {
		return principal / float64(weeks)
	}
	return principal * r / (1 - math.Pow(1+r, -float64(weeks)))
}

type PaymentHistory struct {
	OnTime  int `json:"on_time"`
	Missed  int `json:"missed"`
	PaidOff int `json:"paid_off"`
	Active  int `json:"active"`
}

// Book is the loan ledger of one company. Loans are kept in the order
// they were taken; repayments go oldest first.
type Book struct {
	Loans   []Loan         `json:"loans"`
	History PaymentHistory `json:"history"`
}

func (b *Book) Take(id string, principal, annualRate float64, termWeeks, week int) (Loan, error) {
	if principal <= 0 || termWeeks <= 0 || math.IsNaN(principal) {
		return Loan{}, ErrInvalidLoan
	}
	l := Loan{
		ID:          id,
		Principal:   principal,
		Outstanding: principal,
		AnnualRate:  annualRate,
		TermWeeks:   termWeeks,
		Installment: WeeklyInstallment(principal, annualRate, termWeeks),
		Status:      LoanOpen,
		TakenWeek:   week,
	}
	b.Loans = append(b.Loans, l)
	return l, nil
}

func (b *Book) Outstanding() float64 {
	total := 0.0
	for _, l := range b.Loans {
		if l.Status == LoanOpen {
			total += l.Outstanding
		}
	}
	return total
}

// PaymentHistory returns the counters with Active reflecting open loans.
func (b *Book) PaymentHistory() PaymentHistory {
	h := b.History
	h.Active = 0
	for _, l := range b.Loans {
		if l.Status == LoanOpen {
			h.Active++
		}
	}
	return h
}

// Pay repays open loans oldest first and returns the amount applied.
func (b *Book) Pay(amount float64) (float64, error) {
	if amount <= 0 || math.IsNaN(amount) {
		return 0, ErrInvalidAmount
	}
	open := false
	remaining := amount
	repaid := 0.0
	for i := range b.Loans {
		l := &b.Loans[i]
		if l.Status != LoanOpen {
			continue
		}
		open = true
		if remaining <= 0 {
			break
		}
		pay := math.Min(l.Outstanding, remaining)
		l.Outstanding -= pay
		remaining -= pay
		repaid += pay
		b.settle(l)
	}
	if !open {
		return 0, ErrNoOpenLoans
	}
	return repaid, nil
}

// WeeklyService accrues one week of interest on every open loan and
// collects the installment from cash. It returns the amount paid and the
// loans that reached RestructureAfterMisses consecutive misses this week.
func (b *Book) WeeklyService(cash float64) (float64, []string) {
	paid := 0.0
	var distressed []string
	for i := range b.Loans {
		l := &b.Loans[i]
		if l.Status != LoanOpen {
			continue
		}
		l.Outstanding += l.Outstanding * l.AnnualRate / economy.WeeksPerYear
		due := math.Min(l.Installment, l.Outstanding)
		if cash >= due {
			cash -= due
			paid += due
			l.Outstanding -= due
			l.MissedInRow = 0
			b.History.OnTime++
			b.settle(l)
			continue
		}
		l.MissedInRow++
		b.History.Missed++
		if l.MissedInRow == RestructureAfterMisses {
			distressed = append(distressed, l.ID)
		}
	}
	return paid, distressed
}

// Restructure stretches the remaining balance of a loan over a new term
// and clears its consecutive-miss counter.
func (b *Book) Restructure(id string, termWeeks int) (Loan, error) {
	if termWeeks <= 0 {
		return Loan{}, ErrInvalidLoan
	}
	for i := range b.Loans {
		l := &b.Loans[i]
		if l.ID != id {
			continue
		}
		if l.Status != LoanOpen {
			return Loan{}, fmt.Errorf("loan %s is %s", id, l.Status)
		}
		l.TermWeeks = termWeeks
		l.Installment = WeeklyInstallment(l.Outstanding, l.AnnualRate, termWeeks)
		l.MissedInRow = 0
		return *l, nil
	}
	return Loan{}, fmt.Errorf("%s: %w", id, ErrLoanNotFound)
}

func (b *Book) settle(l *Loan) {
	if l.Outstanding <= 1e-9 {
		l.Outstanding = 0
		l.Status = LoanRepaid
		b.History.PaidOff++
	}
}

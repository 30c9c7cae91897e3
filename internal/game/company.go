package game

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"winery/internal/credit"
	"winery/internal/economy"
	"winery/internal/finance"
	"winery/internal/valuation"
)

// Company is the in-memory state of one winery. The service owns it and
// mutates it only while holding the service lock (or, during a week, from
// the single goroutine valuing that company).
type Company struct {
	ID             uuid.UUID                `json:"id"`
	Name           string                   `json:"name"`
	FoundedWeek    int                      `json:"founded_week"`
	Cash           float64                  `json:"cash"`
	FixedAssets    float64                  `json:"fixed_assets"`
	Prestige       float64                  `json:"prestige"`
	Shares         float64                  `json:"shares"`
	Issued         bool                     `json:"issued"`
	Price          valuation.PriceState     `json:"price"`
	Records        []valuation.WeeklyRecord `json:"records"`
	Trend          valuation.GrowthTrend    `json:"trend"`
	Previous       *valuation.Snapshot      `json:"previous,omitempty"`
	Loans          finance.Book             `json:"loans"`
	WeeksNegative  int                      `json:"weeks_negative"`
	Rating         credit.Rating            `json:"rating"`
	Expected       valuation.Values         `json:"expected,omitempty"`
	LastAdjustment *valuation.Adjustment    `json:"last_adjustment,omitempty"`
	Pending        valuation.WeeklyRecord   `json:"pending"`
}

func newCompany(id uuid.UUID, name string, foundedWeek int, cash float64) *Company {
	return &Company{
		ID:          id,
		Name:        name,
		FoundedWeek: foundedWeek,
		Cash:        cash,
		Trend:       valuation.GrowthTrend{},
		Rating:      credit.Combine(credit.Components{AssetHealth: 0.5, PaymentHistory: 0.5, CompanyStability: 0.5}, 0),
	}
}

// TotalAssets counts an overdraft as zero cash; credit scoring uses it.
func (c *Company) TotalAssets() float64 {
	return math.Max(c.Cash, 0) + c.FixedAssets
}

// Equity treats negative cash as a liability.
func (c *Company) Equity() float64 {
	return c.Cash + c.FixedAssets - c.Loans.Outstanding()
}

func (c *Company) FixedAssetRatio() float64 {
	total := c.TotalAssets()
	if total <= 0 {
		return 0
	}
	return c.FixedAssets / total
}

// record adds one batch of weekly figures to the open week.
func (c *Company) record(in WeeklyInput) {
	c.Pending.Revenue += in.Revenue
	c.Pending.Expenses += in.Expenses
	c.Pending.Earnings += in.Revenue - in.Expenses
	c.Pending.Dividends += in.Dividends
	c.Cash += in.Revenue - in.Expenses - in.Dividends
	if in.FixedAssets != nil {
		c.FixedAssets = math.Max(*in.FixedAssets, 0)
	}
	if in.Prestige != nil {
		c.Prestige = math.Max(*in.Prestige, 0)
	}
}

func (c *Company) issue(shares float64) error {
	if c.Issued {
		return ErrAlreadyIssued
	}
	price, err := valuation.Issue(c.Equity(), shares)
	if err != nil {
		return fmt.Errorf("issue shares: %w", err)
	}
	c.Shares = shares
	c.Price = price
	c.Issued = true
	return nil
}

// weekOutcome is what one company's week produced, gathered so the
// service can raise warnings after every company has been valued.
type weekOutcome struct {
	CompanyID  uuid.UUID
	Rating     float64
	Price      float64
	Floored    bool
	Negative   bool
	Distressed []string
	Valuation  ValuationRecord
}

// closeWeek runs the weekly valuation cycle for the company: the open
// week is pushed into the window, loans are serviced, the credit rating
// is scored, and (once shares exist) expectations and price are updated.
func (c *Company) closeWeek(date economy.Date, phase economy.Phase) weekOutcome {
	week := date.AbsoluteWeek()
	rec := c.Pending
	rec.Week = week
	c.Pending = valuation.WeeklyRecord{}

	window := valuation.NewWindow(c.Records)
	window.Push(rec)
	c.Records = window.Records()

	paid, distressed := c.Loans.WeeklyService(math.Max(c.Cash, 0))
	c.Cash -= paid

	if c.Cash < 0 {
		c.WeeksNegative++
	} else {
		c.WeeksNegative = 0
	}

	snap := window.Snapshot(valuation.SnapshotInput{
		Shares:          c.Shares,
		FixedAssetRatio: c.FixedAssetRatio(),
		Prestige:        c.Prestige,
	})
	history := c.Loans.PaymentHistory()
	c.Rating = credit.Score(credit.Inputs{
		TotalAssets:       c.TotalAssets(),
		FixedAssets:       c.FixedAssets,
		Cash:              c.Cash,
		TotalDebt:         c.Loans.Outstanding(),
		WeeklyExpenses:    rec.Expenses,
		Revenue:           snap.Revenue,
		Expenses:          snap.Expenses,
		OnTimePayments:    history.OnTime,
		MissedPayments:    history.Missed,
		LoansPaidOff:      history.PaidOff,
		ActiveLoans:       history.Active,
		AgeWeeks:          week - c.FoundedWeek,
		ProfitConsistency: snap.ProfitConsistency,
		WeeksNegative:     c.WeeksNegative,
	})
	snap.CreditRating = c.Rating.Final

	out := weekOutcome{
		CompanyID:  c.ID,
		Rating:     c.Rating.Final,
		Negative:   c.Cash < 0,
		Distressed: distressed,
	}

	if c.Issued {
		// Book value follows equity; a company under water keeps its last
		// positive book so the floor stays meaningful.
		if eq := c.Equity(); eq > 0 && c.Shares > 0 {
			c.Price.BookValuePerShare = eq / c.Shares
		}
		est := valuation.Estimator{Phase: phase, Prestige: c.Prestige, Trend: c.Trend}
		expected := est.Expected(snap, c.Previous)
		actual := snap.Actuals()
		next, adj := valuation.Adjust(c.Price, actual, expected)
		c.Price = next
		c.Trend = c.Trend.Ratchet(actual, expected)
		c.Expected = expected
		c.LastAdjustment = &adj
		out.Floored = adj.Floored
	}
	out.Price = c.Price.Price
	prev := snap
	c.Previous = &prev

	out.Valuation = ValuationRecord{
		CompanyID:    c.ID,
		Week:         week,
		Phase:        phase,
		Price:        c.Price.Price,
		Book:         c.Price.BookValuePerShare,
		CreditRating: c.Rating.Final,
		Floored:      out.Floored,
		Adjustment:   c.LastAdjustment,
	}
	return out
}

func (c *Company) view() CompanyView {
	v := CompanyView{
		ID:              c.ID,
		Name:            c.Name,
		FoundedWeek:     c.FoundedWeek,
		CashMicros:      EurosToMicros(c.Cash),
		FixedAssets:     EurosToMicros(c.FixedAssets),
		DebtMicros:      EurosToMicros(c.Loans.Outstanding()),
		Prestige:        c.Prestige,
		SharesUnits:     SharesToUnits(c.Shares),
		Issued:          c.Issued,
		PriceMicros:     EurosToMicros(c.Price.Price),
		BookMicros:      EurosToMicros(c.Price.BookValuePerShare),
		CreditRating:    c.Rating,
		WeeksNegative:   c.WeeksNegative,
		WindowWeeks:     len(c.Records),
		Loans:           append([]finance.Loan(nil), c.Loans.Loans...),
		PaymentHistory:  c.Loans.PaymentHistory(),
		Expected:        c.Expected.Clone(),
		LastAdjustment:  c.LastAdjustment,
		FixedAssetRatio: c.FixedAssetRatio(),
	}
	if c.Previous != nil {
		v.Actual = c.Previous.Actuals()
	}
	return v
}

// clone deep-copies the company so it can be persisted outside the lock.
func (c *Company) clone() *Company {
	out := *c
	out.Records = append([]valuation.WeeklyRecord(nil), c.Records...)
	out.Trend = make(valuation.GrowthTrend, len(c.Trend))
	for k, v := range c.Trend {
		out.Trend[k] = v
	}
	if c.Previous != nil {
		p := *c.Previous
		out.Previous = &p
	}
	out.Loans.Loans = append([]finance.Loan(nil), c.Loans.Loans...)
	out.Expected = c.Expected.Clone()
	if c.LastAdjustment != nil {
		a := *c.LastAdjustment
		a.Deltas = c.LastAdjustment.Deltas.Clone()
		a.Contributions = c.LastAdjustment.Contributions.Clone()
		out.LastAdjustment = &a
	}
	return &out
}

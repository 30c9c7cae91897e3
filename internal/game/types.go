package game

import (
	"github.com/google/uuid"

	"winery/internal/appstate"
	"winery/internal/credit"
	"winery/internal/economy"
	"winery/internal/finance"
	"winery/internal/valuation"
)

type EconomyView struct {
	Date        economy.Date        `json:"date"`
	Phase       economy.Phase       `json:"phase"`
	Multipliers economy.Multipliers `json:"multipliers"`
}

type CompanyView struct {
	ID              uuid.UUID              `json:"id"`
	Name            string                 `json:"name"`
	FoundedWeek     int                    `json:"founded_week"`
	CashMicros      int64                  `json:"cash_micros"`
	FixedAssets     int64                  `json:"fixed_assets_micros"`
	DebtMicros      int64                  `json:"debt_micros"`
	Prestige        float64                `json:"prestige"`
	SharesUnits     int64                  `json:"shares_units"`
	Issued          bool                   `json:"issued"`
	PriceMicros     int64                  `json:"price_micros"`
	BookMicros      int64                  `json:"book_value_micros"`
	CreditRating    credit.Rating          `json:"credit_rating"`
	WeeksNegative   int                    `json:"weeks_negative"`
	WindowWeeks     int                    `json:"window_weeks"`
	FixedAssetRatio float64                `json:"fixed_asset_ratio"`
	Loans           []finance.Loan         `json:"loans"`
	PaymentHistory  finance.PaymentHistory `json:"payment_history"`
	Actual          valuation.Values       `json:"actual,omitempty"`
	Expected        valuation.Values       `json:"expected,omitempty"`
	LastAdjustment  *valuation.Adjustment  `json:"last_adjustment,omitempty"`
}

type CompanySummary struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	PriceMicros  int64     `json:"price_micros"`
	CreditRating float64   `json:"credit_rating"`
	Issued       bool      `json:"issued"`
}

type WeekReport struct {
	Date           economy.Date               `json:"date"`
	Phase          economy.Phase              `json:"phase"`
	PreviousPhase  economy.Phase              `json:"previous_phase"`
	SeasonBoundary bool                       `json:"season_boundary"`
	Companies      []CompanySummary           `json:"companies"`
	Warnings       []appstate.Warning         `json:"warnings"`
	Decisions      []appstate.PendingDecision `json:"decisions"`
}

type CreateCompanyInput struct {
	Name        string  `json:"name"`
	FoundedWeek *int    `json:"founded_week,omitempty"`
	Cash        float64 `json:"cash,omitempty"`
}

// WeeklyInput is one batch of financial figures for the open week.
// Figures from repeated calls in the same week accumulate.
type WeeklyInput struct {
	Revenue     float64  `json:"revenue"`
	Expenses    float64  `json:"expenses"`
	Dividends   float64  `json:"dividends"`
	FixedAssets *float64 `json:"fixed_assets,omitempty"`
	Prestige    *float64 `json:"prestige,omitempty"`
}

type LoanInput struct {
	Amount    float64 `json:"amount"`
	TermWeeks int     `json:"term_weeks"`
}

type LoanQuote struct {
	Amount      float64       `json:"amount"`
	TermWeeks   int           `json:"term_weeks"`
	AnnualRate  float64       `json:"annual_rate"`
	Installment float64       `json:"installment"`
	Phase       economy.Phase `json:"phase"`
}

type RepayResult struct {
	Repaid          float64 `json:"repaid"`
	OutstandingDebt float64 `json:"outstanding_debt"`
	Cash            float64 `json:"cash"`
}

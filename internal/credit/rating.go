// Package credit scores a company's creditworthiness in [0,1].
package credit

import "math"

// Top-level weights.
const (
	BaseRating           = 0.50
	AssetHealthWeight    = 0.20
	PaymentHistoryWeight = 0.15
	StabilityWeight      = 0.10
	MaxNegativePenalty   = 0.30
	NegativePenaltyWeeks = 15.0
	MaxRating            = 1.0
)

// Asset health weights.
const (
	DebtToAssetWeight   = 0.40
	AssetCoverageWeight = 0.30
	LiquidityWeight     = 0.25
	FixedAssetWeight    = 0.05
)

// Payment history weights. Missed payments subtract.
const (
	OnTimeWeight = 0.50
	PayoffWeight = 0.30
	MissedWeight = 0.20
)

// Company stability weights.
const (
	AgeWeight               = 0.50
	ProfitConsistencyWeight = 0.30
	ExpenseEfficiencyWeight = 0.20
)

const (
	matureAgeWeeks     = 240.0
	missedForZeroScore = 5.0
	liquidityHorizon   = 4.0
	neutralScore       = 0.5
)

// Inputs are the raw figures the scorer reads. Money is in euros.
type Inputs struct {
	TotalAssets       float64
	FixedAssets       float64
	Cash              float64
	TotalDebt         float64
	WeeklyExpenses    float64
	Revenue           float64
	Expenses          float64
	OnTimePayments    int
	MissedPayments    int
	LoansPaidOff      int
	ActiveLoans       int
	AgeWeeks          int
	ProfitConsistency float64
	WeeksNegative     int
}

type Components struct {
	AssetHealth      float64 `json:"asset_health"`
	PaymentHistory   float64 `json:"payment_history"`
	CompanyStability float64 `json:"company_stability"`
}

type Rating struct {
	Components
	NegativeBalancePenalty float64 `json:"negative_balance_penalty"`
	Final                  float64 `json:"final"`
}

// Score derives the components from raw inputs and combines them.
func Score(in Inputs) Rating {
	return Combine(ComponentsFrom(in), in.WeeksNegative)
}

// Combine applies the fixed weights to already-normalized components.
func Combine(c Components, weeksNegative int) Rating {
	penalty := NegativeBalancePenalty(weeksNegative)
	final := BaseRating +
		AssetHealthWeight*clamp01(c.AssetHealth) +
		PaymentHistoryWeight*clamp01(c.PaymentHistory) +
		StabilityWeight*clamp01(c.CompanyStability) -
		penalty
	return Rating{
		Components:             c,
		NegativeBalancePenalty: penalty,
		Final:                  clamp01(final),
	}
}

func NegativeBalancePenalty(weeksNegative int) float64 {
	if weeksNegative <= 0 {
		return 0
	}
	return math.Min(float64(weeksNegative)/NegativePenaltyWeeks, 1) * MaxNegativePenalty
}

func ComponentsFrom(in Inputs) Components {
	return Components{
		AssetHealth:      AssetHealth(in),
		PaymentHistory:   PaymentHistory(in),
		CompanyStability: CompanyStability(in),
	}
}

func AssetHealth(in Inputs) float64 {
	v := DebtToAssetWeight*debtToAssetScore(in.TotalDebt, in.TotalAssets) +
		AssetCoverageWeight*assetCoverageScore(in.TotalAssets, in.TotalDebt) +
		LiquidityWeight*liquidityScore(in.Cash, in.WeeklyExpenses) +
		FixedAssetWeight*fixedAssetScore(in.FixedAssets, in.TotalAssets)
	return clamp01(v)
}

func PaymentHistory(in Inputs) float64 {
	v := OnTimeWeight*onTimeScore(in.OnTimePayments, in.MissedPayments) +
		PayoffWeight*payoffScore(in.LoansPaidOff, in.ActiveLoans) -
		MissedWeight*missedScore(in.MissedPayments)
	return clamp01(v)
}

func CompanyStability(in Inputs) float64 {
	v := AgeWeight*ageScore(in.AgeWeeks) +
		ProfitConsistencyWeight*clamp01(in.ProfitConsistency) +
		ExpenseEfficiencyWeight*expenseEfficiencyScore(in.Revenue, in.Expenses)
	return clamp01(v)
}

func debtToAssetScore(debt, assets float64) float64 {
	if assets <= 0 {
		if debt <= 0 {
			return 1
		}
		return 0
	}
	ratio := debt / assets
	switch {
	case ratio <= 0.2:
		return 1
	case ratio >= 1.0:
		return 0
	default:
		return 1 - (ratio-0.2)/0.8
	}
}

func assetCoverageScore(assets, debt float64) float64 {
	if debt <= 0 {
		return 1
	}
	c := math.Max(assets, 0) / debt
	switch {
	case c >= 5.0:
		return 1
	case c >= 3.0:
		return 0.7 + 0.3*(c-3)/2
	default:
		return 0.7 * c / 3
	}
}

func liquidityScore(cash, weeklyExpenses float64) float64 {
	if weeklyExpenses <= 0 {
		return 1
	}
	ratio := math.Max(cash, 0) / (weeklyExpenses * liquidityHorizon)
	if ratio >= 2 {
		return 1
	}
	return ratio / 2
}

func fixedAssetScore(fixed, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return clamp01((fixed / total) / 0.5)
}

func onTimeScore(onTime, missed int) float64 {
	total := onTime + missed
	if total <= 0 {
		return neutralScore
	}
	return float64(onTime) / float64(total)
}

func payoffScore(paidOff, active int) float64 {
	total := paidOff + active
	if total <= 0 {
		return neutralScore
	}
	return float64(paidOff) / float64(total)
}

func missedScore(missed int) float64 {
	if missed <= 0 {
		return 0
	}
	return math.Min(float64(missed)/missedForZeroScore, 1)
}

func ageScore(weeks int) float64 {
	if weeks <= 0 {
		return 0
	}
	return math.Min(float64(weeks)/matureAgeWeeks, 1)
}

func expenseEfficiencyScore(revenue, expenses float64) float64 {
	if expenses <= 0 {
		if revenue > 0 {
			return 1
		}
		return neutralScore
	}
	r := revenue / expenses
	switch {
	case r >= 1.5:
		return 1
	case r <= 0.5:
		return 0
	default:
		return r - 0.5
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > MaxRating {
		return MaxRating
	}
	return v
}

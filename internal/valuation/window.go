package valuation

// WindowWeeks is the length of the rolling metrics window.
const WindowWeeks = 48

type WeeklyRecord struct {
	Week      int     `json:"week"`
	Revenue   float64 `json:"revenue"`
	Expenses  float64 `json:"expenses"`
	Earnings  float64 `json:"earnings"`
	Dividends float64 `json:"dividends"`
}

// Window keeps the most recent WindowWeeks weekly records, oldest first.
// The zero value is an empty window.
type Window struct {
	records []WeeklyRecord
}

func NewWindow(records []WeeklyRecord) *Window {
	w := &Window{}
	for _, r := range records {
		w.Push(r)
	}
	return w
}

func (w *Window) Push(r WeeklyRecord) {
	w.records = append(w.records, r)
	if over := len(w.records) - WindowWeeks; over > 0 {
		w.records = append(w.records[:0:0], w.records[over:]...)
	}
}

func (w *Window) Len() int {
	return len(w.records)
}

func (w *Window) Records() []WeeklyRecord {
	out := make([]WeeklyRecord, len(w.records))
	copy(out, w.records)
	return out
}

// Latest returns the newest record, if any.
func (w *Window) Latest() (WeeklyRecord, bool) {
	if len(w.records) == 0 {
		return WeeklyRecord{}, false
	}
	return w.records[len(w.records)-1], true
}

// SnapshotInput carries the point-in-time values that are not part of the
// weekly records.
type SnapshotInput struct {
	Shares          float64
	CreditRating    float64
	FixedAssetRatio float64
	Prestige        float64
}

// Snapshot is an immutable summary of a window for one period.
type Snapshot struct {
	Weeks             int     `json:"weeks"`
	Shares            float64 `json:"shares"`
	Revenue           float64 `json:"revenue"`
	Expenses          float64 `json:"expenses"`
	Earnings          float64 `json:"earnings"`
	Dividends         float64 `json:"dividends"`
	ProfitMargin      float64 `json:"profit_margin"`
	RevenueGrowth     float64 `json:"revenue_growth"`
	ProfitConsistency float64 `json:"profit_consistency"`
	CreditRating      float64 `json:"credit_rating"`
	FixedAssetRatio   float64 `json:"fixed_asset_ratio"`
	Prestige          float64 `json:"prestige"`
}

func (w *Window) Snapshot(in SnapshotInput) Snapshot {
	s := Snapshot{
		Weeks:           len(w.records),
		Shares:          in.Shares,
		CreditRating:    in.CreditRating,
		FixedAssetRatio: in.FixedAssetRatio,
		Prestige:        in.Prestige,
	}
	profitable := 0
	for _, r := range w.records {
		s.Revenue += r.Revenue
		s.Expenses += r.Expenses
		s.Earnings += r.Earnings
		s.Dividends += r.Dividends
		if r.Earnings > 0 {
			profitable++
		}
	}
	if s.Revenue != 0 {
		s.ProfitMargin = s.Earnings / s.Revenue
	}
	if s.Weeks > 0 {
		s.ProfitConsistency = float64(profitable) / float64(s.Weeks)
	}
	s.RevenueGrowth = revenueGrowth(w.records)
	return s
}

// revenueGrowth compares the newest half of the window (at most 24 weeks)
// with the half before it.
func revenueGrowth(records []WeeklyRecord) float64 {
	half := len(records) / 2
	if half > WindowWeeks/2 {
		half = WindowWeeks / 2
	}
	if half == 0 {
		return 0
	}
	var recent, prior float64
	n := len(records)
	for _, r := range records[n-half:] {
		recent += r.Revenue
	}
	for _, r := range records[n-2*half : n-half] {
		prior += r.Revenue
	}
	if prior == 0 {
		return 0
	}
	return (recent - prior) / prior
}

// EPS is average weekly earnings per share over the window.
func (s Snapshot) EPS() float64 {
	return s.perSharePerWeek(s.Earnings)
}

func (s Snapshot) RevenuePerShare() float64 {
	return s.perSharePerWeek(s.Revenue)
}

func (s Snapshot) DividendPerShare() float64 {
	return s.perSharePerWeek(s.Dividends)
}

func (s Snapshot) perSharePerWeek(total float64) float64 {
	if s.Shares <= 0 || s.Weeks == 0 {
		return 0
	}
	return total / float64(s.Weeks) / s.Shares
}

// Actuals maps the snapshot onto the tracked metrics.
func (s Snapshot) Actuals() Values {
	return Values{
		MetricEPS:              s.EPS(),
		MetricRevenuePerShare:  s.RevenuePerShare(),
		MetricDividendPerShare: s.DividendPerShare(),
		MetricRevenueGrowth:    s.RevenueGrowth,
		MetricProfitMargin:     s.ProfitMargin,
		MetricCreditRating:     s.CreditRating,
		MetricFixedAssetRatio:  s.FixedAssetRatio,
		MetricPrestige:         s.Prestige,
	}
}

package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	mathrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"winery/internal/appstate"
	"winery/internal/economy"
	"winery/internal/finance"
	"winery/internal/metrics"
)

const (
	WarningNegativeBalance = "negative_balance"
	WarningLowCredit       = "low_credit"
	WarningPriceFloor      = "price_floor"

	// WarningsModal is the modal whose minimized flag mutes warning toasts.
	WarningsModal = "warnings"
)

type Options struct {
	StartingPhase economy.Phase
	Seed          int64
	Workers       int
	BaseLoanRate  float64
	ToastTTL      time.Duration
	Now           func() time.Time
}

func (o Options) withDefaults() Options {
	if !o.StartingPhase.Valid() {
		o.StartingPhase = economy.StartingPhase
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
	if o.Workers < 1 {
		o.Workers = 4
	}
	if o.BaseLoanRate <= 0 {
		o.BaseLoanRate = 0.08
	}
	if o.ToastTTL <= 0 {
		o.ToastTTL = 5 * time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type lockedRand struct {
	mu sync.Mutex
	r  *mathrand.Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// Service owns the session: calendar, economy phase and every company.
// In-memory state is authoritative; the store is written after each
// change and a failed write is logged, never surfaced to the caller.
type Service struct {
	store   Store
	log     *slog.Logger
	state   *appstate.Store
	economy *economy.Machine
	opts    Options

	mu        sync.Mutex
	date      economy.Date
	companies map[uuid.UUID]*Company
	order     []uuid.UUID
}

func NewService(store Store, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.withDefaults()
	rnd := &lockedRand{r: mathrand.New(mathrand.NewSource(opts.Seed))}
	s := &Service{
		store:     store,
		log:       logger,
		state:     appstate.NewStore(),
		economy:   economy.NewMachine(opts.StartingPhase, rnd),
		opts:      opts,
		date:      economy.StartDate(),
		companies: map[uuid.UUID]*Company{},
	}
	s.state.Subscribe(func(e appstate.Event, _ appstate.State) {
		logger.Debug("app state event", "event", appstate.EventName(e))
	})
	return s
}

// State exposes the session's application state for subscribers.
func (s *Service) State() *appstate.Store {
	return s.state
}

// Load restores the calendar, phase and companies from the store. A store
// with no economy row leaves the starting values in place.
func (s *Service) Load(ctx context.Context) error {
	rec, ok, err := s.store.LoadEconomy(ctx)
	if err != nil {
		return fmt.Errorf("load economy: %w", err)
	}
	companies, err := s.store.LoadCompanies(ctx)
	if err != nil {
		return fmt.Errorf("load companies: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ok {
		if err := s.economy.Restore(rec.Phase); err != nil {
			return err
		}
		s.date = rec.Date
	}
	for _, c := range companies {
		if _, exists := s.companies[c.ID]; exists {
			continue
		}
		s.companies[c.ID] = c
		s.order = append(s.order, c.ID)
	}
	s.log.Info("session loaded", "date", s.date.String(), "phase", s.economy.Phase(), "companies", len(s.order))
	return nil
}

func (s *Service) Economy() EconomyView {
	s.mu.Lock()
	date := s.date
	s.mu.Unlock()
	phase := s.economy.Phase()
	return EconomyView{Date: date, Phase: phase, Multipliers: phase.Multipliers()}
}

func (s *Service) CreateCompany(ctx context.Context, in CreateCompanyInput) (CompanyView, error) {
	if err := validateCompanyName(in.Name); err != nil {
		return CompanyView{}, err
	}
	if in.Cash < 0 || !finite(in.Cash) {
		return CompanyView{}, fmt.Errorf("cash must be >= 0: %w", ErrInvalidInput)
	}
	cash := in.Cash
	if cash == 0 {
		cash = StartingCash
	}

	s.mu.Lock()
	founded := s.date.AbsoluteWeek()
	if in.FoundedWeek != nil {
		if *in.FoundedWeek < 1 || *in.FoundedWeek > founded {
			s.mu.Unlock()
			return CompanyView{}, fmt.Errorf("founded_week must be between 1 and %d: %w", founded, ErrInvalidInput)
		}
		founded = *in.FoundedWeek
	}
	c := newCompany(uuid.New(), strings.TrimSpace(in.Name), founded, cash)
	s.companies[c.ID] = c
	s.order = append(s.order, c.ID)
	view := c.view()
	saved := c.clone()
	s.mu.Unlock()

	s.persistCompany(ctx, saved)
	s.log.Info("company created", "company_id", c.ID, "name", c.Name)
	return view, nil
}

func (s *Service) Company(id uuid.UUID) (CompanyView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.companies[id]
	if !ok {
		return CompanyView{}, fmt.Errorf("%s: %w", id, ErrCompanyNotFound)
	}
	return c.view(), nil
}

func (s *Service) Companies() []CompanySummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CompanySummary, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, summarize(s.companies[id]))
	}
	return out
}

func (s *Service) IssueShares(ctx context.Context, id uuid.UUID, shares float64) (CompanyView, error) {
	return s.mutate(ctx, id, func(c *Company) error {
		return c.issue(shares)
	})
}

func (s *Service) RecordWeek(ctx context.Context, id uuid.UUID, in WeeklyInput) (CompanyView, error) {
	if err := validateWeeklyInput(in); err != nil {
		return CompanyView{}, err
	}
	return s.mutate(ctx, id, func(c *Company) error {
		c.record(in)
		return nil
	})
}

// QuoteLoan prices a loan for the company at the current phase and rating.
func (s *Service) QuoteLoan(id uuid.UUID, in LoanInput) (LoanQuote, error) {
	in, err := normalizeLoanInput(in)
	if err != nil {
		return LoanQuote{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.companies[id]
	if !ok {
		return LoanQuote{}, fmt.Errorf("%s: %w", id, ErrCompanyNotFound)
	}
	return s.quote(c, in), nil
}

func (s *Service) quote(c *Company, in LoanInput) LoanQuote {
	phase := s.economy.Phase()
	rate := finance.EffectiveRate(s.opts.BaseLoanRate, phase, c.Rating.Final)
	return LoanQuote{
		Amount:      in.Amount,
		TermWeeks:   in.TermWeeks,
		AnnualRate:  rate,
		Installment: finance.WeeklyInstallment(in.Amount, rate, in.TermWeeks),
		Phase:       phase,
	}
}

func (s *Service) TakeLoan(ctx context.Context, id uuid.UUID, in LoanInput) (finance.Loan, error) {
	in, err := normalizeLoanInput(in)
	if err != nil {
		return finance.Loan{}, err
	}
	var loan finance.Loan
	_, err = s.mutate(ctx, id, func(c *Company) error {
		l, err := s.takeLoan(c, in)
		loan = l
		return err
	})
	return loan, err
}

func (s *Service) takeLoan(c *Company, in LoanInput) (finance.Loan, error) {
	q := s.quote(c, in)
	l, err := c.Loans.Take(uuid.NewString(), q.Amount, q.AnnualRate, q.TermWeeks, s.date.AbsoluteWeek())
	if err != nil {
		return finance.Loan{}, fmt.Errorf("take loan: %w", err)
	}
	c.Cash += l.Principal
	return l, nil
}

func (s *Service) RepayLoan(ctx context.Context, id uuid.UUID, amount float64) (RepayResult, error) {
	var out RepayResult
	_, err := s.mutate(ctx, id, func(c *Company) error {
		if amount > c.Cash {
			return fmt.Errorf("insufficient cash: %w", ErrInvalidInput)
		}
		repaid, err := c.Loans.Pay(amount)
		if err != nil {
			return err
		}
		c.Cash -= repaid
		out = RepayResult{Repaid: repaid, OutstandingDebt: c.Loans.Outstanding(), Cash: c.Cash}
		return nil
	})
	return out, err
}

// mutate runs fn on the company under the service lock and persists the
// result when fn succeeds.
func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(*Company) error) (CompanyView, error) {
	s.mu.Lock()
	c, ok := s.companies[id]
	if !ok {
		s.mu.Unlock()
		return CompanyView{}, fmt.Errorf("%s: %w", id, ErrCompanyNotFound)
	}
	if err := fn(c); err != nil {
		s.mu.Unlock()
		return CompanyView{}, err
	}
	view := c.view()
	saved := c.clone()
	s.mu.Unlock()

	s.persistCompany(ctx, saved)
	return view, nil
}

// AdvanceWeek closes the current week for every company, moves the
// calendar forward and, on a season boundary, draws the next phase.
func (s *Service) AdvanceWeek(ctx context.Context) (WeekReport, error) {
	if err := ctx.Err(); err != nil {
		return WeekReport{}, err
	}
	started := time.Now()

	s.mu.Lock()
	closing := s.date
	phase := s.economy.Phase()
	companies := make([]*Company, 0, len(s.order))
	for _, id := range s.order {
		companies = append(companies, s.companies[id])
	}

	outcomes := make([]weekOutcome, len(companies))
	var g errgroup.Group
	g.SetLimit(s.opts.Workers)
	for i, c := range companies {
		i, c := i, c
		g.Go(func() error {
			outcomes[i] = c.closeWeek(closing, phase)
			return nil
		})
	}
	_ = g.Wait()

	next, boundary := closing.Next()
	s.date = next
	report := WeekReport{Date: next, Phase: phase, PreviousPhase: phase, SeasonBoundary: boundary}
	if boundary {
		from, to := s.economy.Transition()
		report.PreviousPhase, report.Phase = from, to
		metrics.PhaseTransitions.WithLabelValues(string(from), string(to)).Inc()
		s.log.Info("economy phase drawn", "from", from, "to", to, "season", next.Season, "year", next.Year)
	}

	saved := make([]*Company, len(companies))
	for i, c := range companies {
		saved[i] = c.clone()
		report.Companies = append(report.Companies, summarize(c))
	}
	s.mu.Unlock()

	for i, out := range outcomes {
		ws, ds := s.raiseAlerts(saved[i], out)
		report.Warnings = append(report.Warnings, ws...)
		report.Decisions = append(report.Decisions, ds...)

		status := "ok"
		if out.Floored {
			status = "floored"
		}
		metrics.CompanyValuations.WithLabelValues(status).Inc()
		metrics.CreditRating.WithLabelValues(out.CompanyID.String()).Set(out.Rating)
		if saved[i].Issued {
			metrics.SharePrice.WithLabelValues(out.CompanyID.String()).Set(out.Price)
		}
	}

	s.persistEconomy(ctx, EconomyRecord{Date: next, Phase: report.Phase})
	for i, c := range saved {
		if s.persistCompany(ctx, c) {
			s.persistValuation(ctx, outcomes[i].Valuation)
		}
	}

	metrics.WeeksAdvanced.Inc()
	metrics.ValuationDuration.Observe(time.Since(started).Seconds())
	s.log.Info("week advanced",
		"closed", closing.String(),
		"date", next.String(),
		"phase", report.Phase,
		"companies", len(companies),
		"warnings", len(report.Warnings),
		"decisions", len(report.Decisions),
	)
	return report, nil
}

func (s *Service) raiseAlerts(c *Company, out weekOutcome) ([]appstate.Warning, []appstate.PendingDecision) {
	now := s.opts.Now()
	var warnings []appstate.Warning
	raise := func(kind string, level appstate.Level, msg string) {
		if s.hasOpenWarning(c.ID, kind) {
			return
		}
		w := appstate.Warning{
			ID:        uuid.New(),
			CompanyID: c.ID,
			Kind:      kind,
			Message:   msg,
			RaisedAt:  now,
		}
		if err := s.state.Dispatch(appstate.WarningRaised{Warning: w}); err != nil {
			s.log.Error("raise warning failed", "company_id", c.ID, "kind", kind, "error", err)
			return
		}
		s.showToast(w, level, now)
		warnings = append(warnings, w)
	}

	if out.Negative {
		raise(WarningNegativeBalance, appstate.LevelDanger,
			fmt.Sprintf("%s has been below zero cash for %d week(s)", c.Name, c.WeeksNegative))
	}
	if out.Rating < LowCreditRating {
		raise(WarningLowCredit, appstate.LevelWarning,
			fmt.Sprintf("%s credit rating fell to %.0f%%", c.Name, out.Rating*100))
	}
	if out.Floored {
		raise(WarningPriceFloor, appstate.LevelWarning,
			fmt.Sprintf("%s share price is held at the book value floor", c.Name))
	}

	var decisions []appstate.PendingDecision
	offer := func(d appstate.Decision) {
		p := appstate.PendingDecision{
			ID:        uuid.New(),
			CompanyID: c.ID,
			Decision:  appstate.Envelope{Decision: d},
			RaisedAt:  now,
		}
		if err := s.state.Dispatch(appstate.DecisionRaised{Pending: p}); err != nil {
			s.log.Error("raise decision failed", "company_id", c.ID, "type", d.DecisionType(), "error", err)
			return
		}
		decisions = append(decisions, p)
	}
	for _, loanID := range out.Distressed {
		offer(appstate.ForcedLoanRestructure{
			OfferID:   uuid.NewString(),
			LoanID:    loanID,
			TermWeeks: restructureTerm(c, loanID),
		})
	}
	if out.Negative && !s.hasPendingDecision(c.ID, appstate.TypeLoanOffer) {
		offer(appstate.LoanOffer{
			OfferID:   uuid.NewString(),
			Amount:    emergencyLoanAmount(c.Cash),
			TermWeeks: DefaultLoanTermWeeks,
		})
	}
	return warnings, decisions
}

func (s *Service) hasPendingDecision(companyID uuid.UUID, typ string) bool {
	for _, p := range s.state.Pending(companyID) {
		if p.Decision.Decision != nil && p.Decision.Decision.DecisionType() == typ {
			return true
		}
	}
	return false
}

func (s *Service) hasOpenWarning(companyID uuid.UUID, kind string) bool {
	for _, w := range s.state.Unacknowledged(companyID) {
		if w.Kind == kind {
			return true
		}
	}
	return false
}

func (s *Service) showToast(w appstate.Warning, level appstate.Level, now time.Time) {
	if s.state.Snapshot().Minimized[WarningsModal] {
		return
	}
	t := appstate.Toast{
		ID:        uuid.New(),
		WarningID: w.ID,
		Level:     level,
		Message:   w.Message,
		ExpiresAt: now.Add(s.opts.ToastTTL),
	}
	if err := s.state.Dispatch(appstate.ToastShown{Toast: t}); err != nil {
		s.log.Error("show toast failed", "warning_id", w.ID, "error", err)
	}
}

// ExpireToasts drops toasts that have outlived their TTL. The toast
// refresh poll calls it.
func (s *Service) ExpireToasts(context.Context) {
	if err := s.state.Dispatch(appstate.ToastsExpired{Now: s.opts.Now()}); err != nil {
		s.log.Error("expire toasts failed", "error", err)
	}
}

// CheckWarnings re-shows a toast for every unacknowledged warning that no
// longer has one. The warning poll calls it.
func (s *Service) CheckWarnings(context.Context) {
	now := s.opts.Now()
	for _, w := range s.state.Unacknowledged(uuid.Nil) {
		if s.state.HasToastFor(w.ID) {
			continue
		}
		level := appstate.LevelWarning
		if w.Kind == WarningNegativeBalance {
			level = appstate.LevelDanger
		}
		s.showToast(w, level, now)
	}
}

func (s *Service) Warnings(id uuid.UUID) ([]appstate.Warning, error) {
	if err := s.ensureCompany(id); err != nil {
		return nil, err
	}
	return s.state.Unacknowledged(id), nil
}

func (s *Service) AcknowledgeWarning(id, warningID uuid.UUID) error {
	if err := s.ensureCompany(id); err != nil {
		return err
	}
	for _, w := range s.state.Unacknowledged(id) {
		if w.ID == warningID {
			return s.state.Dispatch(appstate.WarningAcknowledged{ID: warningID})
		}
	}
	return fmt.Errorf("%s: %w", warningID, appstate.ErrWarningNotFound)
}

func (s *Service) Decisions(id uuid.UUID) ([]appstate.PendingDecision, error) {
	if err := s.ensureCompany(id); err != nil {
		return nil, err
	}
	return s.state.Pending(id), nil
}

// SetModalMinimized records whether a modal is minimized for the session.
func (s *Service) SetModalMinimized(name string, minimized bool) error {
	if name == "" {
		return fmt.Errorf("modal name is required: %w", ErrInvalidInput)
	}
	if minimized {
		return s.state.Dispatch(appstate.ModalMinimized{Name: name})
	}
	return s.state.Dispatch(appstate.ModalRestored{Name: name})
}

// ApplyDecision answers a pending decision of the company. d is matched to
// the pending decision by type and offer id; the pending payload is what
// gets applied, never the caller's.
func (s *Service) ApplyDecision(ctx context.Context, id uuid.UUID, d appstate.Decision) (CompanyView, error) {
	if d == nil {
		return CompanyView{}, fmt.Errorf("decision is required: %w", ErrInvalidInput)
	}
	if err := s.ensureCompany(id); err != nil {
		return CompanyView{}, err
	}
	pending, err := s.state.Match(id, d)
	if err != nil {
		return CompanyView{}, fmt.Errorf("%s: %w", d.DecisionType(), err)
	}
	return s.ResolveDecision(ctx, id, pending.ID)
}

// ResolveDecision claims a pending decision and applies it. A failed apply
// puts the decision back so the player can try again.
func (s *Service) ResolveDecision(ctx context.Context, id, decisionID uuid.UUID) (CompanyView, error) {
	pending, err := s.state.Take(decisionID, id)
	if errors.Is(err, appstate.ErrDecisionOwner) {
		return CompanyView{}, ErrDecisionCompany
	}
	if err != nil {
		return CompanyView{}, fmt.Errorf("%s: %w", decisionID, err)
	}
	view, err := s.mutate(ctx, id, func(c *Company) error {
		return s.applyDecision(c, pending.Decision.Decision)
	})
	if err != nil {
		if rerr := s.state.Dispatch(appstate.DecisionRaised{Pending: pending}); rerr != nil {
			s.log.Error("re-raise decision failed", "decision_id", decisionID, "error", rerr)
		}
		return CompanyView{}, err
	}
	return view, nil
}

func (s *Service) applyDecision(c *Company, d appstate.Decision) error {
	switch v := d.(type) {
	case appstate.ForcedLoanRestructure:
		if _, err := c.Loans.Restructure(v.LoanID, v.TermWeeks); err != nil {
			return fmt.Errorf("restructure loan: %w", err)
		}
		return nil
	case appstate.LoanOffer:
		in, err := normalizeLoanInput(LoanInput{Amount: v.Amount, TermWeeks: v.TermWeeks})
		if err != nil {
			return err
		}
		_, err = s.takeLoan(c, in)
		return err
	case appstate.ShareIssuance:
		return c.issue(v.Shares)
	default:
		return fmt.Errorf("%T: %w", d, ErrUnhandledDecision)
	}
}

func (s *Service) ensureCompany(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[id]; !ok {
		return fmt.Errorf("%s: %w", id, ErrCompanyNotFound)
	}
	return nil
}

func (s *Service) persistCompany(ctx context.Context, c *Company) bool {
	if err := s.store.SaveCompany(ctx, c); err != nil {
		metrics.PersistenceFailures.WithLabelValues("save_company").Inc()
		s.log.Error("persist company failed", "company_id", c.ID, "error", err)
		return false
	}
	return true
}

func (s *Service) persistValuation(ctx context.Context, rec ValuationRecord) {
	if err := s.store.SaveValuation(ctx, rec); err != nil {
		metrics.PersistenceFailures.WithLabelValues("save_valuation").Inc()
		s.log.Error("persist valuation failed", "company_id", rec.CompanyID, "week", rec.Week, "error", err)
	}
}

func (s *Service) persistEconomy(ctx context.Context, rec EconomyRecord) {
	if err := s.store.SaveEconomy(ctx, rec); err != nil {
		metrics.PersistenceFailures.WithLabelValues("save_economy").Inc()
		s.log.Error("persist economy failed", "date", rec.Date.String(), "error", err)
	}
}

func summarize(c *Company) CompanySummary {
	return CompanySummary{
		ID:           c.ID,
		Name:         c.Name,
		PriceMicros:  EurosToMicros(c.Price.Price),
		CreditRating: c.Rating.Final,
		Issued:       c.Issued,
	}
}

// emergencyLoanAmount covers the overdraft with a 25% cushion, rounded up
// to the next thousand.
func emergencyLoanAmount(cash float64) float64 {
	if cash >= 0 {
		return 1000
	}
	return math.Ceil(-cash*1.25/1000) * 1000
}

// restructureTerm doubles the loan's original term.
func restructureTerm(c *Company, loanID string) int {
	for _, l := range c.Loans.Loans {
		if l.ID == loanID {
			return l.TermWeeks * 2
		}
	}
	return DefaultLoanTermWeeks
}

func validateWeeklyInput(in WeeklyInput) error {
	for _, v := range []float64{in.Revenue, in.Expenses, in.Dividends} {
		if v < 0 || !finite(v) {
			return fmt.Errorf("revenue, expenses and dividends must be finite and >= 0: %w", ErrInvalidInput)
		}
	}
	for _, p := range []*float64{in.FixedAssets, in.Prestige} {
		if p != nil && !finite(*p) {
			return fmt.Errorf("fixed_assets and prestige must be finite: %w", ErrInvalidInput)
		}
	}
	return nil
}

func normalizeLoanInput(in LoanInput) (LoanInput, error) {
	if in.Amount <= 0 || !finite(in.Amount) {
		return in, fmt.Errorf("amount must be > 0: %w", ErrInvalidInput)
	}
	if in.TermWeeks < 0 {
		return in, fmt.Errorf("term_weeks must be > 0: %w", ErrInvalidInput)
	}
	if in.TermWeeks == 0 {
		in.TermWeeks = DefaultLoanTermWeeks
	}
	return in, nil
}

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"winery/internal/activity"
	"winery/internal/appstate"
	"winery/internal/config"
	"winery/internal/finance"
	"winery/internal/game"
	"winery/internal/metrics"
	"winery/internal/valuation"
	"winery/internal/wine"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type Server struct {
	cfg  config.APIConfig
	log  *slog.Logger
	game *game.Service
	mux  *chi.Mux
}

func New(cfg config.APIConfig, logger *slog.Logger, gameSvc *game.Service) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:  cfg,
		log:  logger,
		game: gameSvc,
		mux:  chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/economy", s.handleEconomy)
		r.Post("/weeks/advance", s.handleAdvanceWeek)
		r.Get("/state", s.handleState)
		r.Post("/modals/{name}/minimize", s.handleModal(true))
		r.Post("/modals/{name}/restore", s.handleModal(false))

		r.Get("/companies", s.handleCompaniesList)
		r.Post("/companies", s.handleCreateCompany)
		r.Route("/companies/{id}", func(r chi.Router) {
			r.Get("/", s.handleCompany)
			r.Post("/shares", s.handleIssueShares)
			r.Post("/weeks", s.handleRecordWeek)
			r.Post("/loans/quote", s.handleQuoteLoan)
			r.Post("/loans", s.handleTakeLoan)
			r.Post("/loans/pay", s.handleRepayLoan)
			r.Get("/warnings", s.handleWarnings)
			r.Post("/warnings/{warning_id}/ack", s.handleAckWarning)
			r.Get("/decisions", s.handleDecisions)
			r.Post("/decisions", s.handleApplyDecision)
			r.Post("/decisions/{decision_id}/resolve", s.handleResolveDecision)
		})

		r.Post("/wine/balance", s.handleWineBalance)
		r.Post("/wine/blend", s.handleWineBlend)
		r.Post("/activities/work-units", s.handleWorkUnits)
	})
}

func (s *Server) handleEconomy(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.game.Economy())
}

func (s *Server) handleAdvanceWeek(w http.ResponseWriter, r *http.Request) {
	out, err := s.game.AdvanceWeek(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.game.State().Snapshot())
}

func (s *Server) handleModal(minimized bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.game.SetModalMinimized(chi.URLParam(r, "name"), minimized); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, s.game.State().Snapshot())
	}
}

func (s *Server) handleCompaniesList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"companies": s.game.Companies()})
}

func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var in game.CreateCompanyInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.game.CreateCompany(r.Context(), in)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := companyID(w, r)
	if !ok {
		return
	}
	out, err := s.game.Company(id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleIssueShares(w http.ResponseWriter, r *http.Request) {
	id, ok := companyID(w, r)
	if !ok {
		return
	}
	var in struct {
		Shares float64 `json:"shares"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.game.IssueShares(r.Context(), id, in.Shares)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRecordWeek(w http.ResponseWriter, r *http.Request) {
	id, ok := companyID(w, r)
	if !ok {
		return
	}
	var in game.WeeklyInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.game.RecordWeek(r.Context(), id, in)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleQuoteLoan(w http.ResponseWriter, r *http.Request) {
	id, ok := companyID(w, r)
	if !ok {
		return
	}
	var in game.LoanInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.game.QuoteLoan(id, in)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTakeLoan(w http.ResponseWriter, r *http.Request) {
	id, ok := companyID(w, r)
	if !ok {
		return
	}
	var in game.LoanInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.game.TakeLoan(r.Context(), id, in)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleRepayLoan(w http.ResponseWriter, r *http.Request) {
	id, ok := companyID(w, r)
	if !ok {
		return
	}
	var in struct {
		Amount float64 `json:"amount"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.game.RepayLoan(r.Context(), id, in.Amount)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleWarnings(w http.ResponseWriter, r *http.Request) {
	id, ok := companyID(w, r)
	if !ok {
		return
	}
	out, err := s.game.Warnings(id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"warnings": out})
}

func (s *Server) handleAckWarning(w http.ResponseWriter, r *http.Request) {
	id, ok := companyID(w, r)
	if !ok {
		return
	}
	warningID, err := uuid.Parse(chi.URLParam(r, "warning_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid warning id")
		return
	}
	if err := s.game.AcknowledgeWarning(id, warningID); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleDecisions(w http.ResponseWriter, r *http.Request) {
	id, ok := companyID(w, r)
	if !ok {
		return
	}
	out, err := s.game.Decisions(id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"decisions": out})
}

func (s *Server) handleApplyDecision(w http.ResponseWriter, r *http.Request) {
	id, ok := companyID(w, r)
	if !ok {
		return
	}
	var env appstate.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if env.Decision == nil {
		writeError(w, http.StatusBadRequest, "decision is required")
		return
	}
	out, err := s.game.ApplyDecision(r.Context(), id, env.Decision)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleResolveDecision(w http.ResponseWriter, r *http.Request) {
	id, ok := companyID(w, r)
	if !ok {
		return
	}
	decisionID, err := uuid.Parse(chi.URLParam(r, "decision_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid decision id")
		return
	}
	out, err := s.game.ResolveDecision(r.Context(), id, decisionID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleWineBalance(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Characteristics wine.Characteristics `json:"characteristics"`
		Ranges          wine.Ranges          `json:"ranges,omitempty"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := in.Characteristics.Validate(); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	ranges := wine.DefaultRanges()
	for ch, rg := range in.Ranges {
		ranges[ch] = rg
	}
	if err := ranges.Validate(); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wine.Balance(in.Characteristics, ranges))
}

func (s *Server) handleWineBlend(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Parts []wine.BlendPart `json:"parts"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, p := range in.Parts {
		if _, err := wine.NewBatch(p.Batch.ID, p.Batch.Grape, p.Batch.Volume, p.Batch.Characteristics); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
	}
	out, volume, err := wine.Blend(in.Parts)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"characteristics": out,
		"volume":          volume,
		"balance":         wine.Balance(out, wine.DefaultRanges()),
	})
}

func (s *Server) handleWorkUnits(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Category        string    `json:"category"`
		Amount          float64   `json:"amount"`
		Density         float64   `json:"density,omitempty"`
		Modifiers       []float64 `json:"modifiers,omitempty"`
		CapacityPerWeek float64   `json:"capacity_per_week,omitempty"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	category, err := activity.ParseCategory(in.Category)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	units, err := activity.WorkUnits(activity.WorkInput{
		Category:  category,
		Amount:    in.Amount,
		Density:   in.Density,
		Modifiers: in.Modifiers,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	out := map[string]any{"category": category, "unit": activity.Unit(category), "work_units": units}
	if in.CapacityPerWeek > 0 {
		weeks, err := activity.WeeksToComplete(units, in.CapacityPerWeek)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		out["weeks"] = weeks
	}
	writeJSON(w, http.StatusOK, out)
}

func companyID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid company id")
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, game.ErrCompanyNotFound),
		errors.Is(err, appstate.ErrWarningNotFound),
		errors.Is(err, appstate.ErrDecisionNotFound),
		errors.Is(err, finance.ErrLoanNotFound),
		errors.Is(err, activity.ErrUnknownCategory):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrAlreadyIssued),
		errors.Is(err, finance.ErrNoOpenLoans):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrDecisionCompany):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, game.ErrInvalidInput),
		errors.Is(err, appstate.ErrUnknownDecision),
		errors.Is(err, valuation.ErrInvalidShares),
		errors.Is(err, valuation.ErrInvalidEquity),
		errors.Is(err, finance.ErrInvalidLoan),
		errors.Is(err, finance.ErrInvalidAmount),
		errors.Is(err, wine.ErrCharacteristicRange),
		errors.Is(err, wine.ErrEmptyBlend),
		errors.Is(err, wine.ErrInvalidRange),
		errors.Is(err, activity.ErrNoCapacity),
		errors.Is(err, activity.ErrTooMuchWork):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error("request failed", "request_id", middleware.GetReqID(r.Context()), "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

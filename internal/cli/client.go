package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"winery/internal/appstate"
	"winery/internal/finance"
	"winery/internal/game"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

func (c *Client) Economy(ctx context.Context) (game.EconomyView, error) {
	var out game.EconomyView
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/economy", nil, &out)
	return out, err
}

func (c *Client) AdvanceWeek(ctx context.Context) (game.WeekReport, error) {
	var out game.WeekReport
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/weeks/advance", nil, &out)
	return out, err
}

func (c *Client) ListCompanies(ctx context.Context) ([]game.CompanySummary, error) {
	var out struct {
		Companies []game.CompanySummary `json:"companies"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/companies", nil, &out)
	return out.Companies, err
}

func (c *Client) CreateCompany(ctx context.Context, in game.CreateCompanyInput) (game.CompanyView, error) {
	var out game.CompanyView
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/companies", in, &out)
	return out, err
}

func (c *Client) Company(ctx context.Context, id uuid.UUID) (game.CompanyView, error) {
	var out game.CompanyView
	err := c.jsonRequest(ctx, http.MethodGet, companyPath(id, ""), nil, &out)
	return out, err
}

func (c *Client) IssueShares(ctx context.Context, id uuid.UUID, shares float64) (game.CompanyView, error) {
	var out game.CompanyView
	err := c.jsonRequest(ctx, http.MethodPost, companyPath(id, "/shares"), map[string]any{"shares": shares}, &out)
	return out, err
}

func (c *Client) RecordWeek(ctx context.Context, id uuid.UUID, in game.WeeklyInput) (game.CompanyView, error) {
	var out game.CompanyView
	err := c.jsonRequest(ctx, http.MethodPost, companyPath(id, "/weeks"), in, &out)
	return out, err
}

func (c *Client) QuoteLoan(ctx context.Context, id uuid.UUID, in game.LoanInput) (game.LoanQuote, error) {
	var out game.LoanQuote
	err := c.jsonRequest(ctx, http.MethodPost, companyPath(id, "/loans/quote"), in, &out)
	return out, err
}

func (c *Client) TakeLoan(ctx context.Context, id uuid.UUID, in game.LoanInput) (finance.Loan, error) {
	var out finance.Loan
	err := c.jsonRequest(ctx, http.MethodPost, companyPath(id, "/loans"), in, &out)
	return out, err
}

func (c *Client) RepayLoan(ctx context.Context, id uuid.UUID, amount float64) (game.RepayResult, error) {
	var out game.RepayResult
	err := c.jsonRequest(ctx, http.MethodPost, companyPath(id, "/loans/pay"), map[string]any{"amount": amount}, &out)
	return out, err
}

func (c *Client) Warnings(ctx context.Context, id uuid.UUID) ([]appstate.Warning, error) {
	var out struct {
		Warnings []appstate.Warning `json:"warnings"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, companyPath(id, "/warnings"), nil, &out)
	return out.Warnings, err
}

func (c *Client) AcknowledgeWarning(ctx context.Context, id, warningID uuid.UUID) error {
	return c.jsonRequest(ctx, http.MethodPost, companyPath(id, "/warnings/"+warningID.String()+"/ack"), nil, nil)
}

func (c *Client) Decisions(ctx context.Context, id uuid.UUID) ([]appstate.PendingDecision, error) {
	var out struct {
		Decisions []appstate.PendingDecision `json:"decisions"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, companyPath(id, "/decisions"), nil, &out)
	return out.Decisions, err
}

func (c *Client) ResolveDecision(ctx context.Context, id, decisionID uuid.UUID) (game.CompanyView, error) {
	var out game.CompanyView
	err := c.jsonRequest(ctx, http.MethodPost, companyPath(id, "/decisions/"+decisionID.String()+"/resolve"), nil, &out)
	return out, err
}

func (c *Client) ApplyDecision(ctx context.Context, id uuid.UUID, d appstate.Decision) (game.CompanyView, error) {
	var out game.CompanyView
	err := c.jsonRequest(ctx, http.MethodPost, companyPath(id, "/decisions"), appstate.Envelope{Decision: d}, &out)
	return out, err
}

func (c *Client) Do(ctx context.Context, method, path string, body map[string]any) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, method, path, body, &out)
	return out, err
}

func companyPath(id uuid.UUID, suffix string) string {
	return "/v1/companies/" + url.PathEscape(id.String()) + suffix
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(raw))
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
			msg = payload.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

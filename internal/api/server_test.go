package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"winery/internal/appstate"
	"winery/internal/config"
	"winery/internal/game"
)

type discardStore struct{}

func (discardStore) LoadEconomy(context.Context) (game.EconomyRecord, bool, error) {
	return game.EconomyRecord{}, false, nil
}
func (discardStore) SaveEconomy(context.Context, game.EconomyRecord) error     { return nil }
func (discardStore) LoadCompanies(context.Context) ([]*game.Company, error)    { return nil, nil }
func (discardStore) SaveCompany(context.Context, *game.Company) error          { return nil }
func (discardStore) SaveValuation(context.Context, game.ValuationRecord) error { return nil }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts, _ := newTestServerWithService(t)
	return ts
}

func newTestServerWithService(t *testing.T) (*httptest.Server, *game.Service) {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	svc := game.NewService(discardStore{}, logger, game.Options{Seed: 3})
	ts := httptest.NewServer(New(config.APIConfig{}, logger, svc).Handler())
	t.Cleanup(ts.Close)
	return ts, svc
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthAndEconomy(t *testing.T) {
	ts := newTestServer(t)

	var health map[string]any
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/healthz", nil, &health))
	assert.Equal(t, true, health["ok"])

	var econ game.EconomyView
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/v1/economy", nil, &econ))
	assert.Equal(t, "recovery", string(econ.Phase))
	assert.Equal(t, 1, econ.Date.Week)
	assert.Equal(t, 1.0, econ.Multipliers.ValuationExpectation)
}

func TestCompanyLifecycle(t *testing.T) {
	ts := newTestServer(t)

	var created game.CompanyView
	status := doJSON(t, http.MethodPost, ts.URL+"/v1/companies", map[string]any{"name": "Clos Rouge"}, &created)
	require.Equal(t, http.StatusCreated, status)
	require.NotEqual(t, uuid.Nil, created.ID)
	base := ts.URL + "/v1/companies/" + created.ID.String()

	var issued game.CompanyView
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, base+"/shares", map[string]any{"shares": 1000}, &issued))
	assert.True(t, issued.Issued)
	assert.Equal(t, issued.BookMicros, issued.PriceMicros)

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, base+"/weeks", map[string]any{"revenue": 2000, "expenses": 500}, nil))

	var report game.WeekReport
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, ts.URL+"/v1/weeks/advance", nil, &report))
	assert.Equal(t, 2, report.Date.Week)
	require.Len(t, report.Companies, 1)

	var view game.CompanyView
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, base, nil, &view))
	assert.Equal(t, 1, view.WindowWeeks)
	assert.NotNil(t, view.LastAdjustment)

	var loan map[string]any
	require.Equal(t, http.StatusCreated, doJSON(t, http.MethodPost, base+"/loans", map[string]any{"amount": 5000, "term_weeks": 48}, &loan))
	assert.Equal(t, "open", loan["status"])
}

func TestErrorStatuses(t *testing.T) {
	ts := newTestServer(t)

	var errBody map[string]any
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodGet, ts.URL+"/v1/companies/not-a-uuid", nil, &errBody))
	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodGet, ts.URL+"/v1/companies/"+uuid.NewString(), nil, &errBody))
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, ts.URL+"/v1/companies", map[string]any{"name": ""}, &errBody))
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, ts.URL+"/v1/companies", map[string]any{"nme": "typo"}, &errBody))

	var created game.CompanyView
	require.Equal(t, http.StatusCreated, doJSON(t, http.MethodPost, ts.URL+"/v1/companies", map[string]any{"name": "Errant Estate"}, &created))
	base := ts.URL + "/v1/companies/" + created.ID.String()

	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, base+"/shares", map[string]any{"shares": 0}, &errBody))
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, base+"/decisions", map[string]any{"type": "mystery"}, &errBody))
	assert.Equal(t, http.StatusConflict, doJSON(t, http.MethodPost, base+"/loans/pay", map[string]any{"amount": 10}, &errBody))
	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodPost, base+"/warnings/"+uuid.NewString()+"/ack", nil, &errBody))
}

func TestApplyTaggedDecision(t *testing.T) {
	ts, svc := newTestServerWithService(t)

	var created game.CompanyView
	require.Equal(t, http.StatusCreated, doJSON(t, http.MethodPost, ts.URL+"/v1/companies", map[string]any{"name": "Tagged Estate"}, &created))
	url := ts.URL + "/v1/companies/" + created.ID.String() + "/decisions"
	body := map[string]any{"type": "shareIssuance", "offerId": "s-1", "shares": 500}

	var errBody map[string]any
	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodPost, url, body, &errBody))

	require.NoError(t, svc.State().Dispatch(appstate.DecisionRaised{Pending: appstate.PendingDecision{
		ID:        uuid.New(),
		CompanyID: created.ID,
		Decision:  appstate.Envelope{Decision: appstate.ShareIssuance{OfferID: "s-1", Shares: 500}},
	}}))

	var view game.CompanyView
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, url, body, &view))
	assert.True(t, view.Issued)
	assert.Equal(t, game.SharesToUnits(500), view.SharesUnits)
	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodPost, url, body, &errBody))
}

func TestWineAndWorkUnits(t *testing.T) {
	ts := newTestServer(t)

	mid := map[string]float64{"acidity": 0.5, "aroma": 0.5, "body": 0.6, "spice": 0.5, "sweetness": 0.5, "tannins": 0.5}
	var balance struct {
		Score float64 `json:"score"`
	}
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, ts.URL+"/v1/wine/balance", map[string]any{"characteristics": mid}, &balance))
	assert.InDelta(t, 1.0, balance.Score, 1e-9)

	bad := map[string]float64{"acidity": 1.5}
	var errBody map[string]any
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, ts.URL+"/v1/wine/balance", map[string]any{"characteristics": bad}, &errBody))
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, ts.URL+"/v1/wine/blend", map[string]any{"parts": []any{}}, &errBody))

	var units struct {
		WorkUnits int    `json:"work_units"`
		Unit      string `json:"unit"`
		Weeks     int    `json:"weeks"`
	}
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, ts.URL+"/v1/activities/work-units",
		map[string]any{"category": "planting", "amount": 2, "capacity_per_week": 3}, &units))
	assert.Equal(t, 4, units.WorkUnits)
	assert.Equal(t, "ha", units.Unit)
	assert.Equal(t, 2, units.Weeks)

	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodPost, ts.URL+"/v1/activities/work-units",
		map[string]any{"category": "juggling", "amount": 1}, &errBody))
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, ts.URL+"/v1/activities/work-units",
		map[string]any{"category": "crushing", "amount": 1e300}, &errBody))
}

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"winery/internal/appstate"
)

func TestClientDecodesAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "company not found"})
	}))
	defer ts.Close()

	_, err := NewClient(ts.URL).Company(context.Background(), uuid.New())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "company not found", apiErr.Message)
}

func TestClientSendsTaggedDecision(t *testing.T) {
	var got map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"issued":true}`))
	}))
	defer ts.Close()

	view, err := NewClient(ts.URL+"/").ApplyDecision(context.Background(), uuid.New(), appstate.ShareIssuance{OfferID: "s-9", Shares: 10})
	require.NoError(t, err)
	assert.True(t, view.Issued)
	assert.Equal(t, "shareIssuance", got["type"])
	assert.Equal(t, "s-9", got["offerId"])
	assert.Equal(t, 10.0, got["shares"])
}

func TestProfileRoundTrip(t *testing.T) {
	t.Setenv("VIN_HOME", t.TempDir())

	_, err := CurrentCompany()
	assert.ErrorIs(t, err, ErrNoCurrentCompany)

	id := uuid.New()
	require.NoError(t, SaveProfile(Profile{CompanyID: id}))
	got, err := CurrentCompany()
	require.NoError(t, err)
	assert.Equal(t, id, got)

	require.NoError(t, ClearProfile())
	_, err = CurrentCompany()
	assert.ErrorIs(t, err, ErrNoCurrentCompany)
}

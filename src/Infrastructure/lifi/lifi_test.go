package lifi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validStep() Step {
	return Step{
		ID:   "step-1",
		Type: "lifi",
		Tool: "stargate",
		Estimate: Estimate{
			ToAmount:        "5000000",
			ToAmountMin:     "4900000",
			ApprovalAddress: "0x4444444444444444444444444444444444444444",
		},
		TransactionRequest: &TransactionRequest{
			To:    "0x5555555555555555555555555555555555555555",
			Data:  "0xdeadbeef",
			Value: "0",
		},
	}
}

func TestGetRoutesDefaultsToCheapestOrdering(t *testing.T) {
	var got RoutesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/advanced/routes", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(routesResponse{Routes: []Route{{
			ID:          "r1",
			ToAmount:    "5000000",
			ToAmountMin: "4900000",
			Steps:       []Step{validStep()},
		}}})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	routes, err := c.GetRoutes(context.Background(), RoutesRequest{FromChainID: 8453, ToChainID: 137})

	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "r1", routes[0].ID)
	require.NotNil(t, got.Options)
	assert.Equal(t, "CHEAPEST", got.Options.Order)
}

func TestGetRoutesRejectsMalformedRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(routesResponse{Routes: []Route{{ID: "broken"}}})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.GetRoutes(context.Background(), RoutesRequest{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestGetQuoteRequiresTransactionRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		step := validStep()
		step.TransactionRequest = nil
		_ = json.NewEncoder(w).Encode(step)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.GetQuote(context.Background(), QuoteRequest{FromChainID: 137, ToChainID: 137})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "transaction request")
}

func TestAPIErrorMessageSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(apiError{Message: "No quote found", Code: 1011})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.GetQuote(context.Background(), QuoteRequest{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "No quote found")
}

func TestOversizedResponseBodyKeepsLogLineValid(t *testing.T) {
	pad := strings.Repeat("x", 4096)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"DONE","pad":"` + pad + `"}`))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	c, err := NewClient(srv.URL, WithLogger(zerolog.New(&buf)))
	require.NoError(t, err)

	status, err := c.GetStatus(context.Background(), "stargate", 8453, 137, "0xabc")

	require.NoError(t, err)
	assert.Equal(t, "DONE", status.Status)
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry), "truncated bodies must not corrupt the log line: %s", line)
	}
}

func TestAPIKeyHeaderSent(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-lifi-api-key")
		_ = json.NewEncoder(w).Encode(StatusResponse{Status: "DONE"})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, WithAPIKey("secret"))
	require.NoError(t, err)

	status, err := c.GetStatus(context.Background(), "stargate", 8453, 137, "0xabc")

	require.NoError(t, err)
	assert.Equal(t, "DONE", status.Status)
	assert.Equal(t, "secret", gotKey)
}

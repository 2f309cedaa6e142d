package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glbter/stock-ratings/store"
)

func runStocksCommand(t *testing.T, status int, body string) (store.StockState, error) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	t.Setenv("STOCK_API_URL", srv.URL)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"stocks"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()

	var snap store.StockState
	require.NoError(t, json.Unmarshal(out.Bytes(), &snap))
	return snap, err
}

func TestStocksCommandPrintsPage(t *testing.T) {
	snap, err := runStocksCommand(t, http.StatusOK, `{
		"items": [{"ticker": "AAPL", "rating_to": "Buy"}],
		"pagination": {"page": 1, "pageSize": 10, "totalItems": 1, "totalPages": 1}
	}`)
	require.NoError(t, err)

	require.Len(t, snap.Stocks, 1)
	assert.Equal(t, "AAPL", snap.Stocks[0].Ticker)
	assert.Nil(t, snap.Error)
}

func TestStocksCommandFailsOnRemoteError(t *testing.T) {
	snap, err := runStocksCommand(t, http.StatusInternalServerError, `{"error": "boom"}`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	require.NotNil(t, snap.Error)
	assert.Empty(t, snap.Stocks)
}

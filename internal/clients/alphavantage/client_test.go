package alphavantage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(srv.URL, "test-key", time.Second, zerolog.Nop()), srv
}

func TestQuote(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		w.Write([]byte(`{"Global Quote": {"01. symbol": "AAPL", "05. price": "182.2500"}}`))
	})
	defer srv.Close()

	price, err := client.Quote(context.Background(), "aapl")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("182.25")), "got %s", price)
}

func TestQuoteMissingPrice(t *testing.T) {
	// Rate-limited responses come back 200 with an informational body
	client, srv := newTestClient(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage!"}`))
	})
	defer srv.Close()

	_, err := client.Quote(context.Background(), "AAPL")
	assert.ErrorContains(t, err, "missing price")
}

func TestQuoteInvalidPrice(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"Global Quote": {"05. price": "not-a-number"}}`))
	})
	defer srv.Close()

	_, err := client.Quote(context.Background(), "AAPL")
	assert.Error(t, err)
}

func TestQuoteNonPositivePrice(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"Global Quote": {"05. price": "0.0000"}}`))
	})
	defer srv.Close()

	_, err := client.Quote(context.Background(), "AAPL")
	assert.Error(t, err)
}

func TestQuoteHTTPError(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	defer srv.Close()

	_, err := client.Quote(context.Background(), "AAPL")
	assert.ErrorContains(t, err, "status 503")
}

func TestConfigured(t *testing.T) {
	assert.True(t, NewClient("", "key", 0, zerolog.Nop()).Configured())
	assert.False(t, NewClient("", "", 0, zerolog.Nop()).Configured())
}

// Package alphavantage provides a typed client for the Alpha Vantage
// GLOBAL_QUOTE endpoint, used as the secondary quote source.
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Client for alphavantage.co
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new Alpha Vantage client. baseURL is injectable for
// tests; pass "" for the production endpoint.
func NewClient(baseURL, apiKey string, timeout time.Duration, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://www.alphavantage.co"
	}
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("client", "alphavantage").Logger(),
	}
}

// Configured reports whether an API key is set. The resolver skips the
// secondary source entirely when it is not.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Quote fetches the current price for a symbol via the GLOBAL_QUOTE
// function. The response nests the price as "Global Quote"."05. price";
// a missing or non-positive value is an error.
func (c *Client) Quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("function", "GLOBAL_QUOTE")
	q.Set("symbol", strings.ToUpper(symbol))
	q.Set("apikey", c.apiKey)

	reqURL := c.baseURL + "/query?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("alphavantage request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("alphavantage returned status %d", resp.StatusCode)
	}

	var body struct {
		GlobalQuote struct {
			Price string `json:"05. price"`
		} `json:"Global Quote"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse alphavantage response: %w", err)
	}

	if body.GlobalQuote.Price == "" {
		return decimal.Zero, fmt.Errorf("alphavantage response missing price for %s", symbol)
	}

	price, err := decimal.NewFromString(body.GlobalQuote.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid alphavantage price %q: %w", body.GlobalQuote.Price, err)
	}
	if price.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("alphavantage returned non-positive price %s for %s", price, symbol)
	}

	price = price.Round(2)
	c.log.Debug().Str("symbol", symbol).Str("price", price.String()).Msg("Fetched quote")
	return price, nil
}

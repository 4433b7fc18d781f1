// Package finnhub provides a typed client for the Finnhub quote API.
// Free tier: https://finnhub.io (60 calls/minute).
package finnhub

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

// Client for finnhub.io
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new Finnhub client. baseURL is injectable for tests;
// pass "" for the production endpoint.
func NewClient(baseURL, apiKey string, timeout time.Duration, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://finnhub.io/api/v1"
	}
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("client", "finnhub").Logger(),
	}
}

// quoteResponse mirrors GET /quote: c=current, pc=previous close, o/h/l.
type quoteResponse struct {
	Current       float64 `json:"c"`
	PreviousClose float64 `json:"pc"`
	Open          float64 `json:"o"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
}

// Quote fetches the current price for a symbol. A non-2xx status or a
// missing/non-positive current price is an error - callers treat it as a
// soft failure and fall through to the next source.
func (c *Client) Quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("symbol", strings.ToUpper(symbol))
	q.Set("token", c.apiKey)

	var resp quoteResponse
	if err := c.getJSON(ctx, "/quote", q, &resp); err != nil {
		return decimal.Zero, err
	}

	if resp.Current <= 0 {
		return decimal.Zero, fmt.Errorf("finnhub returned non-positive price %v for %s", resp.Current, symbol)
	}

	price := decimal.NewFromFloat(resp.Current).Round(2)
	c.log.Debug().Str("symbol", symbol).Str("price", price.String()).Msg("Fetched quote")
	return price, nil
}

// QuoteDetail carries the current price together with the previous close,
// used for day-change reporting on benchmarks.
type QuoteDetail struct {
	Current       decimal.Decimal
	PreviousClose decimal.Decimal
}

// QuoteWithChange fetches the current price and previous close for a
// symbol. Same failure rules as Quote.
func (c *Client) QuoteWithChange(ctx context.Context, symbol string) (QuoteDetail, error) {
	q := url.Values{}
	q.Set("symbol", strings.ToUpper(symbol))
	q.Set("token", c.apiKey)

	var resp quoteResponse
	if err := c.getJSON(ctx, "/quote", q, &resp); err != nil {
		return QuoteDetail{}, err
	}

	if resp.Current <= 0 {
		return QuoteDetail{}, fmt.Errorf("finnhub returned non-positive price %v for %s", resp.Current, symbol)
	}

	return QuoteDetail{
		Current:       decimal.NewFromFloat(resp.Current).Round(2),
		PreviousClose: decimal.NewFromFloat(resp.PreviousClose).Round(2),
	}, nil
}

// SearchResult is one security returned by the symbol search endpoint.
type SearchResult struct {
	Symbol        string `json:"symbol"`
	Description   string `json:"description"`
	DisplaySymbol string `json:"displaySymbol"`
	Type          string `json:"type"`
}

// Search looks up securities by free-text query.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("token", c.apiKey)

	var resp struct {
		Result []SearchResult `json:"result"`
	}
	if err := c.getJSON(ctx, "/search", q, &resp); err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// Profile is a subset of the company profile endpoint.
type Profile struct {
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Currency string `json:"currency"`
	Industry string `json:"finnhubIndustry"`
	Country  string `json:"country"`
}

// CompanyProfile fetches basic company information for a symbol.
func (c *Client) CompanyProfile(ctx context.Context, symbol string) (Profile, error) {
	q := url.Values{}
	q.Set("symbol", strings.ToUpper(symbol))
	q.Set("token", c.apiKey)

	var profile Profile
	if err := c.getJSON(ctx, "/stock/profile2", q, &profile); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	reqURL := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("finnhub request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("finnhub returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse finnhub response: %w", err)
	}
	return nil
}

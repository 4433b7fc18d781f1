package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliotrack/foliotrack/internal/domain"
)

// sourceFunc adapts a function to the QuoteSource interface.
type sourceFunc func(ctx context.Context, symbol string) (decimal.Decimal, error)

func (f sourceFunc) Quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return f(ctx, symbol)
}

func fixedSource(price string) sourceFunc {
	return func(context.Context, string) (decimal.Decimal, error) {
		return decimal.RequireFromString(price), nil
	}
}

func failingSource() sourceFunc {
	return func(context.Context, string) (decimal.Decimal, error) {
		return decimal.Zero, errors.New("provider down")
	}
}

func countingSource(price string, calls *int) sourceFunc {
	return func(context.Context, string) (decimal.Decimal, error) {
		*calls++
		return decimal.RequireFromString(price), nil
	}
}

func testResolver(primary, secondary QuoteSource) *Resolver {
	return NewResolver(Config{
		APIEnabled:   true,
		PrimaryKey:   "test-key",
		SecondaryKey: "test-key",
		CacheTTL:     5 * time.Minute,
	}, primary, secondary, zerolog.Nop())
}

func TestResolveEmptySymbol(t *testing.T) {
	r := testResolver(fixedSource("100"), nil)

	_, err := r.Resolve(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptySymbol)
}

func TestResolvePrimaryWins(t *testing.T) {
	r := testResolver(fixedSource("181.50"), fixedSource("999"))

	quote, err := r.Resolve(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", quote.Symbol)
	assert.Equal(t, domain.SourceLivePrimary, quote.Source)
	assert.True(t, quote.Price.Equal(decimal.RequireFromString("181.50")))
}

func TestResolveFallsBackToSecondary(t *testing.T) {
	r := testResolver(failingSource(), fixedSource("182.25"))

	quote, err := r.Resolve(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceLiveSecondary, quote.Source)
	assert.True(t, quote.Price.Equal(decimal.RequireFromString("182.25")))
}

func TestResolveFallsBackToSynthetic(t *testing.T) {
	r := testResolver(failingSource(), failingSource())

	quote, err := r.Resolve(context.Background(), "AAPL")
	require.NoError(t, err, "resolution must never fail for a valid symbol")
	assert.Equal(t, domain.SourceSynthetic, quote.Source)
	assert.True(t, quote.Price.Sign() > 0)
}

func TestResolveSyntheticWhenAPIDisabled(t *testing.T) {
	r := NewResolver(Config{
		APIEnabled:   false,
		PrimaryKey:   "test-key",
		SecondaryKey: "",
		CacheTTL:     time.Minute,
	}, fixedSource("999"), fixedSource("999"), zerolog.Nop())

	quote, err := r.Resolve(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceSynthetic, quote.Source, "disabled API must never reach live sources")
}

func TestResolveSkipsPrimaryWithoutKey(t *testing.T) {
	primaryCalls := 0
	r := NewResolver(Config{
		APIEnabled:   true,
		PrimaryKey:   "",
		SecondaryKey: "test-key",
		CacheTTL:     time.Minute,
	}, countingSource("999", &primaryCalls), fixedSource("50"), zerolog.Nop())

	quote, err := r.Resolve(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Zero(t, primaryCalls)
	assert.Equal(t, domain.SourceLiveSecondary, quote.Source)
}

func TestResolveCachesResults(t *testing.T) {
	calls := 0
	r := testResolver(countingSource("100", &calls), nil)

	first, err := r.Resolve(context.Background(), "AAPL")
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "second resolve must be served from cache")
	assert.True(t, first.Price.Equal(second.Price))
	assert.Equal(t, first.Source, second.Source, "cache keeps the original provenance tag")
}

func TestResolveCacheExpiry(t *testing.T) {
	calls := 0
	r := testResolver(countingSource("100", &calls), nil)

	now := time.Now()
	r.now = func() time.Time { return now }
	r.cache.now = r.now

	_, err := r.Resolve(context.Background(), "AAPL")
	require.NoError(t, err)

	now = now.Add(6 * time.Minute)
	_, err = r.Resolve(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, 2, calls, "expired cache entry must trigger a fresh fetch")
}

func TestResolveCachesSyntheticPrices(t *testing.T) {
	r := testResolver(failingSource(), nil)

	_, err := r.Resolve(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 1, r.cache.Len(), "synthetic prices are cached like live ones")
}

func TestClearCache(t *testing.T) {
	calls := 0
	r := testResolver(countingSource("100", &calls), nil)

	_, err := r.Resolve(context.Background(), "AAPL")
	require.NoError(t, err)

	r.ClearCache()

	_, err = r.Resolve(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestBatchPrices(t *testing.T) {
	r := testResolver(fixedSource("100"), nil)

	prices := r.BatchPrices(context.Background(), []string{"aapl", "MSFT", "", "AAPL"})

	require.Len(t, prices, 2)
	assert.True(t, prices["AAPL"].Equal(decimal.RequireFromString("100")))
	assert.True(t, prices["MSFT"].Equal(decimal.RequireFromString("100")))
}

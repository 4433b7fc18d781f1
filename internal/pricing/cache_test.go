package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliotrack/foliotrack/internal/domain"
)

func testQuote(symbol string, price string) domain.PriceQuote {
	return domain.PriceQuote{
		Symbol: symbol,
		Price:  decimal.RequireFromString(price),
		Source: domain.SourceLivePrimary,
	}
}

func TestCachePutGet(t *testing.T) {
	cache := NewQuoteCache(time.Minute)
	cache.Put(testQuote("AAPL", "180"))

	quote, ok := cache.Get("AAPL")
	require.True(t, ok)
	assert.True(t, quote.Price.Equal(decimal.RequireFromString("180")))

	_, ok = cache.Get("MSFT")
	assert.False(t, ok)
}

func TestCacheKeyNormalization(t *testing.T) {
	cache := NewQuoteCache(time.Minute)
	cache.Put(testQuote("aapl", "180"))

	_, ok := cache.Get("  AAPL ")
	assert.True(t, ok, "lookups must be case and whitespace insensitive")
}

func TestCacheExpiry(t *testing.T) {
	now := time.Now()
	cache := NewQuoteCache(5 * time.Minute)
	cache.now = func() time.Time { return now }

	cache.Put(testQuote("AAPL", "180"))

	now = now.Add(4 * time.Minute)
	_, ok := cache.Get("AAPL")
	assert.True(t, ok, "entry within TTL must be returned")

	now = now.Add(2 * time.Minute)
	_, ok = cache.Get("AAPL")
	assert.False(t, ok, "expired entry must not be returned")
	assert.Equal(t, 1, cache.Len(), "expiry is lazy, the entry stays until overwritten")
}

func TestCachePutResetsTTL(t *testing.T) {
	now := time.Now()
	cache := NewQuoteCache(5 * time.Minute)
	cache.now = func() time.Time { return now }

	cache.Put(testQuote("AAPL", "180"))
	now = now.Add(4 * time.Minute)
	cache.Put(testQuote("AAPL", "181"))
	now = now.Add(4 * time.Minute)

	quote, ok := cache.Get("AAPL")
	require.True(t, ok)
	assert.True(t, quote.Price.Equal(decimal.RequireFromString("181")))
}

func TestCacheClear(t *testing.T) {
	cache := NewQuoteCache(time.Minute)
	cache.Put(testQuote("AAPL", "180"))
	cache.Put(testQuote("MSFT", "400"))

	cache.Clear()

	assert.Equal(t, 0, cache.Len())
	_, ok := cache.Get("AAPL")
	assert.False(t, ok)
}

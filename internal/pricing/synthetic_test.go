package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSyntheticPriceDeterministic(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	a := SyntheticPrice("AAPL", now)
	b := SyntheticPrice("AAPL", now.Add(3*time.Hour))
	assert.True(t, a.Equal(b), "same symbol and day must give the same price: %s vs %s", a, b)

	normalized := SyntheticPrice(" aapl ", now)
	assert.True(t, a.Equal(normalized), "symbol normalization must not change the price")
}

func TestSyntheticPriceRange(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	low := decimal.NewFromInt(45)
	high := decimal.NewFromInt(505)

	for _, symbol := range []string{"AAPL", "MSFT", "GOOG", "X", "ZZZZZ", "BND", "VTSAX"} {
		price := SyntheticPrice(symbol, now)
		assert.True(t, price.GreaterThanOrEqual(low), "%s: %s below range", symbol, price)
		assert.True(t, price.LessThanOrEqual(high), "%s: %s above range", symbol, price)
		assert.True(t, price.Equal(price.Round(2)), "%s: price not rounded to cents", symbol)
	}
}

func TestSyntheticPriceVariesBySymbol(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	a := SyntheticPrice("AAPL", now)
	b := SyntheticPrice("MSFT", now)
	assert.False(t, a.Equal(b), "different symbols should hash to different prices")
}

func TestSyntheticPriceDriftsAcrossDays(t *testing.T) {
	day1 := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	a := SyntheticPrice("AAPL", day1)
	b := SyntheticPrice("AAPL", day2)
	assert.False(t, a.Equal(b), "price should drift day over day")

	// Drift is bounded by the +/-5 oscillation
	diff := a.Sub(b).Abs()
	assert.True(t, diff.LessThanOrEqual(decimal.NewFromInt(10)), "drift %s exceeds oscillation bound", diff)
}

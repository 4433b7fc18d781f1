// Package pricing resolves current prices for symbols through a cached,
// fallback-chained lookup: cache, primary source, secondary source, then a
// deterministic synthetic generator. Resolution never fails for a valid
// symbol - the worst case is a synthetic price.
package pricing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/foliotrack/foliotrack/internal/domain"
)

// ErrEmptySymbol is the only error Resolve can return.
var ErrEmptySymbol = errors.New("symbol must not be empty")

// QuoteSource is a single external price provider.
type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Config holds resolver configuration, passed in explicitly.
type Config struct {
	APIEnabled   bool
	PrimaryKey   string
	SecondaryKey string
	CacheTTL     time.Duration
}

// Resolver looks up prices through the fallback chain and writes every
// obtained price back to the cache.
type Resolver struct {
	cfg       Config
	cache     *QuoteCache
	primary   QuoteSource
	secondary QuoteSource
	now       func() time.Time
	log       zerolog.Logger
}

// NewResolver creates a price resolver. secondary may be nil.
func NewResolver(cfg Config, primary, secondary QuoteSource, log zerolog.Logger) *Resolver {
	return &Resolver{
		cfg:       cfg,
		cache:     NewQuoteCache(cfg.CacheTTL),
		primary:   primary,
		secondary: secondary,
		now:       time.Now,
		log:       log.With().Str("service", "pricing").Logger(),
	}
}

// Resolve returns a price for the symbol. First success wins:
// unexpired cache entry, primary source, secondary source, synthetic.
// Source failures are soft - logged and fallen through, never returned.
func (r *Resolver) Resolve(ctx context.Context, symbol string) (domain.PriceQuote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return domain.PriceQuote{}, ErrEmptySymbol
	}

	if quote, ok := r.cache.Get(symbol); ok {
		r.log.Debug().Str("symbol", symbol).Str("source", string(quote.Source)).Msg("Cache hit")
		return quote, nil
	}

	if r.cfg.APIEnabled && r.cfg.PrimaryKey != "" {
		if price, err := r.primary.Quote(ctx, symbol); err == nil {
			return r.store(symbol, price, domain.SourceLivePrimary), nil
		} else {
			r.log.Warn().Err(err).Str("symbol", symbol).Msg("Primary quote source failed")
		}
	}

	if r.secondary != nil && r.cfg.SecondaryKey != "" {
		if price, err := r.secondary.Quote(ctx, symbol); err == nil {
			return r.store(symbol, price, domain.SourceLiveSecondary), nil
		} else {
			r.log.Warn().Err(err).Str("symbol", symbol).Msg("Secondary quote source failed")
		}
	}

	price := SyntheticPrice(symbol, r.now())
	r.log.Debug().Str("symbol", symbol).Str("price", price.String()).Msg("Using synthetic price")
	return r.store(symbol, price, domain.SourceSynthetic), nil
}

// BatchPrices resolves prices for a list of symbols. Symbols that fail
// validation are skipped.
func (r *Resolver) BatchPrices(ctx context.Context, symbols []string) map[string]decimal.Decimal {
	prices := make(map[string]decimal.Decimal, len(symbols))
	for _, symbol := range symbols {
		quote, err := r.Resolve(ctx, symbol)
		if err != nil {
			continue
		}
		prices[quote.Symbol] = quote.Price
	}
	return prices
}

// ClearCache drops all cached quotes, forcing fresh resolution.
func (r *Resolver) ClearCache() {
	r.cache.Clear()
	r.log.Info().Msg("Price cache cleared")
}

func (r *Resolver) store(symbol string, price decimal.Decimal, source domain.QuoteSource) domain.PriceQuote {
	quote := domain.PriceQuote{
		Symbol:    symbol,
		Price:     price,
		Source:    source,
		FetchedAt: r.now(),
	}
	r.cache.Put(quote)
	return quote
}

// Package benchmarks manages market-index benchmarks tracked alongside
// portfolios for performance comparison. Benchmark values ride the same
// quote chain as positions: live day-change data when the primary source
// answers, resolver fallback otherwise.
package benchmarks

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/foliotrack/foliotrack/internal/clients/finnhub"
	"github.com/foliotrack/foliotrack/internal/domain"
)

// indexAliases maps friendly index names to their ticker symbols.
var indexAliases = map[string]string{
	"SP500":   "^GSPC",
	"NIFTY50": "^NSEI",
	"DJI":     "^DJI",
	"NASDAQ":  "^IXIC",
}

// DetailSource provides quotes with previous-close data for day-change
// reporting. The primary quote client implements it.
type DetailSource interface {
	QuoteWithChange(ctx context.Context, symbol string) (finnhub.QuoteDetail, error)
}

// PriceResolver is the fallback when the detail source cannot answer.
type PriceResolver interface {
	Resolve(ctx context.Context, symbol string) (domain.PriceQuote, error)
}

// PortfolioStore validates portfolio existence.
type PortfolioStore interface {
	GetByID(id string) (domain.Portfolio, error)
}

// BenchmarkStore is the persistence the service needs.
type BenchmarkStore interface {
	Create(b domain.Benchmark) (domain.Benchmark, error)
	GetByID(id string) (domain.Benchmark, error)
	GetByPortfolio(portfolioID string) ([]domain.Benchmark, error)
	UpdateValues(b domain.Benchmark) error
	Delete(id string) error
}

// Service coordinates benchmark CRUD and market-data refresh.
type Service struct {
	benchmarks BenchmarkStore
	portfolios PortfolioStore
	detail     DetailSource
	resolver   PriceResolver
	log        zerolog.Logger
}

// NewService creates a benchmark service. detail may be nil when no
// primary quote source is configured; the resolver fallback then always
// applies.
func NewService(
	benchmarks BenchmarkStore,
	portfolios PortfolioStore,
	detail DetailSource,
	resolver PriceResolver,
	log zerolog.Logger,
) *Service {
	return &Service{
		benchmarks: benchmarks,
		portfolios: portfolios,
		detail:     detail,
		resolver:   resolver,
		log:        log.With().Str("service", "benchmarks").Logger(),
	}
}

// TickerSymbol resolves friendly index names (SP500, NASDAQ, ...) to the
// ticker used against quote sources. Unknown names pass through.
func TickerSymbol(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if ticker, ok := indexAliases[symbol]; ok {
		return ticker
	}
	return symbol
}

// AddRequest is the input for Add.
type AddRequest struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	IndexType   string `json:"index_type"`
	Description string `json:"description"`
	Currency    string `json:"currency"`
}

// Add attaches a benchmark to a portfolio and fetches its first value.
// A market-data failure is not fatal; the benchmark is stored with zero
// values and picked up by the next refresh. Duplicate symbols on the same
// portfolio return domain.ErrDuplicateSymbol.
func (s *Service) Add(ctx context.Context, portfolioID string, req AddRequest) (domain.Benchmark, error) {
	if _, err := s.portfolios.GetByID(portfolioID); err != nil {
		return domain.Benchmark{}, err
	}

	b := domain.Benchmark{
		PortfolioID: portfolioID,
		Symbol:      req.Symbol,
		Name:        req.Name,
		IndexType:   req.IndexType,
		Description: req.Description,
		Currency:    req.Currency,
	}

	if value, change, pct, err := s.fetchMarketData(ctx, b.Symbol); err == nil {
		b.CurrentValue = value
		b.ChangeAmount = change
		b.ChangePct = pct
	} else {
		s.log.Warn().Err(err).Str("symbol", b.Symbol).Msg("Benchmark market data unavailable at add")
	}

	return s.benchmarks.Create(b)
}

// List returns a portfolio's benchmarks, validating the portfolio first.
func (s *Service) List(portfolioID string) ([]domain.Benchmark, error) {
	if _, err := s.portfolios.GetByID(portfolioID); err != nil {
		return nil, err
	}
	return s.benchmarks.GetByPortfolio(portfolioID)
}

// Delete removes a benchmark, verifying it belongs to the portfolio.
func (s *Service) Delete(portfolioID, benchmarkID string) error {
	b, err := s.benchmarks.GetByID(benchmarkID)
	if err != nil {
		return err
	}
	if b.PortfolioID != portfolioID {
		return domain.ErrNotFound
	}
	return s.benchmarks.Delete(benchmarkID)
}

// Refresh re-fetches market data for every benchmark of a portfolio.
// Per-benchmark failures are logged and skipped.
func (s *Service) Refresh(ctx context.Context, portfolioID string) ([]domain.Benchmark, error) {
	benchmarks, err := s.List(portfolioID)
	if err != nil {
		return nil, err
	}

	for i := range benchmarks {
		value, change, pct, err := s.fetchMarketData(ctx, benchmarks[i].Symbol)
		if err != nil {
			s.log.Error().Err(err).Str("symbol", benchmarks[i].Symbol).Msg("Failed to refresh benchmark")
			continue
		}
		benchmarks[i].CurrentValue = value
		benchmarks[i].ChangeAmount = change
		benchmarks[i].ChangePct = pct
		if err := s.benchmarks.UpdateValues(benchmarks[i]); err != nil {
			s.log.Error().Err(err).Str("id", benchmarks[i].ID).Msg("Failed to persist benchmark values")
		}
	}

	return benchmarks, nil
}

// fetchMarketData returns current value, day change and day change
// percentage. The detail source gives real previous-close data; when it
// fails, the resolver supplies the value and the previous close is
// approximated at 0.5% below it.
func (s *Service) fetchMarketData(ctx context.Context, symbol string) (value, change, pct decimal.Decimal, err error) {
	ticker := TickerSymbol(symbol)

	if s.detail != nil {
		if detail, derr := s.detail.QuoteWithChange(ctx, ticker); derr == nil && detail.PreviousClose.Sign() > 0 {
			change = detail.Current.Sub(detail.PreviousClose)
			pct = change.DivRound(detail.PreviousClose, 4).Mul(decimal.NewFromInt(100))
			return detail.Current, change, pct, nil
		} else if derr != nil {
			s.log.Debug().Err(derr).Str("symbol", ticker).Msg("Detail quote failed, using resolver")
		}
	}

	quote, err := s.resolver.Resolve(ctx, ticker)
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, err
	}

	prev := quote.Price.Mul(decimal.RequireFromString("0.995"))
	change = quote.Price.Sub(prev)
	pct = change.DivRound(prev, 4).Mul(decimal.NewFromInt(100))
	return quote.Price, change, pct, nil
}

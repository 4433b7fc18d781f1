// Package refresh batch-drives price resolution and metric recomputation
// across portfolios. Refreshes are best effort: one symbol failing never
// aborts the batch.
package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/foliotrack/foliotrack/internal/alerts"
	"github.com/foliotrack/foliotrack/internal/domain"
	"github.com/foliotrack/foliotrack/internal/valuation"
)

// PriceResolver resolves a price for a symbol. Implementations degrade to
// synthetic data rather than failing, but the orchestrator still isolates
// any error it does see.
type PriceResolver interface {
	Resolve(ctx context.Context, symbol string) (domain.PriceQuote, error)
}

// PositionStore is the slice of position persistence the orchestrator needs.
type PositionStore interface {
	GetByPortfolio(portfolioID string) ([]domain.Position, error)
	Update(pos domain.Position) error
}

// PortfolioStore is the slice of portfolio persistence the orchestrator needs.
type PortfolioStore interface {
	GetByID(id string) (domain.Portfolio, error)
	UpdateTotals(id string, totals valuation.Totals) error
}

// HistoryStore appends valuation snapshots.
type HistoryStore interface {
	Append(point domain.HistoryPoint) error
}

// Orchestrator coordinates resolver, valuation and alert evaluation over
// full holding sets.
type Orchestrator struct {
	resolver    PriceResolver
	positions   PositionStore
	portfolios  PortfolioStore
	history     HistoryStore
	concurrency int
	now         func() time.Time
	log         zerolog.Logger
}

// NewOrchestrator creates a refresh orchestrator. concurrency bounds the
// worker pool used by RefreshAll; values below 1 mean sequential.
func NewOrchestrator(
	resolver PriceResolver,
	positions PositionStore,
	portfolios PortfolioStore,
	history HistoryStore,
	concurrency int,
	log zerolog.Logger,
) *Orchestrator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Orchestrator{
		resolver:    resolver,
		positions:   positions,
		portfolios:  portfolios,
		history:     history,
		concurrency: concurrency,
		now:         time.Now,
		log:         log.With().Str("service", "refresh").Logger(),
	}
}

// RefreshAll resolves a fresh price for every position and recomputes its
// metrics and alert state. Positions whose resolution fails are returned
// unchanged. Processing order does not affect the result; positions are
// handled by a bounded worker pool.
func (o *Orchestrator) RefreshAll(ctx context.Context, positions []domain.Position) []domain.Position {
	result := make([]domain.Position, len(positions))
	copy(result, positions)

	sem := make(chan struct{}, o.concurrency)
	var wg sync.WaitGroup

	for i := range result {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			if updated, ok := o.refreshOne(ctx, result[i]); ok {
				result[i] = updated
			}
		}(i)
	}
	wg.Wait()

	return result
}

// refreshOne resolves, recomputes and evaluates a single position. Returns
// false when resolution failed and the position must keep its stale state.
func (o *Orchestrator) refreshOne(ctx context.Context, pos domain.Position) (domain.Position, bool) {
	quote, err := o.resolver.Resolve(ctx, pos.Symbol)
	if err != nil {
		o.log.Warn().Err(err).Str("symbol", pos.Symbol).Msg("Skipping position, price resolution failed")
		return pos, false
	}

	pos.CurrentPrice = quote.Price
	now := o.now().UTC()
	pos.LastPriceUpdate = &now
	pos = valuation.ComputeMetrics(pos)

	if alerts.ShouldFire(pos) {
		pos.AlertFired = true
		o.log.Info().
			Str("symbol", pos.Symbol).
			Str("price", pos.CurrentPrice.String()).
			Str("target", pos.TargetPrice.String()).
			Msg("Price alert fired")
	}

	return pos, true
}

// RefreshPortfolio refreshes all positions of a portfolio, persists them,
// recalculates portfolio totals and appends a history snapshot. Returns
// domain.ErrNotFound when the portfolio does not exist.
func (o *Orchestrator) RefreshPortfolio(ctx context.Context, portfolioID string) (domain.Portfolio, error) {
	if _, err := o.portfolios.GetByID(portfolioID); err != nil {
		return domain.Portfolio{}, err
	}

	positions, err := o.positions.GetByPortfolio(portfolioID)
	if err != nil {
		return domain.Portfolio{}, err
	}

	refreshed := o.RefreshAll(ctx, positions)
	for _, pos := range refreshed {
		if err := o.positions.Update(pos); err != nil {
			o.log.Error().Err(err).Str("id", pos.ID).Msg("Failed to persist refreshed position")
		}
	}

	if err := o.finalizePortfolio(portfolioID, refreshed); err != nil {
		return domain.Portfolio{}, err
	}

	return o.portfolios.GetByID(portfolioID)
}

// finalizePortfolio recomputes aggregate totals and appends the snapshot.
func (o *Orchestrator) finalizePortfolio(portfolioID string, positions []domain.Position) error {
	totals := valuation.RecalculateTotals(positions)

	if err := o.portfolios.UpdateTotals(portfolioID, totals); err != nil {
		return err
	}

	point := domain.HistoryPoint{
		PortfolioID:     portfolioID,
		RecordDate:      o.now().UTC().Format("2006-01-02"),
		TotalValue:      totals.TotalValue,
		TotalInvestment: totals.TotalInvestment,
		GainLoss:        totals.GainLoss,
		GainLossPct:     totals.GainLossPct,
	}
	if err := o.history.Append(point); err != nil {
		o.log.Error().Err(err).Str("portfolio", portfolioID).Msg("Failed to append history snapshot")
	}
	return nil
}

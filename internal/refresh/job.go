package refresh

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/foliotrack/foliotrack/internal/domain"
)

// StalePositionStore extends PositionStore with the staleness query used by
// the scheduled refresher.
type StalePositionStore interface {
	PositionStore
	GetStale(cutoff time.Time) ([]domain.Position, error)
}

// ScheduledJob periodically refreshes positions whose prices have gone
// stale. It runs sequentially with a fixed delay between external requests
// to respect quote-provider rate limits, independent of request handling.
type ScheduledJob struct {
	orchestrator *Orchestrator
	positions    StalePositionStore
	staleness    time.Duration
	requestDelay time.Duration
	log          zerolog.Logger
}

// NewScheduledJob creates the scheduled refresh job.
func NewScheduledJob(
	orchestrator *Orchestrator,
	positions StalePositionStore,
	staleness time.Duration,
	requestDelay time.Duration,
	log zerolog.Logger,
) *ScheduledJob {
	return &ScheduledJob{
		orchestrator: orchestrator,
		positions:    positions,
		staleness:    staleness,
		requestDelay: requestDelay,
		log:          log.With().Str("job", "scheduled-refresh").Logger(),
	}
}

// Name identifies the job in scheduler logs.
func (j *ScheduledJob) Name() string {
	return "scheduled-refresh"
}

// Run refreshes every stale position, then recomputes totals and appends a
// snapshot for each affected portfolio. Per-position failures are logged
// and skipped; the job itself only fails on storage-level errors.
func (j *ScheduledJob) Run() error {
	cutoff := time.Now().UTC().Add(-j.staleness)

	stale, err := j.positions.GetStale(cutoff)
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		j.log.Debug().Msg("No stale positions")
		return nil
	}

	j.log.Info().Int("count", len(stale)).Msg("Refreshing stale positions")

	ctx := context.Background()
	touched := make(map[string]bool)

	for i, pos := range stale {
		// Fixed delay between external calls keeps us under provider rate limits
		if i > 0 && j.requestDelay > 0 {
			time.Sleep(j.requestDelay)
		}

		updated, ok := j.orchestrator.refreshOne(ctx, pos)
		if !ok {
			continue
		}
		if err := j.orchestrator.positions.Update(updated); err != nil {
			j.log.Error().Err(err).Str("id", pos.ID).Msg("Failed to persist refreshed position")
			continue
		}
		touched[pos.PortfolioID] = true
	}

	for portfolioID := range touched {
		positions, err := j.orchestrator.positions.GetByPortfolio(portfolioID)
		if err != nil {
			j.log.Error().Err(err).Str("portfolio", portfolioID).Msg("Failed to load positions for recompute")
			continue
		}
		if err := j.orchestrator.finalizePortfolio(portfolioID, positions); err != nil {
			j.log.Error().Err(err).Str("portfolio", portfolioID).Msg("Failed to recompute portfolio")
		}
	}

	return nil
}

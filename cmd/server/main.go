// foliotrack server: portfolio tracking with cached multi-source price
// resolution, valuation metrics, price alerts and scheduled refresh.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/foliotrack/foliotrack/internal/benchmarks"
	"github.com/foliotrack/foliotrack/internal/clients/alphavantage"
	"github.com/foliotrack/foliotrack/internal/clients/finnhub"
	"github.com/foliotrack/foliotrack/internal/config"
	"github.com/foliotrack/foliotrack/internal/database"
	"github.com/foliotrack/foliotrack/internal/pricing"
	"github.com/foliotrack/foliotrack/internal/refresh"
	"github.com/foliotrack/foliotrack/internal/scheduler"
	"github.com/foliotrack/foliotrack/internal/server"
	"github.com/foliotrack/foliotrack/internal/storage"
	"github.com/foliotrack/foliotrack/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	log.Info().Str("db", cfg.DatabasePath).Int("port", cfg.Port).Msg("Starting foliotrack")

	db, err := database.New(database.Config{Path: cfg.DatabasePath})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Quote sources and the cached fallback-chained resolver
	fh := finnhub.NewClient(cfg.FinnhubBaseURL, cfg.FinnhubAPIKey, cfg.QuoteTimeout, log)
	av := alphavantage.NewClient(cfg.AlphaVantageBaseURL, cfg.AlphaVantageAPIKey, cfg.QuoteTimeout, log)
	resolver := pricing.NewResolver(pricing.Config{
		APIEnabled:   cfg.QuoteAPIEnabled,
		PrimaryKey:   cfg.FinnhubAPIKey,
		SecondaryKey: cfg.AlphaVantageAPIKey,
		CacheTTL:     cfg.PriceCacheTTL,
	}, fh, av, log)

	portfolios := storage.NewPortfolioRepository(db.Conn(), log)
	positions := storage.NewPositionRepository(db.Conn(), log)
	history := storage.NewHistoryRepository(db.Conn(), log)
	benchmarkRepo := storage.NewBenchmarkRepository(db.Conn(), log)
	benchmarkSvc := benchmarks.NewService(benchmarkRepo, portfolios, fh, resolver, log)

	orchestrator := refresh.NewOrchestrator(
		resolver, positions, portfolios, history,
		cfg.RefreshConcurrency, log,
	)

	sched := scheduler.New(log)
	refreshJob := refresh.NewScheduledJob(
		orchestrator, positions,
		cfg.StalenessThreshold, cfg.RequestDelay, log,
	)
	if err := sched.AddJob(fmt.Sprintf("@every %s", cfg.RefreshInterval), refreshJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register refresh job")
	}
	sched.Start()

	srv := server.New(server.Config{
		Log:          log,
		Port:         cfg.Port,
		DevMode:      cfg.DevMode,
		Resolver:     resolver,
		Finnhub:      fh,
		Orchestrator: orchestrator,
		Portfolios:   portfolios,
		Positions:    positions,
		History:      history,
		Benchmarks:   benchmarkSvc,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("Server failed")
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("Shutdown complete")
}

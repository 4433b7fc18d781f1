// Package server provides the HTTP server and routing for foliotrack.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/foliotrack/foliotrack/internal/benchmarks"
	"github.com/foliotrack/foliotrack/internal/clients/finnhub"
	"github.com/foliotrack/foliotrack/internal/pricing"
	"github.com/foliotrack/foliotrack/internal/refresh"
	"github.com/foliotrack/foliotrack/internal/storage"
)

// Config holds server configuration
type Config struct {
	Log          zerolog.Logger
	Port         int
	DevMode      bool
	Resolver     *pricing.Resolver
	Finnhub      *finnhub.Client
	Orchestrator *refresh.Orchestrator
	Portfolios   *storage.PortfolioRepository
	Positions    *storage.PositionRepository
	History      *storage.HistoryRepository
	Benchmarks   *benchmarks.Service
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
}

// New creates a new HTTP server with all routes mounted.
func New(cfg Config) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if cfg.DevMode {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	marketHandler := NewMarketHandler(cfg.Resolver, cfg.Finnhub, cfg.Log)
	portfolioHandler := NewPortfolioHandler(
		cfg.Orchestrator, cfg.Resolver,
		cfg.Portfolios, cfg.Positions, cfg.History,
		cfg.Log,
	)
	benchmarkHandler := NewBenchmarkHandler(cfg.Benchmarks, cfg.Log)

	r.Route("/api", func(r chi.Router) {
		r.Route("/market", func(r chi.Router) {
			r.Get("/quote/{symbol}", marketHandler.HandleQuote)
			r.Get("/prices", marketHandler.HandleBatchPrices)
			r.Get("/search", marketHandler.HandleSearch)
			r.Post("/cache/clear", marketHandler.HandleClearCache)
		})

		r.Route("/portfolios", func(r chi.Router) {
			r.Post("/", portfolioHandler.HandleCreate)
			r.Get("/", portfolioHandler.HandleList)
			r.Route("/{portfolioID}", func(r chi.Router) {
				r.Get("/", portfolioHandler.HandleGet)
				r.Delete("/", portfolioHandler.HandleDelete)
				r.Post("/refresh", portfolioHandler.HandleRefresh)
				r.Get("/summary", portfolioHandler.HandleSummary)
				r.Get("/history", portfolioHandler.HandleHistory)
				r.Post("/positions", portfolioHandler.HandleAddPosition)
				r.Delete("/positions/{positionID}", portfolioHandler.HandleDeletePosition)
				r.Post("/watchlist", portfolioHandler.HandleAddWatchlistItem)
				r.Get("/watchlist", portfolioHandler.HandleGetWatchlist)
				r.Patch("/watchlist/{positionID}", portfolioHandler.HandleUpdateWatchlistItem)
				r.Post("/benchmarks", benchmarkHandler.HandleAdd)
				r.Get("/benchmarks", benchmarkHandler.HandleList)
				r.Delete("/benchmarks/{benchmarkID}", benchmarkHandler.HandleDelete)
				r.Post("/benchmarks/refresh", benchmarkHandler.HandleRefresh)
			})
		})
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return &Server{
		router: r,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		log: cfg.Log.With().Str("component", "server").Logger(),
	}
}

// Router exposes the router for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start begins listening. Blocks until the server stops.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

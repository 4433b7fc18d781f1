package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/foliotrack/foliotrack/internal/alerts"
	"github.com/foliotrack/foliotrack/internal/domain"
	"github.com/foliotrack/foliotrack/internal/pricing"
	"github.com/foliotrack/foliotrack/internal/refresh"
	"github.com/foliotrack/foliotrack/internal/storage"
	"github.com/foliotrack/foliotrack/internal/valuation"
)

// PortfolioHandler handles portfolio, position and watchlist HTTP requests.
type PortfolioHandler struct {
	orchestrator *refresh.Orchestrator
	resolver     *pricing.Resolver
	portfolios   *storage.PortfolioRepository
	positions    *storage.PositionRepository
	history      *storage.HistoryRepository
	log          zerolog.Logger
}

// NewPortfolioHandler creates a new portfolio handler.
func NewPortfolioHandler(
	orchestrator *refresh.Orchestrator,
	resolver *pricing.Resolver,
	portfolios *storage.PortfolioRepository,
	positions *storage.PositionRepository,
	history *storage.HistoryRepository,
	log zerolog.Logger,
) *PortfolioHandler {
	return &PortfolioHandler{
		orchestrator: orchestrator,
		resolver:     resolver,
		portfolios:   portfolios,
		positions:    positions,
		history:      history,
		log:          log.With().Str("handler", "portfolio").Logger(),
	}
}

type createPortfolioRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	BaseCurrency string `json:"base_currency"`
}

// HandleCreate creates a portfolio.
func (h *PortfolioHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createPortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	portfolio, err := h.portfolios.Create(domain.Portfolio{
		Name:         req.Name,
		Description:  req.Description,
		BaseCurrency: req.BaseCurrency,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, portfolio)
}

// HandleList returns all portfolios.
func (h *PortfolioHandler) HandleList(w http.ResponseWriter, _ *http.Request) {
	portfolios, err := h.portfolios.GetAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if portfolios == nil {
		portfolios = []domain.Portfolio{}
	}
	writeJSON(w, http.StatusOK, portfolios)
}

// HandleGet returns one portfolio with its positions.
func (h *PortfolioHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "portfolioID")

	portfolio, err := h.portfolios.GetByID(portfolioID)
	if err != nil {
		h.writeStorageError(w, err)
		return
	}
	positions, err := h.positions.GetByPortfolio(portfolioID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if positions == nil {
		positions = []domain.Position{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"portfolio": portfolio,
		"positions": positions,
	})
}

// HandleDelete removes a portfolio and everything attached to it.
func (h *PortfolioHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.portfolios.Delete(chi.URLParam(r, "portfolioID")); err != nil {
		h.writeStorageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRefresh runs a synchronous refresh of every position in the
// portfolio and returns the updated portfolio.
func (h *PortfolioHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	portfolio, err := h.orchestrator.RefreshPortfolio(r.Context(), chi.URLParam(r, "portfolioID"))
	if err != nil {
		h.writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, portfolio)
}

// HandleSummary returns the dashboard aggregate: totals, allocation
// breakdown, top performers and counts.
func (h *PortfolioHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "portfolioID")

	portfolio, err := h.portfolios.GetByID(portfolioID)
	if err != nil {
		h.writeStorageError(w, err)
		return
	}
	positions, err := h.positions.GetByPortfolio(portfolioID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	watchlistCount := 0
	for _, pos := range positions {
		if pos.Watchlist {
			watchlistCount++
		}
	}

	limit := 5
	if raw := r.URL.Query().Get("top"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"portfolio":        portfolio,
		"totals":           valuation.RecalculateTotals(positions),
		"allocation":       valuation.AssetAllocation(positions),
		"top_performers":   valuation.TopPerformers(positions, limit),
		"worst_performers": valuation.WorstPerformers(positions, limit),
		"asset_count":      len(positions) - watchlistCount,
		"watchlist_count":  watchlistCount,
	})
}

// HandleHistory returns valuation snapshots, optionally bounded by
// ?from=YYYY-MM-DD&to=YYYY-MM-DD.
func (h *PortfolioHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "portfolioID")

	if _, err := h.portfolios.GetByID(portfolioID); err != nil {
		h.writeStorageError(w, err)
		return
	}

	points, err := h.history.GetRange(portfolioID,
		r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if points == nil {
		points = []domain.HistoryPoint{}
	}
	writeJSON(w, http.StatusOK, points)
}

type addPositionRequest struct {
	Symbol        string              `json:"symbol"`
	Name          string              `json:"name"`
	AssetType     domain.AssetType    `json:"asset_type"`
	Quantity      decimal.Decimal     `json:"quantity"`
	PurchasePrice decimal.Decimal     `json:"purchase_price"`
	Currency      string              `json:"currency"`
	Details       domain.AssetDetails `json:"details"`
}

// HandleAddPosition adds an owned holding. The current price is resolved
// immediately so metrics are populated from the start.
func (h *PortfolioHandler) HandleAddPosition(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "portfolioID")

	if _, err := h.portfolios.GetByID(portfolioID); err != nil {
		h.writeStorageError(w, err)
		return
	}

	var req addPositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	if !req.AssetType.Valid() {
		writeError(w, http.StatusBadRequest, "invalid asset_type")
		return
	}
	if req.Quantity.Sign() <= 0 {
		writeError(w, http.StatusBadRequest, "quantity must be positive")
		return
	}

	quote, err := h.resolver.Resolve(r.Context(), req.Symbol)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now().UTC()
	pos := domain.Position{
		PortfolioID:     portfolioID,
		Symbol:          req.Symbol,
		Name:            req.Name,
		AssetType:       req.AssetType,
		Quantity:        req.Quantity,
		PurchasePrice:   req.PurchasePrice,
		CurrentPrice:    quote.Price,
		Currency:        req.Currency,
		PriceWhenAdded:  quote.Price,
		Details:         req.Details,
		LastPriceUpdate: &now,
	}
	pos = valuation.ComputeMetrics(pos)

	created, err := h.positions.Create(pos)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.recomputeTotals(portfolioID)
	writeJSON(w, http.StatusCreated, created)
}

// HandleDeletePosition removes a holding or watchlist entry.
func (h *PortfolioHandler) HandleDeletePosition(w http.ResponseWriter, r *http.Request) {
	if err := h.positions.Delete(chi.URLParam(r, "positionID")); err != nil {
		h.writeStorageError(w, err)
		return
	}
	h.recomputeTotals(chi.URLParam(r, "portfolioID"))
	w.WriteHeader(http.StatusNoContent)
}

type addWatchlistRequest struct {
	Symbol      string           `json:"symbol"`
	Name        string           `json:"name"`
	AssetType   domain.AssetType `json:"asset_type"`
	TargetPrice *decimal.Decimal `json:"target_price,omitempty"`
}

// HandleAddWatchlistItem adds a watchlist entry, capturing the price at
// add time. A duplicate symbol on the same watchlist is a conflict.
func (h *PortfolioHandler) HandleAddWatchlistItem(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "portfolioID")

	if _, err := h.portfolios.GetByID(portfolioID); err != nil {
		h.writeStorageError(w, err)
		return
	}

	var req addWatchlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	if req.AssetType == "" {
		req.AssetType = domain.AssetStock
	}
	if !req.AssetType.Valid() {
		writeError(w, http.StatusBadRequest, "invalid asset_type")
		return
	}

	quote, err := h.resolver.Resolve(r.Context(), req.Symbol)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now().UTC()
	pos := domain.Position{
		PortfolioID:     portfolioID,
		Symbol:          req.Symbol,
		Name:            req.Name,
		AssetType:       req.AssetType,
		Quantity:        decimal.Zero,
		PurchasePrice:   decimal.Zero,
		CurrentPrice:    quote.Price,
		PriceWhenAdded:  quote.Price,
		Watchlist:       true,
		TargetPrice:     req.TargetPrice,
		AlertEnabled:    req.TargetPrice != nil,
		LastPriceUpdate: &now,
	}
	pos = valuation.ComputeMetrics(pos)

	created, err := h.positions.Create(pos)
	if err != nil {
		h.writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleGetWatchlist returns the watchlist entries with their
// performance-since-added metric.
func (h *PortfolioHandler) HandleGetWatchlist(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "portfolioID")

	if _, err := h.portfolios.GetByID(portfolioID); err != nil {
		h.writeStorageError(w, err)
		return
	}

	items, err := h.positions.GetWatchlist(portfolioID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type watchlistItem struct {
		domain.Position
		PerformanceSinceAdded decimal.Decimal `json:"performance_since_added"`
	}
	result := make([]watchlistItem, 0, len(items))
	for _, item := range items {
		result = append(result, watchlistItem{
			Position:              item,
			PerformanceSinceAdded: valuation.PerformanceSinceAdded(item),
		})
	}
	writeJSON(w, http.StatusOK, result)
}

type updateWatchlistRequest struct {
	TargetPrice *decimal.Decimal `json:"target_price"`
}

// HandleUpdateWatchlistItem updates the target price. Setting a new target
// re-enables the alert and resets the fired flag so it can trigger again.
func (h *PortfolioHandler) HandleUpdateWatchlistItem(w http.ResponseWriter, r *http.Request) {
	pos, err := h.positions.GetByID(chi.URLParam(r, "positionID"))
	if err != nil {
		h.writeStorageError(w, err)
		return
	}
	switch {
	case pos.PortfolioID != chi.URLParam(r, "portfolioID"):
		h.log.Debug().Str("id", pos.ID).Str("portfolio", pos.PortfolioID).
			Msg("Watchlist update rejected, position belongs to another portfolio")
		writeError(w, http.StatusNotFound, "watchlist item not found")
		return
	case !pos.Watchlist:
		h.log.Debug().Str("id", pos.ID).
			Msg("Watchlist update rejected, position is an owned holding")
		writeError(w, http.StatusNotFound, "watchlist item not found")
		return
	}

	var req updateWatchlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.TargetPrice != nil {
		pos.TargetPrice = req.TargetPrice
		pos.AlertEnabled = true
		pos = alerts.Reset(pos)
	}

	if err := h.positions.Update(pos); err != nil {
		h.writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pos)
}

// recomputeTotals refreshes stored aggregates after membership changes.
// Best effort - the next refresh corrects any miss.
func (h *PortfolioHandler) recomputeTotals(portfolioID string) {
	positions, err := h.positions.GetByPortfolio(portfolioID)
	if err != nil {
		h.log.Error().Err(err).Str("portfolio", portfolioID).Msg("Failed to load positions for totals")
		return
	}
	if err := h.portfolios.UpdateTotals(portfolioID, valuation.RecalculateTotals(positions)); err != nil {
		h.log.Error().Err(err).Str("portfolio", portfolioID).Msg("Failed to update totals")
	}
}

func (h *PortfolioHandler) writeStorageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrDuplicateSymbol):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/foliotrack/foliotrack/internal/clients/finnhub"
	"github.com/foliotrack/foliotrack/internal/pricing"
)

// MarketHandler handles market-data HTTP requests.
type MarketHandler struct {
	resolver *pricing.Resolver
	finnhub  *finnhub.Client
	log      zerolog.Logger
}

// NewMarketHandler creates a new market handler.
func NewMarketHandler(resolver *pricing.Resolver, fh *finnhub.Client, log zerolog.Logger) *MarketHandler {
	return &MarketHandler{
		resolver: resolver,
		finnhub:  fh,
		log:      log.With().Str("handler", "market").Logger(),
	}
}

// HandleQuote returns the resolved quote for a symbol, including which
// source produced it.
func (h *MarketHandler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	quote, err := h.resolver.Resolve(r.Context(), symbol)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// HandleBatchPrices returns prices for ?symbols=AAPL,MSFT,...
func (h *MarketHandler) HandleBatchPrices(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("symbols")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "symbols query parameter is required")
		return
	}

	var symbols []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			symbols = append(symbols, s)
		}
	}

	prices := h.resolver.BatchPrices(r.Context(), symbols)
	writeJSON(w, http.StatusOK, prices)
}

// HandleSearch proxies the security search to the primary provider.
// Best effort: provider failure yields an empty result, not an error.
func (h *MarketHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q query parameter is required")
		return
	}

	results, err := h.finnhub.Search(r.Context(), query)
	if err != nil {
		h.log.Warn().Err(err).Str("query", query).Msg("Security search failed")
		results = []finnhub.SearchResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

// HandleClearCache drops all cached prices, forcing fresh resolution.
func (h *MarketHandler) HandleClearCache(w http.ResponseWriter, _ *http.Request) {
	h.resolver.ClearCache()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cache cleared"})
}

package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/foliotrack/foliotrack/internal/benchmarks"
	"github.com/foliotrack/foliotrack/internal/domain"
)

// BenchmarkHandler handles portfolio-benchmark HTTP requests.
type BenchmarkHandler struct {
	service *benchmarks.Service
	log     zerolog.Logger
}

// NewBenchmarkHandler creates a new benchmark handler.
func NewBenchmarkHandler(service *benchmarks.Service, log zerolog.Logger) *BenchmarkHandler {
	return &BenchmarkHandler{
		service: service,
		log:     log.With().Str("handler", "benchmark").Logger(),
	}
}

// HandleAdd attaches a benchmark index to a portfolio. Duplicate symbols
// on the same portfolio are a conflict.
func (h *BenchmarkHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req benchmarks.AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	b, err := h.service.Add(r.Context(), chi.URLParam(r, "portfolioID"), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// HandleList returns a portfolio's benchmarks.
func (h *BenchmarkHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(chi.URLParam(r, "portfolioID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []domain.Benchmark{}
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleDelete removes a benchmark from a portfolio.
func (h *BenchmarkHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(chi.URLParam(r, "portfolioID"), chi.URLParam(r, "benchmarkID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRefresh re-fetches market data for all benchmarks of a portfolio.
func (h *BenchmarkHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Refresh(r.Context(), chi.URLParam(r, "portfolioID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []domain.Benchmark{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *BenchmarkHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrDuplicateSymbol):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliotrack/foliotrack/internal/domain"
)

func addTestBenchmark(t *testing.T, handler http.Handler, portfolioID, symbol string) domain.Benchmark {
	t.Helper()

	rec := doRequest(t, handler, http.MethodPost, "/api/portfolios/"+portfolioID+"/benchmarks",
		map[string]string{"symbol": symbol, "name": symbol, "index_type": "EQUITY"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var b domain.Benchmark
	decodeJSON(t, rec, &b)
	return b
}

func TestAddBenchmark(t *testing.T) {
	handler := newTestServer(t)
	p := createTestPortfolio(t, handler)

	b := addTestBenchmark(t, handler, p.ID, "SP500")
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, "SP500", b.Symbol)
	assert.Equal(t, "USD", b.Currency)
	// Synthetic pricing answers for any symbol, so the first value is live
	assert.True(t, b.CurrentValue.Sign() > 0)
	assert.False(t, b.ChangePct.IsZero())
}

func TestAddBenchmarkValidation(t *testing.T) {
	handler := newTestServer(t)
	p := createTestPortfolio(t, handler)

	rec := doRequest(t, handler, http.MethodPost, "/api/portfolios/"+p.ID+"/benchmarks",
		map[string]string{"name": "no symbol"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddBenchmarkUnknownPortfolio(t *testing.T) {
	handler := newTestServer(t)

	rec := doRequest(t, handler, http.MethodPost, "/api/portfolios/missing/benchmarks",
		map[string]string{"symbol": "SP500"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddBenchmarkDuplicateConflict(t *testing.T) {
	handler := newTestServer(t)
	p := createTestPortfolio(t, handler)

	addTestBenchmark(t, handler, p.ID, "SP500")

	rec := doRequest(t, handler, http.MethodPost, "/api/portfolios/"+p.ID+"/benchmarks",
		map[string]string{"symbol": "sp500"})
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}

func TestListBenchmarks(t *testing.T) {
	handler := newTestServer(t)
	p := createTestPortfolio(t, handler)

	rec := doRequest(t, handler, http.MethodGet, "/api/portfolios/"+p.ID+"/benchmarks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []domain.Benchmark
	decodeJSON(t, rec, &list)
	assert.Empty(t, list)

	addTestBenchmark(t, handler, p.ID, "SP500")
	addTestBenchmark(t, handler, p.ID, "NASDAQ")

	rec = doRequest(t, handler, http.MethodGet, "/api/portfolios/"+p.ID+"/benchmarks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeJSON(t, rec, &list)
	assert.Len(t, list, 2)
}

func TestDeleteBenchmark(t *testing.T) {
	handler := newTestServer(t)
	p := createTestPortfolio(t, handler)
	b := addTestBenchmark(t, handler, p.ID, "SP500")

	rec := doRequest(t, handler, http.MethodDelete,
		fmt.Sprintf("/api/portfolios/%s/benchmarks/%s", p.ID, b.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, handler, http.MethodDelete,
		fmt.Sprintf("/api/portfolios/%s/benchmarks/%s", p.ID, b.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteBenchmarkWrongPortfolio(t *testing.T) {
	handler := newTestServer(t)
	p := createTestPortfolio(t, handler)
	b := addTestBenchmark(t, handler, p.ID, "SP500")

	other := createTestPortfolio(t, handler)
	rec := doRequest(t, handler, http.MethodDelete,
		fmt.Sprintf("/api/portfolios/%s/benchmarks/%s", other.ID, b.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Still present on its own portfolio
	rec = doRequest(t, handler, http.MethodGet, "/api/portfolios/"+p.ID+"/benchmarks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []domain.Benchmark
	decodeJSON(t, rec, &list)
	assert.Len(t, list, 1)
}

func TestRefreshBenchmarks(t *testing.T) {
	handler := newTestServer(t)
	p := createTestPortfolio(t, handler)
	addTestBenchmark(t, handler, p.ID, "SP500")
	addTestBenchmark(t, handler, p.ID, "DJI")

	rec := doRequest(t, handler, http.MethodPost, "/api/portfolios/"+p.ID+"/benchmarks/refresh", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var list []domain.Benchmark
	decodeJSON(t, rec, &list)
	require.Len(t, list, 2)
	for _, b := range list {
		assert.True(t, b.CurrentValue.Sign() > 0, b.Symbol)
	}
}

package storage

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliotrack/foliotrack/internal/domain"
)

func testBenchmarkRepos(t *testing.T) (*PortfolioRepository, *BenchmarkRepository) {
	t.Helper()

	db := testDB(t)
	log := zerolog.Nop()
	return NewPortfolioRepository(db.Conn(), log), NewBenchmarkRepository(db.Conn(), log)
}

func TestBenchmarkCreateAndGet(t *testing.T) {
	portfolios, benchmarks := testBenchmarkRepos(t)
	p := testPortfolio(t, portfolios)

	created, err := benchmarks.Create(domain.Benchmark{
		PortfolioID:  p.ID,
		Symbol:       "sp500",
		Name:         "S&P 500",
		IndexType:    "EQUITY",
		CurrentValue: dec("5000"),
		ChangeAmount: dec("25"),
		ChangePct:    dec("0.5"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "SP500", created.Symbol, "symbol is uppercased")
	assert.Equal(t, "USD", created.Currency, "currency defaults")

	got, err := benchmarks.GetByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.True(t, got.CurrentValue.Equal(dec("5000")))
	assert.True(t, got.ChangePct.Equal(dec("0.5")))
}

func TestBenchmarkGetByIDNotFound(t *testing.T) {
	_, benchmarks := testBenchmarkRepos(t)

	_, err := benchmarks.GetByID("missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBenchmarkDuplicateSymbol(t *testing.T) {
	portfolios, benchmarks := testBenchmarkRepos(t)
	p := testPortfolio(t, portfolios)

	_, err := benchmarks.Create(domain.Benchmark{PortfolioID: p.ID, Symbol: "SP500"})
	require.NoError(t, err)

	// Case-insensitive: the stored symbol is uppercased before insert
	_, err = benchmarks.Create(domain.Benchmark{PortfolioID: p.ID, Symbol: "sp500"})
	assert.ErrorIs(t, err, domain.ErrDuplicateSymbol)

	// The same symbol on another portfolio is fine
	other, err := portfolios.Create(domain.Portfolio{Name: "Other"})
	require.NoError(t, err)
	_, err = benchmarks.Create(domain.Benchmark{PortfolioID: other.ID, Symbol: "SP500"})
	assert.NoError(t, err)
}

func TestBenchmarkGetByPortfolio(t *testing.T) {
	portfolios, benchmarks := testBenchmarkRepos(t)
	p := testPortfolio(t, portfolios)

	for _, symbol := range []string{"SP500", "NASDAQ", "DJI"} {
		_, err := benchmarks.Create(domain.Benchmark{PortfolioID: p.ID, Symbol: symbol})
		require.NoError(t, err)
	}

	list, err := benchmarks.GetByPortfolio(p.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "SP500", list[0].Symbol, "insertion order preserved")
	assert.Equal(t, "DJI", list[2].Symbol)
}

func TestBenchmarkUpdateValues(t *testing.T) {
	portfolios, benchmarks := testBenchmarkRepos(t)
	p := testPortfolio(t, portfolios)

	b, err := benchmarks.Create(domain.Benchmark{PortfolioID: p.ID, Symbol: "NIFTY50"})
	require.NoError(t, err)

	b.CurrentValue = dec("24500.5")
	b.ChangeAmount = dec("-120.25")
	b.ChangePct = dec("-0.49")
	require.NoError(t, benchmarks.UpdateValues(b))

	got, err := benchmarks.GetByID(b.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentValue.Equal(dec("24500.5")))
	assert.True(t, got.ChangeAmount.Equal(dec("-120.25")))

	err = benchmarks.UpdateValues(domain.Benchmark{ID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBenchmarkDelete(t *testing.T) {
	portfolios, benchmarks := testBenchmarkRepos(t)
	p := testPortfolio(t, portfolios)

	b, err := benchmarks.Create(domain.Benchmark{PortfolioID: p.ID, Symbol: "SP500"})
	require.NoError(t, err)

	require.NoError(t, benchmarks.Delete(b.ID))
	assert.ErrorIs(t, benchmarks.Delete(b.ID), domain.ErrNotFound)
}

func TestBenchmarkCascadeOnPortfolioDelete(t *testing.T) {
	portfolios, benchmarks := testBenchmarkRepos(t)
	p := testPortfolio(t, portfolios)

	b, err := benchmarks.Create(domain.Benchmark{PortfolioID: p.ID, Symbol: "SP500"})
	require.NoError(t, err)

	require.NoError(t, portfolios.Delete(p.ID))

	_, err = benchmarks.GetByID(b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

package storage

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/foliotrack/foliotrack/internal/database"
	"github.com/foliotrack/foliotrack/internal/domain"
)

// testDB opens an in-memory database with the full schema applied.
func testDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate())
	return db
}

func testRepos(t *testing.T) (*PortfolioRepository, *PositionRepository, *HistoryRepository) {
	t.Helper()

	db := testDB(t)
	log := zerolog.Nop()
	return NewPortfolioRepository(db.Conn(), log),
		NewPositionRepository(db.Conn(), log),
		NewHistoryRepository(db.Conn(), log)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testPortfolio(t *testing.T, portfolios *PortfolioRepository) domain.Portfolio {
	t.Helper()

	p, err := portfolios.Create(domain.Portfolio{Name: "Retirement"})
	require.NoError(t, err)
	return p
}

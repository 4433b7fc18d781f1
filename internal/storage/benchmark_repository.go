package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/foliotrack/foliotrack/internal/domain"
)

// BenchmarkRepository handles benchmark database operations.
type BenchmarkRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewBenchmarkRepository creates a new benchmark repository.
func NewBenchmarkRepository(db *sql.DB, log zerolog.Logger) *BenchmarkRepository {
	return &BenchmarkRepository{
		db:  db,
		log: log.With().Str("repo", "benchmark").Logger(),
	}
}

const benchmarkColumns = `id, portfolio_id, symbol, name, index_type, description,
	currency, current_value, change_amount, change_pct, last_updated, added_at`

// Create inserts a benchmark. A symbol already benchmarked on the same
// portfolio returns domain.ErrDuplicateSymbol.
func (r *BenchmarkRepository) Create(b domain.Benchmark) (domain.Benchmark, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.Symbol = strings.ToUpper(strings.TrimSpace(b.Symbol))
	if b.Currency == "" {
		b.Currency = "USD"
	}
	now := time.Now().UTC()
	b.AddedAt = now
	b.LastUpdated = now

	_, err := r.db.Exec(`INSERT INTO benchmarks (`+benchmarkColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.PortfolioID, b.Symbol, b.Name, b.IndexType, b.Description,
		b.Currency, b.CurrentValue.String(), b.ChangeAmount.String(), b.ChangePct.String(),
		b.LastUpdated.Unix(), b.AddedAt.Unix())
	if err != nil {
		if isUniqueViolation(err, "benchmarks.portfolio_id, benchmarks.symbol") {
			return domain.Benchmark{}, domain.ErrDuplicateSymbol
		}
		return domain.Benchmark{}, fmt.Errorf("failed to insert benchmark: %w", err)
	}

	r.log.Info().Str("id", b.ID).Str("symbol", b.Symbol).Msg("Benchmark created")
	return b, nil
}

// GetByID returns a benchmark or domain.ErrNotFound.
func (r *BenchmarkRepository) GetByID(id string) (domain.Benchmark, error) {
	row := r.db.QueryRow(`SELECT `+benchmarkColumns+` FROM benchmarks WHERE id = ?`, id)
	b, err := scanBenchmark(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Benchmark{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Benchmark{}, fmt.Errorf("failed to get benchmark: %w", err)
	}
	return b, nil
}

// GetByPortfolio returns all benchmarks of a portfolio in insertion order.
func (r *BenchmarkRepository) GetByPortfolio(portfolioID string) ([]domain.Benchmark, error) {
	rows, err := r.db.Query(`SELECT `+benchmarkColumns+` FROM benchmarks
		WHERE portfolio_id = ? ORDER BY added_at, id`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query benchmarks: %w", err)
	}
	defer rows.Close()

	var benchmarks []domain.Benchmark
	for rows.Next() {
		b, err := scanBenchmark(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan benchmark: %w", err)
		}
		benchmarks = append(benchmarks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating benchmarks: %w", err)
	}
	return benchmarks, nil
}

// UpdateValues persists refreshed market data for a benchmark.
func (r *BenchmarkRepository) UpdateValues(b domain.Benchmark) error {
	b.LastUpdated = time.Now().UTC()

	res, err := r.db.Exec(`UPDATE benchmarks SET
		current_value = ?, change_amount = ?, change_pct = ?, last_updated = ?
		WHERE id = ?`,
		b.CurrentValue.String(), b.ChangeAmount.String(), b.ChangePct.String(),
		b.LastUpdated.Unix(), b.ID)
	if err != nil {
		return fmt.Errorf("failed to update benchmark: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a benchmark.
func (r *BenchmarkRepository) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM benchmarks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete benchmark: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanBenchmark(s scanner) (domain.Benchmark, error) {
	var b domain.Benchmark
	var currentValue, changeAmount, changePct string
	var lastUpdated, addedAt int64

	err := s.Scan(&b.ID, &b.PortfolioID, &b.Symbol, &b.Name, &b.IndexType,
		&b.Description, &b.Currency, &currentValue, &changeAmount, &changePct,
		&lastUpdated, &addedAt)
	if err != nil {
		return domain.Benchmark{}, err
	}

	if b.CurrentValue, err = decimal.NewFromString(currentValue); err != nil {
		return domain.Benchmark{}, fmt.Errorf("invalid current_value: %w", err)
	}
	if b.ChangeAmount, err = decimal.NewFromString(changeAmount); err != nil {
		return domain.Benchmark{}, fmt.Errorf("invalid change_amount: %w", err)
	}
	if b.ChangePct, err = decimal.NewFromString(changePct); err != nil {
		return domain.Benchmark{}, fmt.Errorf("invalid change_pct: %w", err)
	}

	b.LastUpdated = time.Unix(lastUpdated, 0).UTC()
	b.AddedAt = time.Unix(addedAt, 0).UTC()
	return b, nil
}

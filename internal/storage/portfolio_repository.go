// Package storage provides SQLite-backed repositories for portfolios,
// positions and history snapshots.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/foliotrack/foliotrack/internal/domain"
	"github.com/foliotrack/foliotrack/internal/valuation"
)

// PortfolioRepository handles portfolio database operations.
type PortfolioRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPortfolioRepository creates a new portfolio repository.
func NewPortfolioRepository(db *sql.DB, log zerolog.Logger) *PortfolioRepository {
	return &PortfolioRepository{
		db:  db,
		log: log.With().Str("repo", "portfolio").Logger(),
	}
}

const portfolioColumns = `id, name, description, base_currency, total_value,
	total_investment, total_gain_loss, gain_loss_pct, created_at, updated_at`

// Create inserts a new portfolio, assigning an ID and timestamps.
func (r *PortfolioRepository) Create(p domain.Portfolio) (domain.Portfolio, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.BaseCurrency == "" {
		p.BaseCurrency = "USD"
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.TotalValue = decimal.Zero
	p.TotalInvestment = decimal.Zero
	p.TotalGainLoss = decimal.Zero
	p.GainLossPct = decimal.Zero

	_, err := r.db.Exec(`INSERT INTO portfolios (`+portfolioColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.BaseCurrency,
		p.TotalValue.String(), p.TotalInvestment.String(),
		p.TotalGainLoss.String(), p.GainLossPct.String(),
		p.CreatedAt.Unix(), p.UpdatedAt.Unix())
	if err != nil {
		return domain.Portfolio{}, fmt.Errorf("failed to insert portfolio: %w", err)
	}

	r.log.Info().Str("id", p.ID).Str("name", p.Name).Msg("Portfolio created")
	return p, nil
}

// GetByID returns a portfolio or domain.ErrNotFound.
func (r *PortfolioRepository) GetByID(id string) (domain.Portfolio, error) {
	row := r.db.QueryRow(`SELECT `+portfolioColumns+` FROM portfolios WHERE id = ?`, id)
	p, err := scanPortfolio(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Portfolio{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Portfolio{}, fmt.Errorf("failed to get portfolio: %w", err)
	}
	return p, nil
}

// GetAll returns all portfolios, newest first.
func (r *PortfolioRepository) GetAll() ([]domain.Portfolio, error) {
	rows, err := r.db.Query(`SELECT ` + portfolioColumns + ` FROM portfolios ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	var portfolios []domain.Portfolio
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		portfolios = append(portfolios, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolios: %w", err)
	}
	return portfolios, nil
}

// UpdateTotals writes recomputed aggregate metrics for a portfolio.
func (r *PortfolioRepository) UpdateTotals(id string, totals valuation.Totals) error {
	res, err := r.db.Exec(`UPDATE portfolios SET total_value = ?, total_investment = ?,
		total_gain_loss = ?, gain_loss_pct = ?, updated_at = ? WHERE id = ?`,
		totals.TotalValue.String(), totals.TotalInvestment.String(),
		totals.GainLoss.String(), totals.GainLossPct.String(),
		time.Now().UTC().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to update portfolio totals: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a portfolio and, via cascade, its positions and history.
func (r *PortfolioRepository) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM portfolios WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return domain.ErrNotFound
	}
	r.log.Info().Str("id", id).Msg("Portfolio deleted")
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPortfolio(s scanner) (domain.Portfolio, error) {
	var p domain.Portfolio
	var totalValue, totalInvestment, gainLoss, gainLossPct string
	var createdAt, updatedAt int64

	err := s.Scan(&p.ID, &p.Name, &p.Description, &p.BaseCurrency,
		&totalValue, &totalInvestment, &gainLoss, &gainLossPct,
		&createdAt, &updatedAt)
	if err != nil {
		return domain.Portfolio{}, err
	}

	if p.TotalValue, err = decimal.NewFromString(totalValue); err != nil {
		return domain.Portfolio{}, fmt.Errorf("invalid total_value: %w", err)
	}
	if p.TotalInvestment, err = decimal.NewFromString(totalInvestment); err != nil {
		return domain.Portfolio{}, fmt.Errorf("invalid total_investment: %w", err)
	}
	if p.TotalGainLoss, err = decimal.NewFromString(gainLoss); err != nil {
		return domain.Portfolio{}, fmt.Errorf("invalid total_gain_loss: %w", err)
	}
	if p.GainLossPct, err = decimal.NewFromString(gainLossPct); err != nil {
		return domain.Portfolio{}, fmt.Errorf("invalid gain_loss_pct: %w", err)
	}

	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	p.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return p, nil
}

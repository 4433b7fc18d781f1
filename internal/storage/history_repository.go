package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/foliotrack/foliotrack/internal/domain"
)

// HistoryRepository appends and reads portfolio valuation snapshots.
// The table is append-only: snapshots are never updated or deleted by the
// application.
type HistoryRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewHistoryRepository creates a new history repository.
func NewHistoryRepository(db *sql.DB, log zerolog.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:  db,
		log: log.With().Str("repo", "history").Logger(),
	}
}

// Append records a snapshot of portfolio totals.
func (r *HistoryRepository) Append(point domain.HistoryPoint) error {
	if point.RecordDate == "" {
		point.RecordDate = time.Now().UTC().Format("2006-01-02")
	}

	_, err := r.db.Exec(`INSERT INTO portfolio_history
		(portfolio_id, record_date, total_value, total_investment, gain_loss, gain_loss_pct, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		point.PortfolioID, point.RecordDate,
		point.TotalValue.String(), point.TotalInvestment.String(),
		point.GainLoss.String(), point.GainLossPct.String(),
		time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("failed to append history snapshot: %w", err)
	}
	return nil
}

// GetRange returns snapshots for a portfolio ordered by date ascending.
// Empty from/to bounds are open-ended.
func (r *HistoryRepository) GetRange(portfolioID, from, to string) ([]domain.HistoryPoint, error) {
	query := `SELECT portfolio_id, record_date, total_value, total_investment, gain_loss, gain_loss_pct
		FROM portfolio_history WHERE portfolio_id = ?`
	args := []interface{}{portfolioID}

	if from != "" {
		query += ` AND record_date >= ?`
		args = append(args, from)
	}
	if to != "" {
		query += ` AND record_date <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY record_date ASC, id ASC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var points []domain.HistoryPoint
	for rows.Next() {
		var p domain.HistoryPoint
		var totalValue, totalInvestment, gainLoss, gainLossPct string

		if err := rows.Scan(&p.PortfolioID, &p.RecordDate,
			&totalValue, &totalInvestment, &gainLoss, &gainLossPct); err != nil {
			return nil, fmt.Errorf("failed to scan history point: %w", err)
		}

		if p.TotalValue, err = decimal.NewFromString(totalValue); err != nil {
			return nil, fmt.Errorf("invalid total_value: %w", err)
		}
		if p.TotalInvestment, err = decimal.NewFromString(totalInvestment); err != nil {
			return nil, fmt.Errorf("invalid total_investment: %w", err)
		}
		if p.GainLoss, err = decimal.NewFromString(gainLoss); err != nil {
			return nil, fmt.Errorf("invalid gain_loss: %w", err)
		}
		if p.GainLossPct, err = decimal.NewFromString(gainLossPct); err != nil {
			return nil, fmt.Errorf("invalid gain_loss_pct: %w", err)
		}

		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}
	return points, nil
}

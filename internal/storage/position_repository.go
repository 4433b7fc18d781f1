package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/foliotrack/foliotrack/internal/domain"
)

// PositionRepository handles position database operations for both owned
// holdings and watchlist entries.
type PositionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPositionRepository creates a new position repository.
func NewPositionRepository(db *sql.DB, log zerolog.Logger) *PositionRepository {
	return &PositionRepository{
		db:  db,
		log: log.With().Str("repo", "position").Logger(),
	}
}

const positionColumns = `id, portfolio_id, symbol, name, asset_type, quantity,
	purchase_price, current_price, currency, invested_amount, current_value,
	gain_loss, gain_loss_pct, is_watchlist, target_price, alert_enabled,
	alert_fired, price_when_added, details, last_price_update, created_at, updated_at`

// Create inserts a position. Adding a watchlist entry for a symbol already
// watched in the same portfolio returns domain.ErrDuplicateSymbol.
func (r *PositionRepository) Create(pos domain.Position) (domain.Position, error) {
	if pos.ID == "" {
		pos.ID = uuid.NewString()
	}
	pos.Symbol = strings.ToUpper(strings.TrimSpace(pos.Symbol))
	if pos.Currency == "" {
		pos.Currency = "USD"
	}
	now := time.Now().UTC()
	pos.CreatedAt = now
	pos.UpdatedAt = now

	details, err := json.Marshal(pos.Details)
	if err != nil {
		return domain.Position{}, fmt.Errorf("failed to marshal details: %w", err)
	}

	_, err = r.db.Exec(`INSERT INTO positions (`+positionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pos.ID, pos.PortfolioID, pos.Symbol, pos.Name, string(pos.AssetType),
		pos.Quantity.String(), pos.PurchasePrice.String(), pos.CurrentPrice.String(),
		pos.Currency, pos.InvestedAmount.String(), pos.CurrentValue.String(),
		pos.GainLoss.String(), pos.GainLossPct.String(),
		boolToInt(pos.Watchlist), nullableDecimal(pos.TargetPrice),
		boolToInt(pos.AlertEnabled), boolToInt(pos.AlertFired),
		pos.PriceWhenAdded.String(), string(details),
		nullableTime(pos.LastPriceUpdate), pos.CreatedAt.Unix(), pos.UpdatedAt.Unix())
	if err != nil {
		// The partial unique index is the authority on watchlist duplicates;
		// relying on it instead of a pre-check closes the insert race.
		if isUniqueViolation(err, "positions.portfolio_id, positions.symbol") {
			return domain.Position{}, domain.ErrDuplicateSymbol
		}
		return domain.Position{}, fmt.Errorf("failed to insert position: %w", err)
	}

	r.log.Info().
		Str("id", pos.ID).
		Str("symbol", pos.Symbol).
		Bool("watchlist", pos.Watchlist).
		Msg("Position created")
	return pos, nil
}

// GetByID returns a position or domain.ErrNotFound.
func (r *PositionRepository) GetByID(id string) (domain.Position, error) {
	row := r.db.QueryRow(`SELECT `+positionColumns+` FROM positions WHERE id = ?`, id)
	pos, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Position{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Position{}, fmt.Errorf("failed to get position: %w", err)
	}
	return pos, nil
}

// GetByPortfolio returns all positions of a portfolio, owned and watchlist,
// in insertion order.
func (r *PositionRepository) GetByPortfolio(portfolioID string) ([]domain.Position, error) {
	return r.query(`SELECT `+positionColumns+` FROM positions
		WHERE portfolio_id = ? ORDER BY created_at, id`, portfolioID)
}

// GetWatchlist returns only the watchlist entries of a portfolio.
func (r *PositionRepository) GetWatchlist(portfolioID string) ([]domain.Position, error) {
	return r.query(`SELECT `+positionColumns+` FROM positions
		WHERE portfolio_id = ? AND is_watchlist = 1 ORDER BY created_at, id`, portfolioID)
}

// GetStale returns positions across all portfolios whose last price update
// is missing or older than the cutoff. Used by the scheduled refresher.
func (r *PositionRepository) GetStale(cutoff time.Time) ([]domain.Position, error) {
	return r.query(`SELECT `+positionColumns+` FROM positions
		WHERE last_price_update IS NULL OR last_price_update < ?
		ORDER BY portfolio_id, created_at, id`, cutoff.Unix())
}

// Update persists refreshed price, metrics and alert state for a position.
func (r *PositionRepository) Update(pos domain.Position) error {
	pos.UpdatedAt = time.Now().UTC()

	res, err := r.db.Exec(`UPDATE positions SET
		name = ?, quantity = ?, purchase_price = ?, current_price = ?,
		invested_amount = ?, current_value = ?, gain_loss = ?, gain_loss_pct = ?,
		target_price = ?, alert_enabled = ?, alert_fired = ?,
		last_price_update = ?, updated_at = ?
		WHERE id = ?`,
		pos.Name, pos.Quantity.String(), pos.PurchasePrice.String(), pos.CurrentPrice.String(),
		pos.InvestedAmount.String(), pos.CurrentValue.String(),
		pos.GainLoss.String(), pos.GainLossPct.String(),
		nullableDecimal(pos.TargetPrice), boolToInt(pos.AlertEnabled), boolToInt(pos.AlertFired),
		nullableTime(pos.LastPriceUpdate), pos.UpdatedAt.Unix(),
		pos.ID)
	if err != nil {
		return fmt.Errorf("failed to update position: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a position.
func (r *PositionRepository) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM positions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete position: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PositionRepository) query(q string, args ...interface{}) ([]domain.Position, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []domain.Position
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}
	return positions, nil
}

// isUniqueViolation matches the SQLite unique-constraint error for a
// specific index by its column list, so violations of unrelated indexes
// (like the primary key) are not misreported.
func isUniqueViolation(err error, columns string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: "+columns)
}

func scanPosition(s scanner) (domain.Position, error) {
	var pos domain.Position
	var assetType, quantity, purchasePrice, currentPrice string
	var invested, value, gainLoss, gainLossPct, priceWhenAdded, details string
	var watchlist, alertEnabled, alertFired int
	var targetPrice sql.NullString
	var lastUpdate sql.NullInt64
	var createdAt, updatedAt int64

	err := s.Scan(&pos.ID, &pos.PortfolioID, &pos.Symbol, &pos.Name, &assetType,
		&quantity, &purchasePrice, &currentPrice, &pos.Currency,
		&invested, &value, &gainLoss, &gainLossPct,
		&watchlist, &targetPrice, &alertEnabled, &alertFired,
		&priceWhenAdded, &details, &lastUpdate, &createdAt, &updatedAt)
	if err != nil {
		return domain.Position{}, err
	}

	pos.AssetType = domain.AssetType(assetType)
	fields := []struct {
		raw  string
		dest *decimal.Decimal
	}{
		{quantity, &pos.Quantity},
		{purchasePrice, &pos.PurchasePrice},
		{currentPrice, &pos.CurrentPrice},
		{invested, &pos.InvestedAmount},
		{value, &pos.CurrentValue},
		{gainLoss, &pos.GainLoss},
		{gainLossPct, &pos.GainLossPct},
		{priceWhenAdded, &pos.PriceWhenAdded},
	}
	for _, f := range fields {
		if *f.dest, err = decimal.NewFromString(f.raw); err != nil {
			return domain.Position{}, fmt.Errorf("invalid decimal %q: %w", f.raw, err)
		}
	}

	pos.Watchlist = watchlist == 1
	pos.AlertEnabled = alertEnabled == 1
	pos.AlertFired = alertFired == 1

	if targetPrice.Valid {
		tp, err := decimal.NewFromString(targetPrice.String)
		if err != nil {
			return domain.Position{}, fmt.Errorf("invalid target_price: %w", err)
		}
		pos.TargetPrice = &tp
	}
	if lastUpdate.Valid {
		t := time.Unix(lastUpdate.Int64, 0).UTC()
		pos.LastPriceUpdate = &t
	}
	if err := json.Unmarshal([]byte(details), &pos.Details); err != nil {
		return domain.Position{}, fmt.Errorf("invalid details payload: %w", err)
	}

	pos.CreatedAt = time.Unix(createdAt, 0).UTC()
	pos.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return pos, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableDecimal(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Unix()
}

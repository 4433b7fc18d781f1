// Package valuation derives per-position and per-portfolio gain/loss
// metrics from quantities and prices. All functions are pure: they take
// positions and return updated copies or aggregates.
//
// Rounding is half-up throughout: 2 fractional digits for currency
// amounts, 4 for ratios before scaling to percentages.
package valuation

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/foliotrack/foliotrack/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Totals aggregates a portfolio's owned positions.
type Totals struct {
	TotalValue      decimal.Decimal `json:"total_value"`
	TotalInvestment decimal.Decimal `json:"total_investment"`
	GainLoss        decimal.Decimal `json:"gain_loss"`
	GainLossPct     decimal.Decimal `json:"gain_loss_pct"`
}

// ComputeMetrics recomputes the four derived fields of a position from its
// quantity, purchase price and current price:
//
//	investedAmount = purchasePrice * quantity
//	currentValue   = currentPrice * quantity
//	gainLoss       = currentValue - investedAmount
//	gainLossPct    = gainLoss / investedAmount * 100 (0 when invested is 0)
func ComputeMetrics(pos domain.Position) domain.Position {
	pos.InvestedAmount = pos.PurchasePrice.Mul(pos.Quantity)
	pos.CurrentValue = pos.CurrentPrice.Mul(pos.Quantity)
	pos.GainLoss = pos.CurrentValue.Sub(pos.InvestedAmount)
	pos.GainLossPct = percentage(pos.GainLoss, pos.InvestedAmount)
	return pos
}

// RecalculateTotals sums current value and invested amount over owned,
// non-watchlist positions. Watchlist entries never contribute.
func RecalculateTotals(positions []domain.Position) Totals {
	totals := Totals{
		TotalValue:      decimal.Zero,
		TotalInvestment: decimal.Zero,
	}

	for _, pos := range positions {
		if pos.Watchlist {
			continue
		}
		totals.TotalValue = totals.TotalValue.Add(pos.CurrentValue)
		totals.TotalInvestment = totals.TotalInvestment.Add(pos.InvestedAmount)
	}

	totals.GainLoss = totals.TotalValue.Sub(totals.TotalInvestment)
	totals.GainLossPct = percentage(totals.GainLoss, totals.TotalInvestment)
	return totals
}

// AssetAllocation groups owned positions by asset type and computes each
// type's share of total current value. Returns an empty slice when total
// value is zero. The result is ordered by descending value for stable
// output.
func AssetAllocation(positions []domain.Position) []domain.Allocation {
	totalValue := decimal.Zero
	byType := make(map[domain.AssetType]*domain.Allocation)
	order := []domain.AssetType{}

	for _, pos := range positions {
		if pos.Watchlist {
			continue
		}
		totalValue = totalValue.Add(pos.CurrentValue)

		entry, ok := byType[pos.AssetType]
		if !ok {
			entry = &domain.Allocation{AssetType: pos.AssetType, TotalValue: decimal.Zero}
			byType[pos.AssetType] = entry
			order = append(order, pos.AssetType)
		}
		entry.TotalValue = entry.TotalValue.Add(pos.CurrentValue)
		entry.Count++
	}

	if totalValue.Sign() == 0 {
		return []domain.Allocation{}
	}

	allocations := make([]domain.Allocation, 0, len(order))
	for _, assetType := range order {
		entry := byType[assetType]
		entry.Percentage = entry.TotalValue.DivRound(totalValue, 4).Mul(hundred)
		allocations = append(allocations, *entry)
	}

	sort.SliceStable(allocations, func(i, j int) bool {
		return allocations[i].TotalValue.GreaterThan(allocations[j].TotalValue)
	})
	return allocations
}

// TopPerformers returns up to limit owned positions sorted by gain/loss
// percentage descending. Ties keep input order (stable sort).
func TopPerformers(positions []domain.Position, limit int) []domain.Position {
	return performers(positions, limit, func(a, b domain.Position) bool {
		return a.GainLossPct.GreaterThan(b.GainLossPct)
	})
}

// WorstPerformers returns up to limit owned positions sorted by gain/loss
// percentage ascending.
func WorstPerformers(positions []domain.Position, limit int) []domain.Position {
	return performers(positions, limit, func(a, b domain.Position) bool {
		return a.GainLossPct.LessThan(b.GainLossPct)
	})
}

// PerformanceSinceAdded is the watchlist metric: percentage change between
// the price captured when the entry was added and the current price.
// Returns zero when the baseline price is zero.
func PerformanceSinceAdded(pos domain.Position) decimal.Decimal {
	if pos.PriceWhenAdded.Sign() == 0 {
		return decimal.Zero
	}
	return percentage(pos.CurrentPrice.Sub(pos.PriceWhenAdded), pos.PriceWhenAdded)
}

func performers(positions []domain.Position, limit int, less func(a, b domain.Position) bool) []domain.Position {
	owned := make([]domain.Position, 0, len(positions))
	for _, pos := range positions {
		if !pos.Watchlist {
			owned = append(owned, pos)
		}
	}

	sort.SliceStable(owned, func(i, j int) bool { return less(owned[i], owned[j]) })

	if limit > 0 && len(owned) > limit {
		owned = owned[:limit]
	}
	return owned
}

// percentage computes part/base*100 as a half-up 4-digit ratio, matching
// the persistence precision of gain_loss_pct. Zero base yields zero.
func percentage(part, base decimal.Decimal) decimal.Decimal {
	if base.Sign() <= 0 {
		return decimal.Zero
	}
	return part.DivRound(base, 4).Mul(hundred)
}

// Package domain contains the core data model shared across the application.
// It has no infrastructure dependencies.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetType discriminates the kind of security a position tracks.
type AssetType string

const (
	AssetStock      AssetType = "STOCK"
	AssetBond       AssetType = "BOND"
	AssetMutualFund AssetType = "MUTUAL_FUND"
	AssetSIP        AssetType = "SIP"
)

// Valid reports whether the asset type is one of the known discriminants.
func (t AssetType) Valid() bool {
	switch t {
	case AssetStock, AssetBond, AssetMutualFund, AssetSIP:
		return true
	}
	return false
}

// QuoteSource tags where a price came from.
type QuoteSource string

const (
	SourceLivePrimary   QuoteSource = "live-primary"
	SourceLiveSecondary QuoteSource = "live-secondary"
	SourceSynthetic     QuoteSource = "synthetic"
)

// PriceQuote is an ephemeral resolved price. It lives in the price cache
// only and is never persisted.
type PriceQuote struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Source    QuoteSource     `json:"source"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// StockDetails is the payload for AssetStock positions.
type StockDetails struct {
	Exchange      string          `json:"exchange,omitempty"`
	Sector        string          `json:"sector,omitempty"`
	DividendYield decimal.Decimal `json:"dividend_yield"`
}

// BondDetails is the payload for AssetBond positions.
type BondDetails struct {
	Issuer       string          `json:"issuer,omitempty"`
	BondType     string          `json:"bond_type,omitempty"`
	CouponRate   decimal.Decimal `json:"coupon_rate"`
	CreditRating string          `json:"credit_rating,omitempty"`
	MaturityDate string          `json:"maturity_date,omitempty"` // YYYY-MM-DD
}

// MutualFundDetails is the payload for AssetMutualFund positions.
type MutualFundDetails struct {
	FundHouse    string          `json:"fund_house,omitempty"`
	Category     string          `json:"category,omitempty"`
	ExpenseRatio decimal.Decimal `json:"expense_ratio"`
	RiskLevel    string          `json:"risk_level,omitempty"`
}

// SIPDetails is the payload for AssetSIP positions.
type SIPDetails struct {
	SchemeName        string          `json:"scheme_name,omitempty"`
	FundHouse         string          `json:"fund_house,omitempty"`
	MonthlyInvestment decimal.Decimal `json:"monthly_investment"`
	Frequency         string          `json:"frequency,omitempty"` // MONTHLY, QUARTERLY, YEARLY
}

// AssetDetails holds the type-specific payload for a position. Exactly the
// pointer matching the position's AssetType is set.
type AssetDetails struct {
	Stock      *StockDetails      `json:"stock,omitempty"`
	Bond       *BondDetails       `json:"bond,omitempty"`
	MutualFund *MutualFundDetails `json:"mutual_fund,omitempty"`
	SIP        *SIPDetails        `json:"sip,omitempty"`
}

// Position is a single tracked security: either an owned holding
// (Quantity > 0, Watchlist false) or a watchlist entry (Watchlist true,
// Quantity 0). The four derived fields (InvestedAmount, CurrentValue,
// GainLoss, GainLossPct) are recomputed on every refresh.
type Position struct {
	ID          string    `json:"id"`
	PortfolioID string    `json:"portfolio_id"`
	Symbol      string    `json:"symbol"`
	Name        string    `json:"name"`
	AssetType   AssetType `json:"asset_type"`

	Quantity      decimal.Decimal `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	Currency      string          `json:"currency"`

	InvestedAmount decimal.Decimal `json:"invested_amount"`
	CurrentValue   decimal.Decimal `json:"current_value"`
	GainLoss       decimal.Decimal `json:"gain_loss"`
	GainLossPct    decimal.Decimal `json:"gain_loss_pct"`

	Watchlist      bool             `json:"watchlist"`
	TargetPrice    *decimal.Decimal `json:"target_price,omitempty"`
	AlertEnabled   bool             `json:"alert_enabled"`
	AlertFired     bool             `json:"alert_fired"`
	PriceWhenAdded decimal.Decimal  `json:"price_when_added"`

	Details AssetDetails `json:"details"`

	LastPriceUpdate *time.Time `json:"last_price_update,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Portfolio owns a set of positions. Totals cover owned positions only.
type Portfolio struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	BaseCurrency string `json:"base_currency"`

	TotalValue      decimal.Decimal `json:"total_value"`
	TotalInvestment decimal.Decimal `json:"total_investment"`
	TotalGainLoss   decimal.Decimal `json:"total_gain_loss"`
	GainLossPct     decimal.Decimal `json:"gain_loss_pct"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HistoryPoint is one append-only snapshot of portfolio totals, recorded
// after each recompute for later charting.
type HistoryPoint struct {
	PortfolioID     string          `json:"portfolio_id"`
	RecordDate      string          `json:"record_date"` // YYYY-MM-DD
	TotalValue      decimal.Decimal `json:"total_value"`
	TotalInvestment decimal.Decimal `json:"total_investment"`
	GainLoss        decimal.Decimal `json:"gain_loss"`
	GainLossPct     decimal.Decimal `json:"gain_loss_pct"`
}

// Benchmark is a market index tracked alongside a portfolio for
// performance comparison. Values are refreshed through the same quote
// chain as positions.
type Benchmark struct {
	ID          string `json:"id"`
	PortfolioID string `json:"portfolio_id"`
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	IndexType   string `json:"index_type,omitempty"` // EQUITY, BOND, COMMODITY, CURRENCY
	Description string `json:"description,omitempty"`
	Currency    string `json:"currency"`

	CurrentValue decimal.Decimal `json:"current_value"`
	ChangeAmount decimal.Decimal `json:"change_amount"`
	ChangePct    decimal.Decimal `json:"change_pct"`

	LastUpdated time.Time `json:"last_updated"`
	AddedAt     time.Time `json:"added_at"`
}

// Allocation is one asset-type slice of the portfolio value breakdown.
type Allocation struct {
	AssetType  AssetType       `json:"asset_type"`
	TotalValue decimal.Decimal `json:"total_value"`
	Percentage decimal.Decimal `json:"percentage"`
	Count      int             `json:"count"`
}

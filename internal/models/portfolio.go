package models

import "time"

// Holding is a derived per-asset position computed from an entry stream.
// Holdings are never persisted; they are recomputed each time the stream changes.
type Holding struct {
	Symbol        string  `json:"symbol"`
	Quantity      float64 `json:"quantity"`
	AvgPrice      float64 `json:"avg_price"`      // running weighted-average entry price
	CostBasis     float64 `json:"cost_basis"`     // quantity × avg price, open positions only
	RealizedPnL   float64 `json:"realized_pnl"`   // accumulated from entry pnl values
	CurrentPrice  float64 `json:"current_price"`  // cached price, falls back to avg price
	CurrentValue  float64 `json:"current_value"`  // quantity × current price
	UnrealizedPnL float64 `json:"unrealized_pnl"` // current value − cost basis
	TotalPnL      float64 `json:"total_pnl"`      // realized + unrealized
	Change24hPct  float64 `json:"change_24h_pct,omitempty"`
	PriceCached   bool    `json:"price_cached"` // false when no cached price was available
}

// ReturnPct is the unrealized return on the open position as a percentage of
// its cost basis, or 0 when there is no cost basis.
func (h *Holding) ReturnPct() float64 {
	if h.CostBasis <= 0 {
		return 0
	}
	return h.UnrealizedPnL / h.CostBasis * 100
}

// WindowPnL is P&L restricted to a calendar window. The unrealized component
// is an approximation: the day window scales the current value by the 24h
// change, week and month reuse the current unrealized snapshot rather than a
// true historical valuation.
type WindowPnL struct {
	Realized   float64 `json:"realized"`
	Unrealized float64 `json:"unrealized"`
	Total      float64 `json:"total"`
}

// Performer names the best or worst holding by unrealized return percentage.
type Performer struct {
	Symbol    string  `json:"symbol"`
	ReturnPct float64 `json:"return_pct"`
}

// PortfolioMetrics is the full derived snapshot over the aggregated,
// access-filtered entry stream combined with cached prices.
type PortfolioMetrics struct {
	Holdings []Holding `json:"holdings"`

	TotalValue         float64 `json:"total_value"`
	TotalCostBasis     float64 `json:"total_cost_basis"`
	TotalRealizedPnL   float64 `json:"total_realized_pnl"`
	TotalUnrealizedPnL float64 `json:"total_unrealized_pnl"`
	TotalPnL           float64 `json:"total_pnl"`
	TotalPnLPct        float64 `json:"total_pnl_pct"`

	DayPnL   WindowPnL `json:"day_pnl"`
	WeekPnL  WindowPnL `json:"week_pnl"`
	MonthPnL WindowPnL `json:"month_pnl"`

	WinRate     float64 `json:"win_rate"` // profitable spot+futures entries, percent
	TradeCount  int     `json:"trade_count"`
	WinCount    int     `json:"win_count"`

	BestPerformer  *Performer `json:"best_performer,omitempty"`
	WorstPerformer *Performer `json:"worst_performer,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}

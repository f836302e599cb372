package models

import (
	"strings"
	"time"
)

// PriceQuote is the current price for one asset symbol, with an optional
// 24-hour change percentage when the provider supplies one.
type PriceQuote struct {
	Symbol       string    `json:"symbol"`
	Price        float64   `json:"price"` // in USD
	Change24hPct *float64  `json:"change_24h_pct,omitempty"`
	Source       string    `json:"source,omitempty"` // provider that supplied the quote
	FetchedAt    time.Time `json:"fetched_at"`
}

// MarketData is the detailed market view of one asset, richer than a plain
// quote. Only some providers can supply it.
type MarketData struct {
	Symbol       string    `json:"symbol"`
	Name         string    `json:"name,omitempty"`
	Price        float64   `json:"price"` // in USD
	MarketCap    float64   `json:"market_cap,omitempty"`
	Volume24h    float64   `json:"volume_24h,omitempty"`
	High24h      float64   `json:"high_24h,omitempty"`
	Low24h       float64   `json:"low_24h,omitempty"`
	Change24hPct *float64  `json:"change_24h_pct,omitempty"`
	Source       string    `json:"source,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// Stablecoins pinned to 1.0 USD without any upstream call.
var stableSymbols = map[string]bool{
	"USDT": true,
	"USDC": true,
	"DAI":  true,
	"BUSD": true,
	"TUSD": true,
	"USD":  true,
}

// IsStableSymbol reports whether the normalized symbol is a known quote-stable asset.
func IsStableSymbol(symbol string) bool {
	return stableSymbols[NormalizeSymbol(symbol)]
}

// NormalizeSymbol upper-cases a symbol and strips any /USDT or /USD pair
// suffix, so "btc", "BTC" and "BTC/USDT" resolve to the same key.
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	s = strings.TrimSuffix(s, "/USDT")
	s = strings.TrimSuffix(s, "/USD")
	return s
}

// Package interfaces defines service contracts for Coinfolio
package interfaces

import (
	"context"

	"github.com/mwillis/coinfolio/internal/models"
)

// PriceProvider is one upstream price source. FetchPrices returns quotes for
// the symbols it could resolve; missing symbols are simply absent from the map.
// Implementations carry their own HTTP timeout and per-request rate limiter.
type PriceProvider interface {
	// Name identifies the provider in logs and quote sources.
	Name() string

	// FetchPrices retrieves current prices (and 24h change when available)
	// for the given display symbols.
	FetchPrices(ctx context.Context, symbols []string) (map[string]models.PriceQuote, error)
}

// MarketProvider is an upstream source of detailed market data. Not every
// price provider can serve it; the market path has no fallback chain.
type MarketProvider interface {
	Name() string

	// FetchMarkets retrieves detailed market data for the given display
	// symbols. Unresolvable symbols are absent from the map.
	FetchMarkets(ctx context.Context, symbols []string) (map[string]models.MarketData, error)
}

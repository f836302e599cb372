package pricing

import (
	"context"

	"github.com/mwillis/coinfolio/internal/common"
	"github.com/mwillis/coinfolio/internal/interfaces"
	"github.com/mwillis/coinfolio/internal/models"
)

// Chain walks an ordered list of price providers until one yields a non-empty
// result set. Per-provider failures (network, non-2xx, unparsable body) are
// absorbed and logged; only full exhaustion surfaces to the caller, as nil.
type Chain struct {
	providers []interfaces.PriceProvider
	logger    *common.Logger
}

// NewChain creates a fetch chain over the given providers, tried in order.
func NewChain(logger *common.Logger, providers ...interfaces.PriceProvider) *Chain {
	return &Chain{
		providers: providers,
		logger:    logger,
	}
}

// Fetch tries each provider in order for the full symbol set. Returns nil when
// every provider fails or returns nothing; the caller falls back to cache.
func (c *Chain) Fetch(ctx context.Context, symbols []string) map[string]models.PriceQuote {
	for _, provider := range c.providers {
		quotes, err := provider.FetchPrices(ctx, symbols)
		if err != nil {
			c.logger.Warn().
				Err(err).
				Str("provider", provider.Name()).
				Int("symbols", len(symbols)).
				Msg("Price provider failed, trying next")
			continue
		}
		if len(quotes) == 0 {
			c.logger.Debug().
				Str("provider", provider.Name()).
				Msg("Price provider returned no quotes, trying next")
			continue
		}
		c.logger.Debug().
			Str("provider", provider.Name()).
			Int("quotes", len(quotes)).
			Msg("Price provider returned quotes")
		return quotes
	}

	c.logger.Warn().Int("symbols", len(symbols)).Msg("All price providers exhausted")
	return nil
}

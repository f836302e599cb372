package app

import (
	"context"
	"strings"
	"time"

	"github.com/mwillis/coinfolio/internal/common"
	"github.com/mwillis/coinfolio/internal/interfaces"
)

// startPriceScheduler refreshes cached prices on a fixed interval. Each tick
// walks the persisted price cache for the symbols worth keeping warm; the
// refresh lane of the rate limiter decides whether an upstream call actually
// happens.
func startPriceScheduler(ctx context.Context, storage interfaces.StorageManager, prices interfaces.PriceService, logger *common.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Price scheduler: stopped")
			return
		case <-ticker.C:
			refreshCachedPrices(ctx, storage, prices, logger)
		}
	}
}

func refreshCachedPrices(ctx context.Context, storage interfaces.StorageManager, prices interfaces.PriceService, logger *common.Logger) {
	start := time.Now()

	all, err := storage.KeyValueStore().GetAll(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Price refresh: cannot enumerate cached symbols")
		return
	}

	const prefix = "pricecache:simple:"
	var symbols []string
	for key := range all {
		if strings.HasPrefix(key, prefix) {
			symbols = append(symbols, strings.TrimPrefix(key, prefix))
		}
	}

	if len(symbols) == 0 {
		return
	}

	if _, err := prices.GetPrices(ctx, symbols); err != nil {
		logger.Warn().Err(err).Msg("Price refresh: fetch failed")
		return
	}

	logger.Info().
		Int("symbols", len(symbols)).
		Dur("elapsed", time.Since(start)).
		Msg("Price refresh: complete")
}

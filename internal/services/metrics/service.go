package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/mwillis/coinfolio/internal/common"
	"github.com/mwillis/coinfolio/internal/interfaces"
	"github.com/mwillis/coinfolio/internal/models"
)

// Service implements MetricsService on top of the entry aggregator and
// the price service.
type Service struct {
	entries interfaces.EntryService
	prices  interfaces.PriceService
	logger  *common.Logger
	now     func() time.Time
}

// NewService creates a new metrics service.
func NewService(entries interfaces.EntryService, prices interfaces.PriceService, logger *common.Logger) *Service {
	return &Service{
		entries: entries,
		prices:  prices,
		logger:  logger,
		now:     time.Now,
	}
}

// ComputeMetrics pulls the user's combined entry stream and the cached
// prices for its symbols, then derives the snapshot. Price failures
// degrade to avg-price valuation rather than failing the whole request.
func (s *Service) ComputeMetrics(ctx context.Context, userID string) (*models.PortfolioMetrics, error) {
	entries, err := s.entries.GetCombinedEntries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}

	seen := map[string]bool{}
	var symbols []string
	for _, e := range entries {
		if e.Type != models.EntryTypeSpot && e.Type != models.EntryTypeWallet {
			continue
		}
		symbol := models.NormalizeSymbol(e.Symbol)
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		symbols = append(symbols, symbol)
	}

	prices := map[string]models.PriceQuote{}
	if len(symbols) > 0 {
		prices, err = s.prices.GetPrices(ctx, symbols)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Valuing holdings at entry prices: no quotes available")
			prices = map[string]models.PriceQuote{}
		}
	}

	return Compute(entries, prices, s.now()), nil
}

var _ interfaces.MetricsService = (*Service)(nil)

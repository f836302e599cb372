package pricing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mwillis/coinfolio/internal/common"
	"github.com/mwillis/coinfolio/internal/interfaces"
	"github.com/mwillis/coinfolio/internal/models"
)

// RateLimitError tells the caller exactly how long until the next permitted
// upstream call. It is not a hard failure: the operation that returns it also
// returns the best available cached data.
type RateLimitError struct {
	Wait time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: next upstream call permitted in %s", e.Wait.Round(time.Second))
}

// Service implements PriceService: cache-first, rate-limiter-gated, with the
// provider fetch chain as the upstream path and stale cache as last resort.
type Service struct {
	cache          *Cache[models.PriceQuote]
	chain          *Chain
	reloadLimiter  *Limiter // manual reloads, short minimum interval
	refreshLimiter *Limiter // passive refresh, long minimum interval
	cacheTTL       time.Duration
	logger         *common.Logger

	// Detailed market data path, optional. No fallback chain: only some
	// providers can serve it.
	markets     interfaces.MarketProvider
	marketCache *Cache[models.MarketData]
	marketTTL   time.Duration

	mu       sync.Mutex
	fetching bool // prevents duplicate concurrent upstream walks
}

// NewService creates a price service over the given cache, chain, and limiter lanes.
func NewService(cache *Cache[models.PriceQuote], chain *Chain, reloadLimiter, refreshLimiter *Limiter, cacheTTL time.Duration, logger *common.Logger) *Service {
	return &Service{
		cache:          cache,
		chain:          chain,
		reloadLimiter:  reloadLimiter,
		refreshLimiter: refreshLimiter,
		cacheTTL:       cacheTTL,
		logger:         logger,
	}
}

// WithMarketData attaches the detailed market-data path. Returns the service
// for chaining at wiring time.
func (s *Service) WithMarketData(provider interfaces.MarketProvider, cache *Cache[models.MarketData], ttl time.Duration) *Service {
	s.markets = provider
	s.marketCache = cache
	s.marketTTL = ttl
	return s
}

// GetPrices returns the best available quotes for the symbols. Fully cached
// requests never touch upstream; otherwise one rate-limited chain walk
// refreshes the cache. Never blocks on the limiter; partial or stale data is
// an acceptable immediate return.
func (s *Service) GetPrices(ctx context.Context, symbols []string) (map[string]models.PriceQuote, error) {
	results, missing := s.collectCached(symbols)
	if len(missing) == 0 {
		return results, nil
	}

	if !s.refreshLimiter.CanCall() {
		s.fillStale(results, missing)
		return results, nil
	}

	fresh := s.fetchUpstream(ctx, symbols, s.refreshLimiter)
	s.mergeFresh(results, fresh)
	s.fillStale(results, missing)
	return results, nil
}

// Reload forces an upstream refresh. The cache short-circuit is bypassed, the
// rate limiter is not: when limited, the cached quotes are returned alongside
// a *RateLimitError carrying the exact wait so the caller can present it.
func (s *Service) Reload(ctx context.Context, symbols []string) (map[string]models.PriceQuote, error) {
	results, missing := s.collectCached(symbols)

	if !s.reloadLimiter.CanCall() {
		wait := s.reloadLimiter.TimeUntilNextCall()
		s.fillStale(results, missing)
		return results, &RateLimitError{Wait: wait}
	}

	fresh := s.fetchUpstream(ctx, symbols, s.reloadLimiter)
	s.mergeFresh(results, fresh)
	s.fillStale(results, missing)
	return results, nil
}

// GetMarketData returns detailed market data for the symbols, cache-first
// with the longer market TTL. Upstream fetches ride the reload limiter lane
// since market views are user-triggered; when limited or failing, expired
// slots are served stale.
func (s *Service) GetMarketData(ctx context.Context, symbols []string) (map[string]models.MarketData, error) {
	results := make(map[string]models.MarketData, len(symbols))
	if s.markets == nil {
		return results, nil
	}

	var missing []string
	for _, raw := range symbols {
		sym := models.NormalizeSymbol(raw)
		if sym == "" {
			continue
		}
		if _, done := results[sym]; done {
			continue
		}
		if data, ok := s.marketCache.Get(sym); ok {
			results[sym] = data
			continue
		}
		missing = append(missing, sym)
	}
	if len(missing) == 0 {
		return results, nil
	}

	if !s.reloadLimiter.CanCall() {
		s.fillStaleMarkets(results, missing)
		return results, nil
	}

	s.reloadLimiter.RecordCall()
	fresh, err := s.markets.FetchMarkets(ctx, missing)
	if err != nil {
		s.logger.Warn().Err(err).Str("provider", s.markets.Name()).Msg("Market data fetch failed, serving stale")
		s.fillStaleMarkets(results, missing)
		return results, nil
	}
	for sym, data := range fresh {
		s.marketCache.Set(sym, data, s.marketTTL)
		results[sym] = data
	}
	s.fillStaleMarkets(results, missing)
	return results, nil
}

func (s *Service) fillStaleMarkets(results map[string]models.MarketData, missing []string) {
	for _, sym := range missing {
		if _, done := results[sym]; done {
			continue
		}
		if data, ok := s.marketCache.GetStale(sym); ok {
			results[sym] = data
		}
	}
}

// collectCached resolves stablecoins and fresh cache hits, returning the
// partial result map and the symbols still unresolved.
func (s *Service) collectCached(symbols []string) (map[string]models.PriceQuote, []string) {
	results := make(map[string]models.PriceQuote, len(symbols))
	var missing []string

	for _, raw := range symbols {
		sym := models.NormalizeSymbol(raw)
		if sym == "" {
			continue
		}
		if _, done := results[sym]; done {
			continue
		}
		if models.IsStableSymbol(sym) {
			results[sym] = models.PriceQuote{Symbol: sym, Price: 1.0, Source: "stable", FetchedAt: time.Now()}
			continue
		}
		if quote, ok := s.cache.Get(sym); ok {
			results[sym] = quote
			continue
		}
		missing = append(missing, sym)
	}
	return results, missing
}

// fetchUpstream runs one chain walk for the full non-stable symbol set,
// recording the attempt against the given limiter lane whether or not it
// succeeds. A concurrent walk already in flight downgrades to a no-op.
func (s *Service) fetchUpstream(ctx context.Context, symbols []string, limiter *Limiter) map[string]models.PriceQuote {
	s.mu.Lock()
	if s.fetching {
		s.mu.Unlock()
		return nil
	}
	s.fetching = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.fetching = false
		s.mu.Unlock()
	}()

	var wanted []string
	for _, raw := range symbols {
		sym := models.NormalizeSymbol(raw)
		if sym != "" && !models.IsStableSymbol(sym) {
			wanted = append(wanted, sym)
		}
	}
	if len(wanted) == 0 {
		return nil
	}

	// The attempt consumes budget even when the chain comes back empty.
	limiter.RecordCall()

	quotes := s.chain.Fetch(ctx, wanted)
	if quotes == nil {
		return nil
	}

	for sym, quote := range quotes {
		s.cache.Set(sym, quote, s.cacheTTL)
	}
	return quotes
}

// mergeFresh overlays freshly fetched quotes onto the result map.
func (s *Service) mergeFresh(results, fresh map[string]models.PriceQuote) {
	for sym, quote := range fresh {
		results[sym] = quote
	}
}

// fillStale backfills still-missing symbols from expired cache slots. Stale is
// better than absent for display purposes.
func (s *Service) fillStale(results map[string]models.PriceQuote, missing []string) {
	for _, sym := range missing {
		if _, done := results[sym]; done {
			continue
		}
		if quote, ok := s.cache.GetStale(sym); ok {
			results[sym] = quote
		}
	}
}

// Ensure Service implements PriceService
var _ interfaces.PriceService = (*Service)(nil)

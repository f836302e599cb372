// Package interfaces defines service contracts for Coinfolio
package interfaces

import (
	"context"

	"github.com/mwillis/coinfolio/internal/models"
)

// PriceService serves prices cache-first with rate-limited upstream refresh.
type PriceService interface {
	// GetPrices returns the best available quotes for the given symbols.
	// Stale or partial data is an acceptable return; it never blocks on the
	// rate limiter and never fails hard when any cached data exists.
	GetPrices(ctx context.Context, symbols []string) (map[string]models.PriceQuote, error)

	// Reload forces an upstream refresh, bypassing the cache short-circuit
	// but not the rate limiter. When rate-limited it returns the cached
	// quotes alongside a *RateLimitError carrying the exact wait.
	Reload(ctx context.Context, symbols []string) (map[string]models.PriceQuote, error)

	// GetMarketData returns detailed market data for the given symbols,
	// cache-first with a longer TTL than simple quotes. Symbols the market
	// provider cannot resolve are absent from the map.
	GetMarketData(ctx context.Context, symbols []string) (map[string]models.MarketData, error)
}

// GrantService resolves and mutates access grants.
type GrantService interface {
	// ListGrants partitions all grants involving the user into active,
	// incoming-pending and outgoing-pending sets.
	ListGrants(ctx context.Context, userID string) (*models.GrantList, error)

	// RequestAccess creates a pending grant from viewer to sharer. The
	// sharer may be given by id or handle. Fails with a typed validation
	// error on self-targeting, unknown users, or an outstanding grant
	// between the pair.
	RequestAccess(ctx context.Context, viewerID, sharer string, filters models.GrantFilters) (*models.AccessGrant, error)

	// Approve and Deny transition a pending grant; only the sharer may call them.
	Approve(ctx context.Context, actorID, grantID string) error
	Deny(ctx context.Context, actorID, grantID string) error

	// Revoke transitions a granted grant to revoked; only the sharer may call it.
	Revoke(ctx context.Context, actorID, grantID string) error

	// ActiveGrantsForViewer returns the currently active (granted, unexpired)
	// grants where the user is viewer. Used by the entry aggregator.
	ActiveGrantsForViewer(ctx context.Context, userID string) ([]*models.AccessGrant, error)
}

// EntryService manages own entries and the aggregated, access-filtered stream.
type EntryService interface {
	// CreateEntry validates and persists a new entry owned by userID.
	CreateEntry(ctx context.Context, userID string, entry *models.Entry) (*models.Entry, error)

	// UpdateEntry replaces an entry's mutable fields; rejected unless userID owns it.
	UpdateEntry(ctx context.Context, userID string, entry *models.Entry) (*models.Entry, error)

	// DeleteEntry removes an entry; rejected unless userID owns it.
	DeleteEntry(ctx context.Context, userID, entryID string) error

	// GetCombinedEntries returns own plus shared entries, each tagged with
	// its source, filtered by grant activity and per-source visibility,
	// sorted by entry date descending. The grant and visibility checks are
	// re-applied on every call.
	GetCombinedEntries(ctx context.Context, userID string) ([]*models.Entry, error)

	// ListSources returns the user's data sources with visibility flags.
	ListSources(ctx context.Context, userID string) ([]*models.DataSource, error)

	// SetSourceVisibility toggles a source on or off locally without
	// touching the underlying grant.
	SetSourceVisibility(ctx context.Context, userID, sourceID string, visible bool) error
}

// MetricsService computes portfolio metrics over the aggregated entry stream.
type MetricsService interface {
	// ComputeMetrics pulls the combined entries and cached prices for the
	// user and derives the full metrics snapshot.
	ComputeMetrics(ctx context.Context, userID string) (*models.PortfolioMetrics, error)
}

// Package common provides shared utilities for Coinfolio
package common

import "time"

// Freshness TTLs for cached price data. Config may override both; these are
// the defaults when it does not.
const (
	FreshnessSimplePrice = 5 * time.Minute  // spot prices move fast
	FreshnessMarketData  = 15 * time.Minute // 24h-change data tolerates more lag
)

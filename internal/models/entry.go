// Package models defines data structures for Coinfolio
package models

import (
	"fmt"
	"strings"
	"time"
)

// EntryType classifies a logged trading activity.
type EntryType string

const (
	EntryTypeSpot            EntryType = "spot"
	EntryTypeFutures         EntryType = "futures"
	EntryTypeWallet          EntryType = "wallet"
	EntryTypeDualInvestment  EntryType = "dual_investment"
	EntryTypeLiquidityMining EntryType = "liquidity_mining"
	EntryTypeLiquidityPool   EntryType = "liquidity_pool"
	EntryTypeOther           EntryType = "other"
)

// ValidEntryTypes lists every accepted entry type.
var ValidEntryTypes = []EntryType{
	EntryTypeSpot,
	EntryTypeFutures,
	EntryTypeWallet,
	EntryTypeDualInvestment,
	EntryTypeLiquidityMining,
	EntryTypeLiquidityPool,
	EntryTypeOther,
}

// IsValid reports whether t is a known entry type.
func (t EntryType) IsValid() bool {
	for _, v := range ValidEntryTypes {
		if t == v {
			return true
		}
	}
	return false
}

// TradeSide is the direction of a spot or futures entry.
type TradeSide string

const (
	TradeSideBuy  TradeSide = "buy"
	TradeSideSell TradeSide = "sell"
)

// Entry represents one logged trading activity. Entries are created, updated
// and deleted only by their owner; to any other reader they are immutable.
type Entry struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Type      EntryType `json:"type"`
	Asset     string    `json:"asset"`  // canonical asset identifier (e.g. "bitcoin")
	Symbol    string    `json:"symbol"` // display symbol (e.g. "BTC")
	Date      time.Time `json:"date"`
	Quantity  *float64  `json:"quantity,omitempty"`  // >0 when present
	PriceUSD  *float64  `json:"price_usd,omitempty"` // price per unit, >0 when present
	Fees      float64   `json:"fees"`
	PnL       float64   `json:"pnl"` // realized P&L booked on this entry
	Side      TradeSide `json:"side,omitempty"`
	Leverage  int       `json:"leverage,omitempty"` // futures only, 1-1000
	Currency  string    `json:"currency"`
	Personal  bool      `json:"personal"` // excluded from sharing
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Aggregation tags, set by the entry aggregator, never persisted.
	IsShared   bool            `json:"is_shared,omitempty"`
	SourceID   string          `json:"source_id,omitempty"` // "own" or the originating grant id
	SharerInfo *ProfileSummary `json:"sharer,omitempty"`
}

// Validate checks field-level invariants. It does not touch storage.
func (e *Entry) Validate() error {
	if !e.Type.IsValid() {
		return fmt.Errorf("invalid entry type %q", e.Type)
	}
	if strings.TrimSpace(e.Symbol) == "" {
		return fmt.Errorf("symbol is required")
	}
	if e.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if e.Quantity != nil && *e.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive when present")
	}
	if e.PriceUSD != nil && *e.PriceUSD <= 0 {
		return fmt.Errorf("price must be positive when present")
	}
	if e.Fees < 0 {
		return fmt.Errorf("fees must not be negative")
	}

	isTrade := e.Type == EntryTypeSpot || e.Type == EntryTypeFutures
	if e.Side != "" && !isTrade {
		return fmt.Errorf("side is only valid for spot and futures entries")
	}
	if isTrade && e.Side != TradeSideBuy && e.Side != TradeSideSell {
		return fmt.Errorf("side must be buy or sell for %s entries", e.Type)
	}
	if e.Leverage != 0 {
		if e.Type != EntryTypeFutures {
			return fmt.Errorf("leverage is only valid for futures entries")
		}
		if e.Leverage < 1 || e.Leverage > 1000 {
			return fmt.Errorf("leverage must be between 1 and 1000")
		}
	}
	return nil
}

// Package metrics derives portfolio metrics from an entry stream and
// cached prices. The computation is pure: no storage, no network.
package metrics

import (
	"math"
	"sort"
	"time"

	"github.com/mwillis/coinfolio/internal/models"
)

// Positions below this cost basis are too small to rank as best or worst
// performer; dust skews percentage returns.
const minPerformerBasis = 1.0

type position struct {
	quantity    float64
	avgPrice    float64
	realizedPnL float64
	netInvested float64
}

// applyTrade folds one spot or wallet entry into the running position.
// Buys move the weighted average; sells reduce quantity but keep the
// average, so the remaining position's basis is undisturbed. Wallet
// entries adjust quantity at the running average without moving it.
func (p *position) applyTrade(e *models.Entry) {
	qty := 0.0
	if e.Quantity != nil {
		qty = *e.Quantity
	}
	if qty == 0 {
		return
	}

	switch {
	case e.Type == models.EntryTypeWallet:
		p.quantity += qty
	case e.Side == models.TradeSideSell:
		p.quantity -= qty
		if e.PriceUSD != nil {
			p.netInvested -= qty * *e.PriceUSD
		}
	default:
		price := p.avgPrice
		if e.PriceUSD != nil {
			price = *e.PriceUSD
		}
		newQty := p.quantity + qty
		if newQty > 0 {
			p.avgPrice = (p.quantity*p.avgPrice + qty*price) / newQty
		}
		p.quantity = newQty
		p.netInvested += qty * price
	}
}

// Compute derives the full metrics snapshot from the given entries and
// price quotes. Entries may arrive in any order; positions are built in
// date-ascending order so the weighted average is deterministic.
func Compute(entries []*models.Entry, prices map[string]models.PriceQuote, now time.Time) *models.PortfolioMetrics {
	ordered := make([]*models.Entry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	positions := map[string]*position{}
	var symbols []string
	m := &models.PortfolioMetrics{GeneratedAt: now}

	dayCutoff := now.Add(-24 * time.Hour)
	weekCutoff := now.AddDate(0, 0, -7)
	monthCutoff := now.AddDate(0, -1, 0)

	for _, e := range ordered {
		m.TotalRealizedPnL += e.PnL

		if e.Date.After(dayCutoff) {
			m.DayPnL.Realized += e.PnL
		}
		if e.Date.After(weekCutoff) {
			m.WeekPnL.Realized += e.PnL
		}
		if e.Date.After(monthCutoff) {
			m.MonthPnL.Realized += e.PnL
		}

		if e.Type == models.EntryTypeSpot || e.Type == models.EntryTypeFutures {
			m.TradeCount++
			if e.PnL > 0 {
				m.WinCount++
			}
		}

		symbol := models.NormalizeSymbol(e.Symbol)
		if symbol == "" {
			continue
		}
		pos, ok := positions[symbol]
		if !ok {
			pos = &position{}
			positions[symbol] = pos
			symbols = append(symbols, symbol)
		}
		// Realized P&L is credited to the asset no matter the entry type;
		// only spot and wallet entries move quantity and cost basis.
		pos.realizedPnL += e.PnL
		if e.Type == models.EntryTypeSpot || e.Type == models.EntryTypeWallet {
			pos.applyTrade(e)
		}
	}

	var netInvested float64
	for _, symbol := range symbols {
		pos := positions[symbol]
		netInvested += pos.netInvested
		if pos.quantity <= 0 {
			continue
		}

		h := models.Holding{
			Symbol:      symbol,
			Quantity:    pos.quantity,
			AvgPrice:    pos.avgPrice,
			CostBasis:   pos.quantity * pos.avgPrice,
			RealizedPnL: pos.realizedPnL,
		}

		if quote, ok := prices[symbol]; ok && quote.Price > 0 {
			h.CurrentPrice = quote.Price
			h.PriceCached = true
			if quote.Change24hPct != nil {
				h.Change24hPct = *quote.Change24hPct
			}
		} else {
			h.CurrentPrice = pos.avgPrice
		}

		h.CurrentValue = h.Quantity * h.CurrentPrice
		h.UnrealizedPnL = h.CurrentValue - h.CostBasis
		h.TotalPnL = h.RealizedPnL + h.UnrealizedPnL

		m.Holdings = append(m.Holdings, h)
		m.TotalValue += h.CurrentValue
		m.TotalCostBasis += h.CostBasis
		m.TotalUnrealizedPnL += h.UnrealizedPnL

		if h.PriceCached && h.Change24hPct != 0 {
			previous := h.CurrentValue / (1 + h.Change24hPct/100)
			m.DayPnL.Unrealized += h.CurrentValue - previous
		}
	}

	sort.Slice(m.Holdings, func(i, j int) bool {
		return m.Holdings[i].CurrentValue > m.Holdings[j].CurrentValue
	})

	m.TotalPnL = m.TotalRealizedPnL + m.TotalUnrealizedPnL

	// Percentage return is measured against the larger of net invested
	// capital and open cost basis, floored at 1 so a portfolio of pure
	// realized P&L still yields a finite percentage.
	denom := math.Max(math.Max(math.Abs(netInvested), m.TotalCostBasis), 1)
	m.TotalPnLPct = m.TotalPnL / denom * 100

	// Week and month have no historical valuations to diff against, so
	// their unrealized component reuses the current snapshot.
	m.WeekPnL.Unrealized = m.TotalUnrealizedPnL
	m.MonthPnL.Unrealized = m.TotalUnrealizedPnL
	m.DayPnL.Total = m.DayPnL.Realized + m.DayPnL.Unrealized
	m.WeekPnL.Total = m.WeekPnL.Realized + m.WeekPnL.Unrealized
	m.MonthPnL.Total = m.MonthPnL.Realized + m.MonthPnL.Unrealized

	if m.TradeCount > 0 {
		m.WinRate = float64(m.WinCount) / float64(m.TradeCount) * 100
	}

	for i := range m.Holdings {
		h := &m.Holdings[i]
		if h.CostBasis < minPerformerBasis {
			continue
		}
		ret := h.ReturnPct()
		if m.BestPerformer == nil || ret > m.BestPerformer.ReturnPct {
			m.BestPerformer = &models.Performer{Symbol: h.Symbol, ReturnPct: ret}
		}
		if m.WorstPerformer == nil || ret < m.WorstPerformer.ReturnPct {
			m.WorstPerformer = &models.Performer{Symbol: h.Symbol, ReturnPct: ret}
		}
	}

	return m
}

package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/mwillis/coinfolio/internal/common"
	"github.com/mwillis/coinfolio/internal/models"
)

func TestChainFirstProviderWins(t *testing.T) {
	first := &fakeProvider{name: "coingecko", quotes: map[string]models.PriceQuote{
		"BTC": {Symbol: "BTC", Price: 50000, Source: "coingecko"},
	}}
	second := &fakeProvider{name: "cryptocompare"}

	chain := NewChain(common.NewSilentLogger(), first, second)
	quotes := chain.Fetch(context.Background(), []string{"BTC"})

	if quotes == nil || quotes["BTC"].Source != "coingecko" {
		t.Fatalf("expected coingecko quote, got %+v", quotes)
	}
	if second.calls != 0 {
		t.Error("second provider called despite first succeeding")
	}
}

func TestChainFallsBackOnError(t *testing.T) {
	first := &fakeProvider{name: "coingecko", err: errors.New("rate limited")}
	second := &fakeProvider{name: "cryptocompare", quotes: map[string]models.PriceQuote{
		"BTC": {Symbol: "BTC", Price: 50100, Source: "cryptocompare"},
	}}

	chain := NewChain(common.NewSilentLogger(), first, second)
	quotes := chain.Fetch(context.Background(), []string{"BTC"})

	if quotes == nil || quotes["BTC"].Source != "cryptocompare" {
		t.Fatalf("expected cryptocompare fallback, got %+v", quotes)
	}
}

func TestChainFallsBackOnEmptyResult(t *testing.T) {
	first := &fakeProvider{name: "coingecko", quotes: map[string]models.PriceQuote{}}
	second := &fakeProvider{name: "binance", quotes: map[string]models.PriceQuote{
		"ETH": {Symbol: "ETH", Price: 3000, Source: "binance"},
	}}

	chain := NewChain(common.NewSilentLogger(), first, second)
	quotes := chain.Fetch(context.Background(), []string{"ETH"})

	if quotes == nil || quotes["ETH"].Source != "binance" {
		t.Fatalf("expected binance fallback, got %+v", quotes)
	}
}

func TestChainExhaustedReturnsNil(t *testing.T) {
	first := &fakeProvider{name: "coingecko", err: errors.New("down")}
	second := &fakeProvider{name: "binance", err: errors.New("down")}

	chain := NewChain(common.NewSilentLogger(), first, second)
	if quotes := chain.Fetch(context.Background(), []string{"BTC"}); quotes != nil {
		t.Fatalf("expected nil on exhaustion, got %+v", quotes)
	}
}

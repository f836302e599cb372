package pricing

import (
	"context"
	"fmt"
	"sync"

	"github.com/mwillis/coinfolio/internal/models"
)

// memoryKV is an in-memory KeyValueStore for tests.
type memoryKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: make(map[string]string)}
}

func (m *memoryKV) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.data[key]
	if !ok {
		return "", fmt.Errorf("key %s not found", key)
	}
	return value, nil
}

func (m *memoryKV) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memoryKV) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memoryKV) GetAll(ctx context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out, nil
}

// fakeProvider is a scripted PriceProvider for chain tests.
type fakeProvider struct {
	name   string
	quotes map[string]models.PriceQuote
	err    error
	calls  int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) FetchPrices(ctx context.Context, symbols []string) (map[string]models.PriceQuote, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.quotes, nil
}

// fakeMarketProvider is a scripted MarketProvider.
type fakeMarketProvider struct {
	name    string
	markets map[string]models.MarketData
	err     error
	calls   int
}

func (f *fakeMarketProvider) Name() string { return f.name }

func (f *fakeMarketProvider) FetchMarkets(ctx context.Context, symbols []string) (map[string]models.MarketData, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.markets, nil
}

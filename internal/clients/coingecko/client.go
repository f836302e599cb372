// Package coingecko provides a client for the CoinGecko API
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mwillis/coinfolio/internal/common"
	"github.com/mwillis/coinfolio/internal/interfaces"
	"github.com/mwillis/coinfolio/internal/models"
)

const (
	DefaultBaseURL   = "https://api.coingecko.com/api/v3"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// coinIDs maps common display symbols to CoinGecko coin ids. Unknown symbols
// fall back to the lower-cased symbol, which covers coins whose id equals
// their ticker.
var coinIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"BNB":   "binancecoin",
	"SOL":   "solana",
	"XRP":   "ripple",
	"ADA":   "cardano",
	"DOGE":  "dogecoin",
	"DOT":   "polkadot",
	"MATIC": "matic-network",
	"AVAX":  "avalanche-2",
	"LINK":  "chainlink",
	"ATOM":  "cosmos",
	"LTC":   "litecoin",
	"UNI":   "uniswap",
	"XLM":   "stellar",
	"NEAR":  "near",
	"ARB":   "arbitrum",
	"OP":    "optimism",
	"TON":   "the-open-network",
	"TRX":   "tron",
}

// Client implements the PriceProvider interface against CoinGecko's
// simple-price endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithAPIKey sets the optional demo/pro API key
func WithAPIKey(apiKey string) ClientOption {
	return func(c *Client) {
		c.apiKey = apiKey
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new CoinGecko client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("CoinGecko API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Name identifies the provider.
func (c *Client) Name() string {
	return "coingecko"
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	if c.apiKey != "" {
		params.Set("x_cg_demo_api_key", c.apiKey)
	}

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("CoinGecko API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// FetchPrices retrieves current USD prices with 24h change for the given symbols.
func (c *Client) FetchPrices(ctx context.Context, symbols []string) (map[string]models.PriceQuote, error) {
	if len(symbols) == 0 {
		return map[string]models.PriceQuote{}, nil
	}

	// Resolve symbols to coin ids, remembering the reverse mapping.
	idToSymbol := make(map[string]string, len(symbols))
	ids := make([]string, 0, len(symbols))
	for _, s := range symbols {
		sym := models.NormalizeSymbol(s)
		id, ok := coinIDs[sym]
		if !ok {
			id = strings.ToLower(sym)
		}
		if _, dup := idToSymbol[id]; dup {
			continue
		}
		idToSymbol[id] = sym
		ids = append(ids, id)
	}

	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("vs_currencies", "usd")
	params.Set("include_24hr_change", "true")

	var resp map[string]struct {
		USD          *float64 `json:"usd"`
		USD24hChange *float64 `json:"usd_24h_change"`
	}
	if err := c.get(ctx, "/simple/price", params, &resp); err != nil {
		return nil, err
	}

	now := time.Now()
	quotes := make(map[string]models.PriceQuote, len(resp))
	for id, entry := range resp {
		sym, ok := idToSymbol[id]
		if !ok || entry.USD == nil {
			continue
		}
		quotes[sym] = models.PriceQuote{
			Symbol:       sym,
			Price:        *entry.USD,
			Change24hPct: entry.USD24hChange,
			Source:       c.Name(),
			FetchedAt:    now,
		}
	}

	return quotes, nil
}

// FetchMarkets retrieves detailed market data for the given symbols from the
// coins/markets endpoint.
func (c *Client) FetchMarkets(ctx context.Context, symbols []string) (map[string]models.MarketData, error) {
	if len(symbols) == 0 {
		return map[string]models.MarketData{}, nil
	}

	idToSymbol := make(map[string]string, len(symbols))
	ids := make([]string, 0, len(symbols))
	for _, s := range symbols {
		sym := models.NormalizeSymbol(s)
		id, ok := coinIDs[sym]
		if !ok {
			id = strings.ToLower(sym)
		}
		if _, dup := idToSymbol[id]; dup {
			continue
		}
		idToSymbol[id] = sym
		ids = append(ids, id)
	}

	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("ids", strings.Join(ids, ","))

	var resp []struct {
		ID           string   `json:"id"`
		Name         string   `json:"name"`
		CurrentPrice float64  `json:"current_price"`
		MarketCap    float64  `json:"market_cap"`
		TotalVolume  float64  `json:"total_volume"`
		High24h      float64  `json:"high_24h"`
		Low24h       float64  `json:"low_24h"`
		Change24hPct *float64 `json:"price_change_percentage_24h"`
	}
	if err := c.get(ctx, "/coins/markets", params, &resp); err != nil {
		return nil, err
	}

	now := time.Now()
	markets := make(map[string]models.MarketData, len(resp))
	for _, entry := range resp {
		sym, ok := idToSymbol[entry.ID]
		if !ok {
			continue
		}
		markets[sym] = models.MarketData{
			Symbol:       sym,
			Name:         entry.Name,
			Price:        entry.CurrentPrice,
			MarketCap:    entry.MarketCap,
			Volume24h:    entry.TotalVolume,
			High24h:      entry.High24h,
			Low24h:       entry.Low24h,
			Change24hPct: entry.Change24hPct,
			Source:       c.Name(),
			FetchedAt:    now,
		}
	}
	return markets, nil
}

// Ensure Client implements both provider interfaces
var (
	_ interfaces.PriceProvider  = (*Client)(nil)
	_ interfaces.MarketProvider = (*Client)(nil)
)

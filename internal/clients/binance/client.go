// Package binance provides a client for the Binance public market-data API
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mwillis/coinfolio/internal/common"
	"github.com/mwillis/coinfolio/internal/interfaces"
	"github.com/mwillis/coinfolio/internal/models"
)

const (
	DefaultBaseURL   = "https://api.binance.com/api/v3"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// Client implements the PriceProvider interface against Binance's 24h ticker
// endpoint. Binance blocks browser-origin requests, so the client can route
// through a cross-origin relay that takes the upstream URL as a query suffix.
type Client struct {
	baseURL    string
	relayURL   string
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

// WithRelay routes requests through a cross-origin relay prefix
// (e.g. "https://corsproxy.io/?"). Empty disables the relay.
func WithRelay(relayURL string) ClientOption {
	return func(c *Client) {
		c.relayURL = relayURL
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

// NewClient creates a new Binance client
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
	return fmt.Sprintf("Binance API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Name identifies the provider.
func (c *Client) Name() string {
	return "binance"
}

// requestURL builds the final request URL, routing through the relay when set.
func (c *Client) requestURL(path, query string) string {
	upstream := c.baseURL + path
	if query != "" {
		upstream += "?" + query
	}
	if c.relayURL == "" {
		return upstream
	}
	return c.relayURL + url.QueryEscape(upstream)
}

// FetchPrices retrieves 24h ticker stats for the given symbols, quoted in USDT.
func (c *Client) FetchPrices(ctx context.Context, symbols []string) (map[string]models.PriceQuote, error) {
	if len(symbols) == 0 {
		return map[string]models.PriceQuote{}, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	// Binance trades pairs, not assets: BTC is requested as BTCUSDT.
	pairToSymbol := make(map[string]string, len(symbols))
	pairs := make([]string, 0, len(symbols))
	for _, s := range symbols {
		sym := models.NormalizeSymbol(s)
		pair := sym + "USDT"
		if _, dup := pairToSymbol[pair]; dup {
			continue
		}
		pairToSymbol[pair] = sym
		pairs = append(pairs, strconv.Quote(pair))
	}

	query := "symbols=" + url.QueryEscape("["+strings.Join(pairs, ",")+"]")
	reqURL := c.requestURL("/ticker/24hr", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Int("pairs", len(pairs)).Bool("relay", c.relayURL != "").Msg("Binance API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   "/ticker/24hr",
		}
	}

	var tickers []struct {
		Symbol             string `json:"symbol"`
		LastPrice          string `json:"lastPrice"`
		PriceChangePercent string `json:"priceChangePercent"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tickers); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	now := time.Now()
	quotes := make(map[string]models.PriceQuote, len(tickers))
	for _, t := range tickers {
		sym, ok := pairToSymbol[t.Symbol]
		if !ok {
			continue
		}
		price, err := strconv.ParseFloat(t.LastPrice, 64)
		if err != nil || price <= 0 {
			continue
		}
		quote := models.PriceQuote{
			Symbol:    sym,
			Price:     price,
			Source:    c.Name(),
			FetchedAt: now,
		}
		if change, err := strconv.ParseFloat(t.PriceChangePercent, 64); err == nil {
			quote.Change24hPct = &change
		}
		quotes[sym] = quote
	}

	return quotes, nil
}

// Ensure Client implements PriceProvider
var _ interfaces.PriceProvider = (*Client)(nil)

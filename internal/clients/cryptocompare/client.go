// Package cryptocompare provides a client for the CryptoCompare API
package cryptocompare

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
	DefaultBaseURL   = "https://min-api.cryptocompare.com/data"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// Client implements the PriceProvider interface against CryptoCompare's
// pricemultifull endpoint.
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

// WithAPIKey sets the API key
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

// NewClient creates a new CryptoCompare client
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
	return fmt.Sprintf("CryptoCompare API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Name identifies the provider.
func (c *Client) Name() string {
	return "cryptocompare"
}

// FetchPrices retrieves current USD prices with 24h change for the given symbols.
func (c *Client) FetchPrices(ctx context.Context, symbols []string) (map[string]models.PriceQuote, error) {
	if len(symbols) == 0 {
		return map[string]models.PriceQuote{}, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	normalized := make([]string, 0, len(symbols))
	seen := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		sym := models.NormalizeSymbol(s)
		if !seen[sym] {
			seen[sym] = true
			normalized = append(normalized, sym)
		}
	}

	params := url.Values{}
	params.Set("fsyms", strings.Join(normalized, ","))
	params.Set("tsyms", "USD")
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}

	reqURL := fmt.Sprintf("%s/pricemultifull?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Int("symbols", len(normalized)).Msg("CryptoCompare API request")

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
			Endpoint:   "/pricemultifull",
		}
	}

	var parsed struct {
		RAW map[string]map[string]struct {
			Price          float64 `json:"PRICE"`
			ChangePct24h   float64 `json:"CHANGEPCT24HOUR"`
		} `json:"RAW"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	now := time.Now()
	quotes := make(map[string]models.PriceQuote, len(parsed.RAW))
	for sym, byCurrency := range parsed.RAW {
		usd, ok := byCurrency["USD"]
		if !ok || usd.Price <= 0 {
			continue
		}
		change := usd.ChangePct24h
		quotes[sym] = models.PriceQuote{
			Symbol:       sym,
			Price:        usd.Price,
			Change24hPct: &change,
			Source:       c.Name(),
			FetchedAt:    now,
		}
	}

	return quotes, nil
}

// Ensure Client implements PriceProvider
var _ interfaces.PriceProvider = (*Client)(nil)

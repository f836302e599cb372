// Package common provides shared utilities for Coinfolio
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Coinfolio
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Clients     ClientsConfig `toml:"clients"`
	Pricing     PricingConfig `toml:"pricing"`
	Logging     LoggingConfig `toml:"logging"`
	Auth        AuthConfig    `toml:"auth"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds storage configuration for the two storage areas:
// the remote SurrealDB store (entries, grants, profiles) and the local
// BadgerHold store (price cache + rate limiter state, visibility flags).
type StorageConfig struct {
	Remote RemoteConfig `toml:"remote"`
	Local  AreaConfig   `toml:"local"`
}

// RemoteConfig holds SurrealDB connection configuration.
type RemoteConfig struct {
	URL       string `toml:"url"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

// AreaConfig holds path configuration for a local storage area.
type AreaConfig struct {
	Path string `toml:"path"`
}

// ClientsConfig holds price provider client configurations
type ClientsConfig struct {
	CoinGecko     ProviderConfig `toml:"coingecko"`
	CryptoCompare ProviderConfig `toml:"cryptocompare"`
	Binance       ProviderConfig `toml:"binance"`
}

// ProviderConfig holds configuration for a single upstream price provider.
type ProviderConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RelayURL  string `toml:"relay_url"` // optional cross-origin relay prefix
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *ProviderConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// PricingConfig holds cache TTLs and rate-limiter intervals for the price service.
type PricingConfig struct {
	CacheTTL        string `toml:"cache_ttl"`         // simple-price cache TTL, default "5m"
	MarketCacheTTL  string `toml:"market_cache_ttl"`  // detailed market-data cache TTL, default "15m"
	ReloadInterval  string `toml:"reload_interval"`   // min interval between manual reloads, default "60s"
	RefreshInterval string `toml:"refresh_interval"`  // min interval between background refreshes, default "1h"
	WindowCalls     int    `toml:"window_calls"`      // upstream call budget per counting window
	WindowDuration  string `toml:"window_duration"`   // counting window length, default "1h"
}

// GetCacheTTL parses the simple-price cache TTL.
func (c *PricingConfig) GetCacheTTL() time.Duration {
	return parseDurationOr(c.CacheTTL, FreshnessSimplePrice)
}

// GetMarketCacheTTL parses the market-data cache TTL.
func (c *PricingConfig) GetMarketCacheTTL() time.Duration {
	return parseDurationOr(c.MarketCacheTTL, FreshnessMarketData)
}

// GetReloadInterval parses the manual reload interval.
func (c *PricingConfig) GetReloadInterval() time.Duration {
	return parseDurationOr(c.ReloadInterval, 60*time.Second)
}

// GetRefreshInterval parses the background refresh interval.
func (c *PricingConfig) GetRefreshInterval() time.Duration {
	return parseDurationOr(c.RefreshInterval, time.Hour)
}

// GetWindowDuration parses the rate-limit counting window length.
func (c *PricingConfig) GetWindowDuration() time.Duration {
	return parseDurationOr(c.WindowDuration, time.Hour)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// AuthConfig holds JWT authentication configuration.
type AuthConfig struct {
	JWTSecret   string `toml:"jwt_secret"`
	TokenExpiry string `toml:"token_expiry"` // duration string, default "24h"
}

// GetTokenExpiry parses and returns the token expiry duration.
func (c *AuthConfig) GetTokenExpiry() time.Duration {
	return parseDurationOr(c.TokenExpiry, 24*time.Hour)
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Remote: RemoteConfig{
				URL:       "ws://localhost:8000/rpc",
				Namespace: "coinfolio",
				Database:  "coinfolio",
				Username:  "root",
				Password:  "root",
			},
			Local: AreaConfig{Path: "data/local"},
		},
		Clients: ClientsConfig{
			CoinGecko: ProviderConfig{
				BaseURL:   "https://api.coingecko.com/api/v3",
				RateLimit: 5,
				Timeout:   "10s",
			},
			CryptoCompare: ProviderConfig{
				BaseURL:   "https://min-api.cryptocompare.com/data",
				RateLimit: 5,
				Timeout:   "10s",
			},
			Binance: ProviderConfig{
				BaseURL:   "https://api.binance.com/api/v3",
				RelayURL:  "https://corsproxy.io/?",
				RateLimit: 5,
				Timeout:   "10s",
			},
		},
		Pricing: PricingConfig{
			CacheTTL:        "5m",
			MarketCacheTTL:  "15m",
			ReloadInterval:  "60s",
			RefreshInterval: "1h",
			WindowCalls:     30,
			WindowDuration:  "1h",
		},
		Auth: AuthConfig{
			JWTSecret:   "dev-jwt-secret-change-in-production",
			TokenExpiry: "24h",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("COINFOLIO_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("COINFOLIO_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("COINFOLIO_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("COINFOLIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("COINFOLIO_DATA_PATH"); path != "" {
		config.Storage.Local.Path = filepath.Join(path, "local")
	}

	if url := os.Getenv("COINFOLIO_SURREAL_URL"); url != "" {
		config.Storage.Remote.URL = url
	}
	if user := os.Getenv("COINFOLIO_SURREAL_USER"); user != "" {
		config.Storage.Remote.Username = user
	}
	if pass := os.Getenv("COINFOLIO_SURREAL_PASS"); pass != "" {
		config.Storage.Remote.Password = pass
	}

	if v := os.Getenv("COINFOLIO_AUTH_JWT_SECRET"); v != "" {
		config.Auth.JWTSecret = v
	}
	if v := os.Getenv("COINFOLIO_AUTH_TOKEN_EXPIRY"); v != "" {
		config.Auth.TokenExpiry = v
	}

	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		config.Clients.CoinGecko.APIKey = v
	}
	if v := os.Getenv("CRYPTOCOMPARE_API_KEY"); v != "" {
		config.Clients.CryptoCompare.APIKey = v
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

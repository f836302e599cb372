// Package app wires configuration, storage, clients and services into a
// single application core shared by cmd/coinfolio-server and tests.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mwillis/coinfolio/internal/clients/binance"
	"github.com/mwillis/coinfolio/internal/clients/coingecko"
	"github.com/mwillis/coinfolio/internal/clients/cryptocompare"
	"github.com/mwillis/coinfolio/internal/common"
	"github.com/mwillis/coinfolio/internal/interfaces"
	"github.com/mwillis/coinfolio/internal/models"
	"github.com/mwillis/coinfolio/internal/services/entries"
	"github.com/mwillis/coinfolio/internal/services/grants"
	"github.com/mwillis/coinfolio/internal/services/metrics"
	"github.com/mwillis/coinfolio/internal/services/pricing"
	"github.com/mwillis/coinfolio/internal/storage"
)

// App holds all initialized services, clients and storage.
type App struct {
	Config         *common.Config
	Logger         *common.Logger
	Storage        interfaces.StorageManager
	PriceService   interfaces.PriceService
	GrantService   interfaces.GrantService
	EntryService   interfaces.EntryService
	MetricsService interfaces.MetricsService
	StartupTime    time.Time

	schedulerCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes storage, clients and services from the given config
// path. configPath may be empty, in which case the default resolution
// logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	binDir := getBinaryDir()

	// Check provided path, COINFOLIO_CONFIG, then binary dir, then fallback
	if configPath == "" {
		configPath = os.Getenv("COINFOLIO_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "coinfolio.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/coinfolio.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative local storage path to binary directory
	if config.Storage.Local.Path != "" && !filepath.IsAbs(config.Storage.Local.Path) {
		config.Storage.Local.Path = filepath.Join(binDir, config.Storage.Local.Path)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	storageManager, err := storage.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return newAppWithStorage(config, logger, storageManager, startupStart), nil
}

// NewAppWithStorage builds an App on a caller-supplied storage manager.
// Used by tests to inject in-memory stores.
func NewAppWithStorage(config *common.Config, logger *common.Logger, storageManager interfaces.StorageManager) *App {
	return newAppWithStorage(config, logger, storageManager, time.Now())
}

func newAppWithStorage(config *common.Config, logger *common.Logger, storageManager interfaces.StorageManager, startupStart time.Time) *App {
	kv := storageManager.KeyValueStore()

	// Provider chain in fallback order: CoinGecko, CryptoCompare, Binance.
	coingeckoClient := coingecko.NewClient(
		coingecko.WithBaseURL(config.Clients.CoinGecko.BaseURL),
		coingecko.WithAPIKey(config.Clients.CoinGecko.APIKey),
		coingecko.WithLogger(logger),
		coingecko.WithRateLimit(config.Clients.CoinGecko.RateLimit),
		coingecko.WithTimeout(config.Clients.CoinGecko.GetTimeout()),
	)
	cryptocompareClient := cryptocompare.NewClient(
		cryptocompare.WithBaseURL(config.Clients.CryptoCompare.BaseURL),
		cryptocompare.WithAPIKey(config.Clients.CryptoCompare.APIKey),
		cryptocompare.WithLogger(logger),
		cryptocompare.WithRateLimit(config.Clients.CryptoCompare.RateLimit),
		cryptocompare.WithTimeout(config.Clients.CryptoCompare.GetTimeout()),
	)
	binanceClient := binance.NewClient(
		binance.WithBaseURL(config.Clients.Binance.BaseURL),
		binance.WithRelay(config.Clients.Binance.RelayURL),
		binance.WithLogger(logger),
		binance.WithRateLimit(config.Clients.Binance.RateLimit),
		binance.WithTimeout(config.Clients.Binance.GetTimeout()),
	)

	chain := pricing.NewChain(logger, coingeckoClient, cryptocompareClient, binanceClient)
	cache := pricing.NewCache[models.PriceQuote]("simple", kv, logger)
	reloadLimiter := pricing.NewLimiter("reload",
		config.Pricing.GetReloadInterval(),
		config.Pricing.WindowCalls,
		config.Pricing.GetWindowDuration(),
		kv, logger)
	refreshLimiter := pricing.NewLimiter("refresh",
		config.Pricing.GetRefreshInterval(),
		config.Pricing.WindowCalls,
		config.Pricing.GetWindowDuration(),
		kv, logger)

	marketCache := pricing.NewCache[models.MarketData]("market", kv, logger)
	priceService := pricing.NewService(cache, chain, reloadLimiter, refreshLimiter, config.Pricing.GetCacheTTL(), logger).
		WithMarketData(coingeckoClient, marketCache, config.Pricing.GetMarketCacheTTL())
	grantService := grants.NewService(storageManager, logger)
	entryService := entries.NewService(storageManager, grantService, logger)
	metricsService := metrics.NewService(entryService, priceService, logger)

	a := &App{
		Config:         config,
		Logger:         logger,
		Storage:        storageManager,
		PriceService:   priceService,
		GrantService:   grantService,
		EntryService:   entryService,
		MetricsService: metricsService,
		StartupTime:    startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")
	return a
}

// Close releases all resources held by the App.
func (a *App) Close() {
	if a.schedulerCancel != nil {
		a.schedulerCancel()
		a.schedulerCancel = nil
	}
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}

// StartPriceScheduler launches the background price refresh goroutine.
func (a *App) StartPriceScheduler() {
	ctx, cancel := context.WithCancel(context.Background())
	a.schedulerCancel = cancel
	go startPriceScheduler(ctx, a.Storage, a.PriceService, a.Logger, a.Config.Pricing.GetRefreshInterval())
}

package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dmaslov/factorsieve/internal/contracts"
	"github.com/dmaslov/factorsieve/internal/marketdata"
	"github.com/dmaslov/factorsieve/internal/strategy"
	"github.com/dmaslov/factorsieve/pkg/config"
	"github.com/dmaslov/factorsieve/pkg/logger"
	"github.com/dmaslov/factorsieve/pkg/redis"
)

// app bundles the process-level dependencies every command starts from.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	strategy strategy.Config
	hash     string
}

// loadApp loads env config, the logger and the strategy document. The
// strategy comes from the --strategy flag, then STRATEGY_PATH if the
// file exists, then the built-in default.
func loadApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	strat, err := loadStrategy(cfg, log)
	if err != nil {
		return nil, err
	}

	hash, err := strategy.Hash(strat)
	if err != nil {
		return nil, fmt.Errorf("hash strategy: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"strategy": strat.Meta.StrategyID,
		"version":  strat.Meta.Version,
		"hash":     hash[:12],
	}).Info("Strategy loaded")

	return &app{cfg: cfg, log: log, strategy: strat, hash: hash}, nil
}

func loadStrategy(cfg *config.Config, log *logger.Logger) (strategy.Config, error) {
	path := strategyFile
	if path == "" {
		if _, err := os.Stat(cfg.StrategyPath); err == nil {
			path = cfg.StrategyPath
		}
	}

	if path == "" {
		log.Info("No strategy file found, using built-in default")
		return strategy.Default(), nil
	}

	strat, err := strategy.Load(path)
	if err != nil {
		return strategy.Config{}, fmt.Errorf("load strategy %s: %w", path, err)
	}
	return strat, nil
}

// buildProvider resolves the market data provider. Yahoo gets wrapped
// in the Redis cache when caching is enabled; synthetic is a seeded
// offline universe for demos and backtests.
func (a *app) buildProvider(defaultName string) (marketdata.Provider, func(), error) {
	name := providerName
	if name == "" {
		name = defaultName
	}

	switch name {
	case "synthetic":
		return demoProvider(a.strategy), func() {}, nil

	case "yahoo":
		provider := marketdata.Provider(marketdata.NewYahoo(a.cfg.Yahoo, a.log))

		if a.cfg.Redis.Enabled {
			client, err := redis.New(a.cfg)
			if err != nil {
				return nil, nil, fmt.Errorf("connect to redis: %w", err)
			}
			a.log.Info("Market data caching enabled")
			return marketdata.NewCached(provider, client, a.log), func() { client.Close() }, nil
		}

		return provider, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown provider %q (yahoo|synthetic)", name)
	}
}

// demoUniverse is the offline universe behind the synthetic provider.
var demoUniverse = map[string][]string{
	"technology": {"AAPL", "MSFT", "NVDA", "AVGO", "CRM", "ORCL", "AMD", "INTC"},
	"healthcare": {"LLY", "UNH", "JNJ", "ABBV", "MRK", "PFE", "TMO", "ABT"},
	"financials": {"JPM", "BAC", "WFC", "GS", "MS", "SCHW", "BLK", "C"},
}

// demoProvider seeds a deterministic synthetic provider covering the
// demo universe plus any extra sectors the strategy schedules.
func demoProvider(strat strategy.Config) *marketdata.Synthetic {
	provider := marketdata.NewSynthetic()
	end := time.Now().UTC()

	sectors := make(map[string][]string, len(demoUniverse))
	for sector, tickers := range demoUniverse {
		sectors[sector] = tickers
	}
	for _, sector := range strat.Schedule.Sectors {
		key := strings.ToLower(sector)
		if _, ok := sectors[key]; !ok {
			sectors[key] = nil
		}
	}

	for sector, tickers := range sectors {
		provider.AddSector(sector, tickers...)

		for i, ticker := range tickers {
			drift := 0.0002 * float64(i+1)
			provider.
				GenerateWalk(ticker, end, 700, 50+10*float64(i), drift, 0.012).
				SetFundamentals(contracts.Fundamentals{
					Ticker:         ticker,
					Price:          contracts.Float(50 + 10*float64(i)),
					MarketCap:      contracts.Float(100e9 + 50e9*float64(i)),
					AvgDailyVolume: contracts.Float(20e6 + 5e6*float64(i)),
					DebtToEquity:   contracts.Float(0.5 + 0.2*float64(i)),
					ReturnOnEquity: contracts.Float(0.10 + 0.03*float64(i)),
				})
		}
	}

	return provider
}

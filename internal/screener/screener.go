package screener

import (
	"context"
	"fmt"

	"github.com/dmaslov/factorsieve/internal/contracts"
	"github.com/dmaslov/factorsieve/internal/marketdata"
	"github.com/dmaslov/factorsieve/internal/strategy"
	"github.com/dmaslov/factorsieve/pkg/logger"
)

// Screener applies the hard eligibility gate: binary pass/fail
// thresholds over fundamentals, evaluated in a fixed order. Failing any
// single check excludes the ticker; nothing here is scored.
type Screener struct {
	config strategy.Screening
	logger *logger.Logger
}

// New creates a new screener.
func New(config strategy.Screening, log *logger.Logger) *Screener {
	return &Screener{
		config: config,
		logger: log,
	}
}

// Screen runs the hard filters over a ticker list. It returns the
// tickers that cleared every filter plus the full per-ticker audit
// trail. Data fetch failures become failing results; Screen itself
// never returns an error.
func (s *Screener) Screen(ctx context.Context, tickers []string, provider marketdata.Provider) ([]string, []contracts.ScreenResult) {
	results := make([]contracts.ScreenResult, 0, len(tickers))
	passed := make([]string, 0, len(tickers))

	for _, ticker := range tickers {
		result := s.screenOne(ctx, ticker, provider)
		results = append(results, result)

		if result.Passed {
			passed = append(passed, ticker)
			s.logger.WithField("ticker", ticker).Debug("PASS " + result.Reason)
		} else {
			s.logger.WithField("ticker", ticker).Debug("FAIL " + result.Reason)
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"total_input": len(tickers),
		"passed":      len(passed),
	}).Info("Screening completed")

	return passed, results
}

// screenOne applies all hard filters to a single ticker, returning on
// the first failure.
func (s *Screener) screenOne(ctx context.Context, ticker string, provider marketdata.Provider) contracts.ScreenResult {
	fundamentals, err := provider.LatestFundamentals(ctx, ticker)
	if err != nil {
		return contracts.ScreenResult{
			Ticker: ticker,
			Passed: false,
			Reason: fmt.Sprintf("Data unavailable: %s", err),
		}
	}

	// Filter 1: minimum price. Missing price fails closed.
	if fundamentals.Price == nil {
		return fail(ticker, "Price unavailable")
	}
	if *fundamentals.Price < s.config.MinPrice {
		return fail(ticker, fmt.Sprintf("Price $%.2f below minimum $%.2f", *fundamentals.Price, s.config.MinPrice))
	}

	// Filter 2: minimum market cap. Missing market cap fails closed.
	if fundamentals.MarketCap == nil {
		return fail(ticker, "Market cap unavailable")
	}
	if *fundamentals.MarketCap < s.config.MinMarketCap {
		return fail(ticker, fmt.Sprintf("Market cap $%.1fB below minimum $%.1fB",
			*fundamentals.MarketCap/1e9, s.config.MinMarketCap/1e9))
	}

	// Filter 3: minimum average daily dollar volume. Missing volume
	// fails closed.
	if fundamentals.AvgDailyVolume == nil {
		return fail(ticker, "Average volume unavailable")
	}
	if *fundamentals.AvgDailyVolume < s.config.MinAvgDollarVolume {
		return fail(ticker, fmt.Sprintf("Avg daily volume $%.1fM below minimum $%.1fM",
			*fundamentals.AvgDailyVolume/1e6, s.config.MinAvgDollarVolume/1e6))
	}

	// Filter 4: maximum debt-to-equity. Unlike the three filters above,
	// a missing D/E is allowed through: no data, no filter. Intentional
	// asymmetry — leverage data is patchy across reporting regimes and
	// failing closed here would empty whole sectors.
	if fundamentals.DebtToEquity != nil && *fundamentals.DebtToEquity > s.config.MaxDebtToEquity {
		return fail(ticker, fmt.Sprintf("Debt/equity %.1f exceeds maximum %.1f",
			*fundamentals.DebtToEquity, s.config.MaxDebtToEquity))
	}

	return contracts.ScreenResult{
		Ticker: ticker,
		Passed: true,
		Reason: "All filters passed",
	}
}

func fail(ticker, reason string) contracts.ScreenResult {
	return contracts.ScreenResult{Ticker: ticker, Passed: false, Reason: reason}
}

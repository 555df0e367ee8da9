package factors

import (
	"context"
	"time"

	"github.com/dmaslov/factorsieve/internal/contracts"
	"github.com/dmaslov/factorsieve/internal/marketdata"
	"github.com/dmaslov/factorsieve/internal/strategy"
	"github.com/dmaslov/factorsieve/pkg/logger"
)

// historyBufferDays pads the lookback fetch window so holidays and
// halts don't starve the longest lookback of bars.
const historyBufferDays = 30

// Engine computes raw factor signals per ticker: momentum, quality and
// realized volatility. All outputs are raw and unscaled — the ranking
// engine owns normalization, weighting and the volatility direction
// flip.
type Engine struct {
	config strategy.Factors
	logger *logger.Logger
}

// NewEngine creates a factor engine.
func NewEngine(config strategy.Factors, log *logger.Logger) *Engine {
	return &Engine{
		config: config,
		logger: log,
	}
}

// Score computes factor scores for a list of tickers as of a date. One
// FactorScores per input ticker, in input order. A ticker whose data
// fetch fails gets all-nil scores and a logged skip; Score never
// returns an error for a single bad ticker.
func (e *Engine) Score(ctx context.Context, tickers []string, provider marketdata.Provider, asOf time.Time) []contracts.FactorScores {
	scores := make([]contracts.FactorScores, 0, len(tickers))

	for _, ticker := range tickers {
		score := e.ScoreOne(ctx, ticker, provider, asOf)
		scores = append(scores, score)

		e.logger.WithFields(map[string]interface{}{
			"ticker":   ticker,
			"momentum": deref(score.Momentum),
			"quality":  deref(score.Quality),
			"low_vol":  deref(score.LowVol),
		}).Debug("Computed factor scores")
	}

	return scores
}

// ScoreOne computes all factor scores for a single ticker. The three
// sub-computations are independent: one factor coming up short never
// suppresses the other two.
func (e *Engine) ScoreOne(ctx context.Context, ticker string, provider marketdata.Provider, asOf time.Time) contracts.FactorScores {
	// Lookback windows are in trading bars; the fetch window is in
	// calendar days, so scale by 7/5 before padding.
	lookback := e.config.MomentumLongWindow*7/5 + historyBufferDays
	start := asOf.AddDate(0, 0, -lookback)

	series, err := provider.PriceHistory(ctx, ticker, start, asOf)
	if err != nil {
		e.logger.WithError(err).WithField("ticker", ticker).Warn("Data fetch failed, skipping ticker")
		return contracts.FactorScores{Ticker: ticker}
	}

	fundamentals, err := provider.LatestFundamentals(ctx, ticker)
	if err != nil {
		e.logger.WithError(err).WithField("ticker", ticker).Warn("Data fetch failed, skipping ticker")
		return contracts.FactorScores{Ticker: ticker}
	}

	closes := series.ValidCloses()

	return contracts.FactorScores{
		Ticker:   ticker,
		Momentum: e.momentum(closes),
		Quality:  quality(fundamentals),
		LowVol:   e.volatility(closes),
	}
}

func deref(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

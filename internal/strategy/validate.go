package strategy

import (
	"fmt"
	"math"
)

// weightSumTolerance absorbs binary floating-point representation error
// in weights like 0.35.
const weightSumTolerance = 1e-6

// ValidationError is a strategy constraint violation. Loading fails on
// the first one encountered.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints of a strategy document.
func Validate(cfg Config) error {
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Screening ===
	if cfg.Screening.MinPrice < 0 {
		return ValidationError{"screening.min_price", "must be >= 0"}
	}
	if cfg.Screening.MinMarketCap <= 0 {
		return ValidationError{"screening.min_market_cap", "must be > 0"}
	}
	if cfg.Screening.MinAvgDollarVolume <= 0 {
		return ValidationError{"screening.min_avg_dollar_volume", "must be > 0"}
	}
	if cfg.Screening.MaxDebtToEquity <= 0 {
		return ValidationError{"screening.max_debt_to_equity", "must be > 0"}
	}

	// === Factors ===
	if cfg.Factors.MomentumLongWindow <= 0 {
		return ValidationError{"factors.momentum_long_window", "must be > 0"}
	}
	if cfg.Factors.MomentumShortWindow <= 0 {
		return ValidationError{"factors.momentum_short_window", "must be > 0"}
	}
	if cfg.Factors.MomentumShortWindow >= cfg.Factors.MomentumLongWindow {
		return ValidationError{"factors.momentum_short_window", "must be < momentum_long_window"}
	}
	if cfg.Factors.VolatilityWindow <= 0 {
		return ValidationError{"factors.volatility_window", "must be > 0"}
	}

	// === Ranking ===
	// The composite weights must sum to 1.0. The ranking engine trusts
	// whatever weights it receives, so the only guard is here at load.
	if diff := math.Abs(cfg.Ranking.Weights.Sum() - 1.0); diff > weightSumTolerance {
		return ValidationError{
			"ranking.weights",
			fmt.Sprintf("must sum to 1.0, got %.6f", cfg.Ranking.Weights.Sum()),
		}
	}
	if cfg.Ranking.Weights.Momentum < 0 || cfg.Ranking.Weights.Quality < 0 || cfg.Ranking.Weights.LowVol < 0 {
		return ValidationError{"ranking.weights", "must be non-negative"}
	}
	if cfg.Ranking.TopN <= 0 {
		return ValidationError{"ranking.top_n", "must be > 0"}
	}

	// === Backtest ===
	switch cfg.Backtest.Frequency {
	case "", "daily", "weekly", "monthly":
	default:
		return ValidationError{"backtest.frequency", "must be one of: daily, weekly, monthly"}
	}

	return nil
}

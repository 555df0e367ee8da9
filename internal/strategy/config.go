package strategy

// Config is the full, immutable strategy document. It is loaded once
// from YAML and passed by value into the pipeline components; nothing
// mutates it after load.
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Screening Screening `yaml:"screening" json:"screening"`
	Factors   Factors   `yaml:"factors" json:"factors"`
	Ranking   Ranking   `yaml:"ranking" json:"ranking"`
	Backtest  Backtest  `yaml:"backtest" json:"backtest"`
	Schedule  Schedule  `yaml:"schedule" json:"schedule"`
}

// Meta identifies the strategy document.
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Screening holds the hard-screen thresholds. All four are absolute
// floors/ceilings; a ticker failing any single check is excluded.
type Screening struct {
	MinPrice           float64 `yaml:"min_price" json:"min_price"`                         // USD per share
	MinMarketCap       float64 `yaml:"min_market_cap" json:"min_market_cap"`               // USD
	MinAvgDollarVolume float64 `yaml:"min_avg_dollar_volume" json:"min_avg_dollar_volume"` // USD/day
	MaxDebtToEquity    float64 `yaml:"max_debt_to_equity" json:"max_debt_to_equity"`
}

// Factors holds the lookback windows for factor computation, in
// trading bars.
type Factors struct {
	MomentumLongWindow  int `yaml:"momentum_long_window" json:"momentum_long_window"`   // ~12 months
	MomentumShortWindow int `yaml:"momentum_short_window" json:"momentum_short_window"` // ~1 month, excluded from signal
	VolatilityWindow    int `yaml:"volatility_window" json:"volatility_window"`         // ~3 months
}

// Ranking holds the composite weights and shortlist size.
type Ranking struct {
	Weights FactorWeights `yaml:"weights" json:"weights"`
	TopN    int           `yaml:"top_n" json:"top_n"`
}

// FactorWeights are the composite weights applied to the three
// z-scored factors. They are validated to sum to 1.0 at load time; the
// ranking engine itself applies them as-is without renormalizing.
type FactorWeights struct {
	Momentum float64 `yaml:"momentum" json:"momentum"`
	Quality  float64 `yaml:"quality" json:"quality"`
	LowVol   float64 `yaml:"low_vol" json:"low_vol"`
}

// Sum returns the weight total.
func (w FactorWeights) Sum() float64 {
	return w.Momentum + w.Quality + w.LowVol
}

// Backtest holds the historical simulation window.
type Backtest struct {
	StartDate string `yaml:"start_date" json:"start_date"` // YYYY-MM-DD
	EndDate   string `yaml:"end_date" json:"end_date"`     // YYYY-MM-DD
	Frequency string `yaml:"frequency" json:"frequency"`   // daily, weekly, monthly
}

// Schedule holds the scheduled-rebalance settings.
type Schedule struct {
	Cron    string   `yaml:"cron" json:"cron"`       // cron expression, seconds field included
	Sectors []string `yaml:"sectors" json:"sectors"` // sectors ranked per run
}

// Default returns the built-in strategy used when no YAML file is
// supplied.
func Default() Config {
	return Config{
		Meta: Meta{
			StrategyID: "us_sector_v1",
			Version:    "1.0.0",
		},
		Screening: Screening{
			MinPrice:           5.0,           // penny-stock floor
			MinMarketCap:       2_000_000_000, // $2B, large/mid cap only
			MinAvgDollarVolume: 5_000_000,     // $5M/day
			MaxDebtToEquity:    3.0,
		},
		Factors: Factors{
			MomentumLongWindow:  252,
			MomentumShortWindow: 21,
			VolatilityWindow:    63,
		},
		Ranking: Ranking{
			Weights: FactorWeights{
				Momentum: 0.40,
				Quality:  0.35,
				LowVol:   0.25,
			},
			TopN: 3,
		},
		Backtest: Backtest{
			StartDate: "2019-01-01",
			EndDate:   "2023-12-31",
			Frequency: "weekly",
		},
		Schedule: Schedule{
			Cron:    "0 0 22 * * MON-FRI", // after US close, UTC
			Sectors: []string{"Technology", "Healthcare", "Financials"},
		},
	}
}

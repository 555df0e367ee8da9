package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/dmaslov/factorsieve/internal/contracts"
	"github.com/dmaslov/factorsieve/internal/pipeline"
	"github.com/dmaslov/factorsieve/internal/strategy"
	"github.com/dmaslov/factorsieve/pkg/logger"
)

// Config holds the simulation window and rebalance cadence.
type Config struct {
	Sector    string
	StartDate time.Time
	EndDate   time.Time
	Frequency string // daily, weekly, monthly
}

// Snapshot is the shortlist produced at one rebalance date.
type Snapshot struct {
	Date     time.Time               `json:"date"`
	Sector   string                  `json:"sector"`
	Universe int                     `json:"universe"`
	Tickers  []string                `json:"tickers"`
	Ranked   []contracts.RankedEntry `json:"ranked"`
}

// Result collects the snapshots from a full backtest run.
type Result struct {
	Config        Config
	Duration      time.Duration
	Periods       int
	FailedPeriods int
	EmptyPeriods  int
	Snapshots     []Snapshot
}

// Summary returns aggregate counts over the run: how often each ticker
// made the shortlist, keyed by ticker.
func (r *Result) Summary() map[string]int {
	counts := make(map[string]int)
	for _, snap := range r.Snapshots {
		for _, entry := range snap.Ranked {
			counts[entry.Ticker]++
		}
	}
	return counts
}

// Engine replays the pipeline over historical rebalance dates. It
// produces shortlists only; turning them into portfolio returns is out
// of scope here.
type Engine struct {
	runner *pipeline.Runner
	logger *logger.Logger
}

// NewEngine creates a backtest engine around a pipeline runner.
func NewEngine(runner *pipeline.Runner, log *logger.Logger) *Engine {
	return &Engine{
		runner: runner,
		logger: log,
	}
}

// ConfigFromStrategy builds a backtest config from the strategy
// document's backtest block.
func ConfigFromStrategy(cfg strategy.Config, sector string) (Config, error) {
	start, err := time.Parse("2006-01-02", cfg.Backtest.StartDate)
	if err != nil {
		return Config{}, fmt.Errorf("invalid backtest start date: %w", err)
	}

	end, err := time.Parse("2006-01-02", cfg.Backtest.EndDate)
	if err != nil {
		return Config{}, fmt.Errorf("invalid backtest end date: %w", err)
	}

	return Config{
		Sector:    sector,
		StartDate: start,
		EndDate:   end,
		Frequency: cfg.Backtest.Frequency,
	}, nil
}

// Run replays the pipeline at every rebalance date in the window. A
// period whose run fails is logged and skipped; the loop never aborts
// on a single bad period.
func (e *Engine) Run(ctx context.Context, config Config) (*Result, error) {
	if !config.StartDate.Before(config.EndDate) && !config.StartDate.Equal(config.EndDate) {
		return nil, fmt.Errorf("backtest start %s is after end %s",
			config.StartDate.Format("2006-01-02"), config.EndDate.Format("2006-01-02"))
	}

	e.logger.WithFields(map[string]interface{}{
		"sector":    config.Sector,
		"start":     config.StartDate.Format("2006-01-02"),
		"end":       config.EndDate.Format("2006-01-02"),
		"frequency": config.Frequency,
	}).Info("Starting backtest")

	startTime := time.Now()
	result := &Result{Config: config}

	for _, date := range RebalanceDates(config.StartDate, config.EndDate, config.Frequency) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result.Periods++

		run, err := e.runner.Run(ctx, config.Sector, date)
		if err != nil {
			result.FailedPeriods++
			e.logger.WithError(err).WithField("date", date.Format("2006-01-02")).Warn("Rebalance period failed, skipping")
			continue
		}

		if run.Halt != pipeline.HaltNone {
			result.EmptyPeriods++
			e.logger.WithFields(map[string]interface{}{
				"date": date.Format("2006-01-02"),
				"halt": string(run.Halt),
			}).Warn("Rebalance period produced no shortlist")
			continue
		}

		result.Snapshots = append(result.Snapshots, Snapshot{
			Date:     date,
			Sector:   config.Sector,
			Universe: len(run.Universe),
			Tickers:  run.Survivors,
			Ranked:   run.Ranked,
		})
	}

	result.Duration = time.Since(startTime)

	e.logger.WithFields(map[string]interface{}{
		"periods":   result.Periods,
		"failed":    result.FailedPeriods,
		"empty":     result.EmptyPeriods,
		"snapshots": len(result.Snapshots),
		"duration":  result.Duration,
	}).Info("Backtest completed")

	return result, nil
}

// RebalanceDates expands the window into rebalance dates at the given
// frequency. Daily stepping lands on weekdays only; weekend start dates
// roll forward to the next Monday.
func RebalanceDates(start, end time.Time, frequency string) []time.Time {
	var dates []time.Time

	for date := nextWeekday(start); !date.After(end); {
		dates = append(dates, date)

		switch frequency {
		case "monthly":
			date = date.AddDate(0, 1, 0)
		case "daily":
			date = date.AddDate(0, 0, 1)
		default: // weekly
			date = date.AddDate(0, 0, 7)
		}
		date = nextWeekday(date)
	}

	return dates
}

func nextWeekday(date time.Time) time.Time {
	for date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
		date = date.AddDate(0, 0, 1)
	}
	return date
}

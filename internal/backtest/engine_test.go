package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaslov/factorsieve/internal/contracts"
	"github.com/dmaslov/factorsieve/internal/marketdata"
	"github.com/dmaslov/factorsieve/internal/pipeline"
	"github.com/dmaslov/factorsieve/internal/strategy"
	"github.com/dmaslov/factorsieve/pkg/logger"
)

func day(value string) time.Time {
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return d
}

func solidFundamentals(ticker string) contracts.Fundamentals {
	return contracts.Fundamentals{
		Ticker:         ticker,
		Price:          contracts.Float(150),
		MarketCap:      contracts.Float(500e9),
		AvgDailyVolume: contracts.Float(80e6),
		DebtToEquity:   contracts.Float(1.2),
		ReturnOnEquity: contracts.Float(0.30),
	}
}

func testEngine(provider marketdata.Provider) *Engine {
	runner := pipeline.NewRunner(strategy.Default(), provider, logger.NewNop())
	return NewEngine(runner, logger.NewNop())
}

func TestRebalanceDates_Weekly(t *testing.T) {
	dates := RebalanceDates(day("2024-01-01"), day("2024-03-31"), "weekly")

	require.Len(t, dates, 13)
	assert.Equal(t, day("2024-01-01"), dates[0])
	assert.Equal(t, day("2024-03-25"), dates[12])
	for _, d := range dates {
		assert.Equal(t, time.Monday, d.Weekday())
	}
}

func TestRebalanceDates_Monthly(t *testing.T) {
	dates := RebalanceDates(day("2024-01-01"), day("2024-03-31"), "monthly")

	assert.Equal(t, []time.Time{
		day("2024-01-01"),
		day("2024-02-01"),
		day("2024-03-01"),
	}, dates)
}

func TestRebalanceDates_DailySkipsWeekends(t *testing.T) {
	dates := RebalanceDates(day("2024-01-01"), day("2024-01-09"), "daily")

	assert.Equal(t, []time.Time{
		day("2024-01-01"),
		day("2024-01-02"),
		day("2024-01-03"),
		day("2024-01-04"),
		day("2024-01-05"),
		day("2024-01-08"),
		day("2024-01-09"),
	}, dates)
}

func TestRebalanceDates_WeekendStartRollsForward(t *testing.T) {
	dates := RebalanceDates(day("2024-01-06"), day("2024-01-10"), "weekly")

	require.Len(t, dates, 1)
	assert.Equal(t, day("2024-01-08"), dates[0]) // Saturday start -> Monday
}

func TestRun_CollectsSnapshots(t *testing.T) {
	end := day("2024-03-31")
	provider := marketdata.NewSynthetic().AddSector("technology", "AAPL", "MSFT", "NVDA", "AMD")
	for i, ticker := range []string{"AAPL", "MSFT", "NVDA", "AMD"} {
		provider.
			SetFundamentals(solidFundamentals(ticker)).
			GenerateWalk(ticker, end, 700, 100, 0.0004*float64(i+1), 0.01)
	}

	result, err := testEngine(provider).Run(context.Background(), Config{
		Sector:    "technology",
		StartDate: day("2024-01-01"),
		EndDate:   end,
		Frequency: "weekly",
	})
	require.NoError(t, err)

	assert.Equal(t, 13, result.Periods)
	assert.Zero(t, result.FailedPeriods)
	assert.Zero(t, result.EmptyPeriods)
	require.Len(t, result.Snapshots, 13)

	for _, snap := range result.Snapshots {
		assert.Equal(t, "technology", snap.Sector)
		assert.Equal(t, 4, snap.Universe)
		assert.Len(t, snap.Ranked, 3)
	}

	total := 0
	for _, n := range result.Summary() {
		total += n
	}
	assert.Equal(t, 13*3, total)
}

func TestRun_FailedPeriodIsSkipped(t *testing.T) {
	// No such sector: every period fails, none aborts the run.
	provider := marketdata.NewSynthetic()

	result, err := testEngine(provider).Run(context.Background(), Config{
		Sector:    "technology",
		StartDate: day("2024-01-01"),
		EndDate:   day("2024-01-31"),
		Frequency: "weekly",
	})
	require.NoError(t, err)

	assert.Equal(t, 5, result.Periods)
	assert.Equal(t, 5, result.FailedPeriods)
	assert.Empty(t, result.Snapshots)
}

func TestRun_EmptyShortlistCountedNotSnapshotted(t *testing.T) {
	penny := solidFundamentals("PNNY")
	penny.Price = contracts.Float(0.42)

	provider := marketdata.NewSynthetic().
		AddSector("microcap", "PNNY").
		SetFundamentals(penny)

	result, err := testEngine(provider).Run(context.Background(), Config{
		Sector:    "microcap",
		StartDate: day("2024-01-01"),
		EndDate:   day("2024-01-14"),
		Frequency: "weekly",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Periods)
	assert.Equal(t, 2, result.EmptyPeriods)
	assert.Empty(t, result.Snapshots)
}

func TestRun_InvertedWindowRejected(t *testing.T) {
	_, err := testEngine(marketdata.NewSynthetic()).Run(context.Background(), Config{
		Sector:    "technology",
		StartDate: day("2024-06-01"),
		EndDate:   day("2024-01-01"),
	})
	assert.Error(t, err)
}

func TestConfigFromStrategy(t *testing.T) {
	cfg, err := ConfigFromStrategy(strategy.Default(), "Technology")
	require.NoError(t, err)

	assert.Equal(t, "Technology", cfg.Sector)
	assert.Equal(t, day("2019-01-01"), cfg.StartDate)
	assert.Equal(t, day("2023-12-31"), cfg.EndDate)
	assert.Equal(t, "weekly", cfg.Frequency)

	bad := strategy.Default()
	bad.Backtest.StartDate = "not-a-date"
	_, err = ConfigFromStrategy(bad, "Technology")
	assert.Error(t, err)
}

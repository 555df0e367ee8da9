package commands

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmaslov/factorsieve/internal/backtest"
	"github.com/dmaslov/factorsieve/internal/pipeline"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest [sector]",
	Short: "Replay the pipeline over historical rebalance dates",
	Long: `Runs the pipeline at every rebalance date in a window and reports
which tickers made the shortlist and how often.

Dates default to the strategy document's backtest block. The provider
defaults to synthetic so backtests are reproducible offline.

Example:
  sieve backtest technology
  sieve backtest technology --from 2023-01-01 --to 2023-12-31 --frequency monthly`,
	Args: cobra.ExactArgs(1),
	RunE: runBacktest,
}

var (
	backtestFrom      string
	backtestTo        string
	backtestFrequency string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVar(&backtestFrom, "from", "", "start date (YYYY-MM-DD, default: strategy)")
	backtestCmd.Flags().StringVar(&backtestTo, "to", "", "end date (YYYY-MM-DD, default: strategy)")
	backtestCmd.Flags().StringVar(&backtestFrequency, "frequency", "", "rebalance frequency (daily|weekly|monthly, default: strategy)")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	sector := args[0]

	a, err := loadApp()
	if err != nil {
		return err
	}

	config, err := backtest.ConfigFromStrategy(a.strategy, sector)
	if err != nil {
		return err
	}

	if backtestFrom != "" {
		config.StartDate, err = time.Parse("2006-01-02", backtestFrom)
		if err != nil {
			return fmt.Errorf("invalid from date: %w", err)
		}
	}
	if backtestTo != "" {
		config.EndDate, err = time.Parse("2006-01-02", backtestTo)
		if err != nil {
			return fmt.Errorf("invalid to date: %w", err)
		}
	}
	if backtestFrequency != "" {
		config.Frequency = backtestFrequency
	}

	provider, cleanup, err := a.buildProvider("synthetic")
	if err != nil {
		return err
	}
	defer cleanup()

	runner := pipeline.NewRunner(a.strategy, provider, a.log)
	engine := backtest.NewEngine(runner, a.log)

	result, err := engine.Run(cmd.Context(), config)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	printBacktestResult(result)
	return nil
}

func printBacktestResult(result *backtest.Result) {
	fmt.Printf("\nBacktest: %s  %s ~ %s (%s)\n",
		result.Config.Sector,
		result.Config.StartDate.Format("2006-01-02"),
		result.Config.EndDate.Format("2006-01-02"),
		result.Config.Frequency)
	fmt.Printf("Periods: %d  Failed: %d  Empty: %d  Duration: %.2fs\n\n",
		result.Periods, result.FailedPeriods, result.EmptyPeriods, result.Duration.Seconds())

	if len(result.Snapshots) == 0 {
		fmt.Println("No shortlists produced.")
		return
	}

	// Shortlist membership counts, most frequent first.
	type count struct {
		ticker string
		n      int
	}
	counts := make([]count, 0)
	for ticker, n := range result.Summary() {
		counts = append(counts, count{ticker, n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].n != counts[j].n {
			return counts[i].n > counts[j].n
		}
		return counts[i].ticker < counts[j].ticker
	})

	fmt.Println("Ticker  Shortlisted")
	fmt.Println(strings.Repeat("-", 22))
	for _, c := range counts {
		fmt.Printf("%-6s  %2d / %d\n", c.ticker, c.n, len(result.Snapshots))
	}

	last := result.Snapshots[len(result.Snapshots)-1]
	fmt.Printf("\nLast shortlist (%s):\n", last.Date.Format("2006-01-02"))
	for _, e := range last.Ranked {
		fmt.Printf("%4d  %-6s  %9.4f\n", e.Rank, e.Ticker, e.CompositeScore)
	}
	fmt.Println()
}

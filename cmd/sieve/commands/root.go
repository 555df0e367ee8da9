package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyFile string
	providerName string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sieve",
	Short: "Sector factor-ranking pipeline for US equities",
	Long: `factorsieve - multi-stage equity ranking

Screens a sector universe on hard fundamental filters, scores the
survivors on momentum, quality and low-volatility factors, and ranks
them cross-sectionally into a shortlist.

Examples:
  sieve run technology
  sieve screen technology
  sieve backtest technology --from 2023-01-01 --to 2023-12-31
  sieve serve
  sieve schedule`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML file (default: STRATEGY_PATH or built-in)")
	rootCmd.PersistentFlags().StringVar(&providerName, "provider", "", "market data provider (yahoo|synthetic)")
}

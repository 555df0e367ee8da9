package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmaslov/factorsieve/internal/screener"
)

var screenCmd = &cobra.Command{
	Use:   "screen [sector]",
	Short: "Run the hard screen only and print the audit trail",
	Long: `Applies the hard fundamental filters to a sector universe and
prints every ticker with its pass/fail reason.

Example:
  sieve screen technology`,
	Args: cobra.ExactArgs(1),
	RunE: runScreen,
}

func init() {
	rootCmd.AddCommand(screenCmd)
}

func runScreen(cmd *cobra.Command, args []string) error {
	sector := args[0]

	a, err := loadApp()
	if err != nil {
		return err
	}

	provider, cleanup, err := a.buildProvider("yahoo")
	if err != nil {
		return err
	}
	defer cleanup()

	universe, err := provider.SectorTickers(cmd.Context(), sector)
	if err != nil {
		return fmt.Errorf("resolve sector universe: %w", err)
	}

	s := screener.New(a.strategy.Screening, a.log)
	passed, results := s.Screen(cmd.Context(), universe, provider)

	fmt.Printf("\nSector: %s  Universe: %d  Passed: %d\n\n", sector, len(universe), len(passed))
	fmt.Println("Ticker  Result  Reason")
	fmt.Println(strings.Repeat("-", 60))
	for _, r := range results {
		verdict := "PASS"
		if !r.Passed {
			verdict = "FAIL"
		}
		fmt.Printf("%-6s  %-6s  %s\n", r.Ticker, verdict, r.Reason)
	}
	fmt.Println()

	return nil
}

package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmaslov/factorsieve/internal/pipeline"
	"github.com/dmaslov/factorsieve/internal/store"
	"github.com/dmaslov/factorsieve/pkg/database"
)

var runCmd = &cobra.Command{
	Use:   "run [sector]",
	Short: "Run the full ranking pipeline for a sector",
	Long: `Runs universe lookup, hard screening, factor scoring and ranking
for one sector, and prints the resulting shortlist.

Example:
  sieve run technology
  sieve run technology --as-of 2024-06-28
  sieve run technology --save`,
	Args: cobra.ExactArgs(1),
	RunE: runPipeline,
}

var (
	runAsOf string
	runSave bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runAsOf, "as-of", "", "ranking date (YYYY-MM-DD, default: today)")
	runCmd.Flags().BoolVar(&runSave, "save", false, "persist the run to the database")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	sector := args[0]

	a, err := loadApp()
	if err != nil {
		return err
	}

	asOf := time.Now().UTC().Truncate(24 * time.Hour)
	if runAsOf != "" {
		asOf, err = time.Parse("2006-01-02", runAsOf)
		if err != nil {
			return fmt.Errorf("invalid as-of date: %w", err)
		}
	}

	provider, cleanup, err := a.buildProvider("yahoo")
	if err != nil {
		return err
	}
	defer cleanup()

	runner := pipeline.NewRunner(a.strategy, provider, a.log)

	result, err := runner.Run(cmd.Context(), sector, asOf)
	if err != nil {
		return fmt.Errorf("pipeline run failed: %w", err)
	}

	printRunResult(result)

	if runSave {
		db, err := database.New(a.cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		repo := store.NewRepository(db.Pool)
		if err := repo.SaveRun(cmd.Context(), result, a.hash); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		fmt.Println("Run saved.")
	}

	return nil
}

func printRunResult(result *pipeline.Result) {
	fmt.Printf("\nSector: %s  (as of %s)\n", result.Sector, result.AsOf.Format("2006-01-02"))
	fmt.Printf("Universe: %d  Survivors: %d\n\n", len(result.Universe), len(result.Survivors))

	if result.Halt != pipeline.HaltNone {
		fmt.Printf("No shortlist produced: %s\n", result.Halt)
		return
	}

	fmt.Println("Rank  Ticker  Composite  MomentumZ  QualityZ  LowVolZ")
	fmt.Println(strings.Repeat("-", 56))
	for _, e := range result.Ranked {
		fmt.Printf("%4d  %-6s  %9.4f  %9.4f  %8.4f  %7.4f\n",
			e.Rank, e.Ticker, e.CompositeScore, e.MomentumZ, e.QualityZ, e.LowVolZ)
	}
	fmt.Println()
}

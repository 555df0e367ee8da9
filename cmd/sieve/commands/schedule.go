package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmaslov/factorsieve/internal/api/handlers"
	"github.com/dmaslov/factorsieve/internal/pipeline"
	"github.com/dmaslov/factorsieve/internal/scheduler"
	"github.com/dmaslov/factorsieve/internal/scheduler/jobs"
	"github.com/dmaslov/factorsieve/internal/store"
	"github.com/dmaslov/factorsieve/pkg/database"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the scheduled sector rebalance daemon",
	Long: `Registers the rebalance job on the strategy's cron schedule and
blocks until interrupted. Each run recomputes and persists the
shortlist for every configured sector.

Example:
  sieve schedule
  sieve schedule --now`,
	RunE: runSchedule,
}

var scheduleNow bool

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().BoolVar(&scheduleNow, "now", false, "trigger the rebalance job immediately on startup")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	if len(a.strategy.Schedule.Sectors) == 0 {
		return fmt.Errorf("strategy schedules no sectors")
	}

	provider, cleanup, err := a.buildProvider("yahoo")
	if err != nil {
		return err
	}
	defer cleanup()

	runner := pipeline.NewRunner(a.strategy, provider, a.log)

	var repo handlers.RunStore
	if a.cfg.Database.URL != "" {
		db, err := database.New(a.cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
		repo = store.NewRepository(db.Pool)
	} else {
		a.log.Warn("DATABASE_URL not set, rebalance results will not be persisted")
	}

	job := jobs.NewRebalanceJob(runner, repo, nil, a.strategy.Schedule, a.hash, a.log)

	sched := scheduler.New(a.log)
	if err := sched.AddJob(job); err != nil {
		return err
	}

	sched.Start()
	defer sched.Stop()

	if scheduleNow {
		if err := sched.RunJob(job.Name()); err != nil {
			return err
		}
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	a.log.WithField("signal", sig.String()).Info("Shutdown signal received")
	return nil
}

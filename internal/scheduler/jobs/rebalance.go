package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/dmaslov/factorsieve/internal/api/handlers"
	"github.com/dmaslov/factorsieve/internal/pipeline"
	"github.com/dmaslov/factorsieve/internal/strategy"
	"github.com/dmaslov/factorsieve/pkg/logger"
)

// RebalanceJob recomputes the shortlist for every configured sector.
// Sectors are independent: one failing sector is logged and the rest
// still run; the job fails only when every sector fails.
type RebalanceJob struct {
	runner       *pipeline.Runner
	store        handlers.RunStore
	stream       handlers.Broadcaster
	schedule     strategy.Schedule
	strategyHash string
	logger       *logger.Logger
}

// NewRebalanceJob creates the scheduled rebalance job. Store and
// stream are optional.
func NewRebalanceJob(
	runner *pipeline.Runner,
	store handlers.RunStore,
	stream handlers.Broadcaster,
	schedule strategy.Schedule,
	strategyHash string,
	log *logger.Logger,
) *RebalanceJob {
	return &RebalanceJob{
		runner:       runner,
		store:        store,
		stream:       stream,
		schedule:     schedule,
		strategyHash: strategyHash,
		logger:       log,
	}
}

// Name implements scheduler.Job.
func (j *RebalanceJob) Name() string {
	return "sector-rebalance"
}

// Schedule implements scheduler.Job.
func (j *RebalanceJob) Schedule() string {
	return j.schedule.Cron
}

// Run implements scheduler.Job.
func (j *RebalanceJob) Run(ctx context.Context) error {
	asOf := time.Now().UTC().Truncate(24 * time.Hour)
	failed := 0

	for _, sector := range j.schedule.Sectors {
		if err := j.runSector(ctx, sector, asOf); err != nil {
			failed++
			j.logger.WithError(err).WithField("sector", sector).Error("Sector rebalance failed")
		}
	}

	if failed == len(j.schedule.Sectors) && failed > 0 {
		return fmt.Errorf("all %d sectors failed", failed)
	}

	return nil
}

func (j *RebalanceJob) runSector(ctx context.Context, sector string, asOf time.Time) error {
	run, err := j.runner.Run(ctx, sector, asOf)
	if err != nil {
		return err
	}

	if run.Halt != pipeline.HaltNone {
		j.logger.WithFields(map[string]interface{}{
			"sector": sector,
			"halt":   string(run.Halt),
		}).Warn("Rebalance produced no shortlist")
		return nil
	}

	if j.store != nil {
		if err := j.store.SaveRun(ctx, run, j.strategyHash); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
	}

	if j.stream != nil {
		j.stream.Broadcast(handlers.RankingsResponse{
			Sector:   sector,
			AsOf:     asOf.Format("2006-01-02"),
			Rankings: run.Ranked,
		})
	}

	j.logger.WithFields(map[string]interface{}{
		"sector": sector,
		"ranked": len(run.Ranked),
	}).Info("Sector rebalanced")

	return nil
}

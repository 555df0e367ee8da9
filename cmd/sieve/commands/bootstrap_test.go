package commands

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaslov/factorsieve/internal/pipeline"
	"github.com/dmaslov/factorsieve/internal/strategy"
	"github.com/dmaslov/factorsieve/pkg/logger"
)

func TestDemoProvider_ResolvesScheduledSectors(t *testing.T) {
	strat := strategy.Default()
	provider := demoProvider(strat)

	// Every sector the strategy schedules must resolve against the
	// demo universe as configured, capitalization included.
	for _, sector := range strat.Schedule.Sectors {
		tickers, err := provider.SectorTickers(context.Background(), sector)
		require.NoError(t, err, sector)
		assert.NotEmpty(t, tickers, sector)
	}
}

func TestDemoProvider_SupportsFullPipelineRun(t *testing.T) {
	strat := strategy.Default()
	runner := pipeline.NewRunner(strat, demoProvider(strat), logger.NewNop())

	asOf := time.Now().UTC().Truncate(24 * time.Hour)
	result, err := runner.Run(context.Background(), strat.Schedule.Sectors[0], asOf)
	require.NoError(t, err)

	assert.Equal(t, pipeline.HaltNone, result.Halt)
	assert.Len(t, result.Ranked, strat.Ranking.TopN)
}

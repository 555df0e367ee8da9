package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmaslov/factorsieve/internal/contracts"
	"github.com/dmaslov/factorsieve/internal/factors"
	"github.com/dmaslov/factorsieve/internal/marketdata"
	"github.com/dmaslov/factorsieve/internal/ranking"
	"github.com/dmaslov/factorsieve/internal/screener"
	"github.com/dmaslov/factorsieve/internal/strategy"
	"github.com/dmaslov/factorsieve/pkg/logger"
)

// scoringConcurrency bounds the per-ticker fan-out so one run does not
// hammer the data provider with the whole universe at once.
const scoringConcurrency = 8

// Halt explains why a run produced an empty shortlist.
type Halt string

const (
	HaltNone           Halt = ""
	HaltEmptyUniverse  Halt = "empty_universe"
	HaltNoSurvivors    Halt = "no_screen_survivors"
	HaltNoSignalScores Halt = "no_scoreable_tickers"
)

// Result captures one full pipeline run for a sector.
type Result struct {
	Sector    string
	AsOf      time.Time
	Universe  []string
	Screening []contracts.ScreenResult
	Survivors []string
	Scores    []contracts.FactorScores
	Ranked    []contracts.RankedEntry
	Halt      Halt
}

// Runner wires the pipeline stages end to end: universe lookup, hard
// screen, factor scoring, cross-sectional ranking.
type Runner struct {
	config   strategy.Config
	provider marketdata.Provider
	screener *screener.Screener
	engine   *factors.Engine
	ranker   *ranking.Ranker
	logger   *logger.Logger
}

// NewRunner builds a runner and its stages from a strategy config.
func NewRunner(cfg strategy.Config, provider marketdata.Provider, log *logger.Logger) *Runner {
	return &Runner{
		config:   cfg,
		provider: provider,
		screener: screener.New(cfg.Screening, log),
		engine:   factors.NewEngine(cfg.Factors, log),
		ranker:   ranking.New(cfg.Ranking.Weights, log),
		logger:   log,
	}
}

// Run executes the full pipeline for one sector as of a date. An
// emptied universe at any stage is a Halt on the result, not an error;
// errors are reserved for failures before the stages start (unknown
// sector, provider down).
func (r *Runner) Run(ctx context.Context, sector string, asOf time.Time) (*Result, error) {
	start := time.Now()

	r.logger.WithFields(map[string]interface{}{
		"sector": sector,
		"as_of":  asOf.Format("2006-01-02"),
	}).Info("Pipeline run started")

	result := &Result{Sector: sector, AsOf: asOf}

	// Stage 1: universe
	universe, err := r.provider.SectorTickers(ctx, sector)
	if err != nil {
		return nil, fmt.Errorf("resolve sector universe: %w", err)
	}
	result.Universe = universe

	if len(universe) == 0 {
		r.logger.WithField("sector", sector).Warn("Sector universe is empty")
		result.Halt = HaltEmptyUniverse
		return result, nil
	}

	// Stage 2: hard screen
	survivors, screening := r.screener.Screen(ctx, universe, r.provider)
	result.Survivors = survivors
	result.Screening = screening

	r.logger.WithFields(map[string]interface{}{
		"sector":    sector,
		"universe":  len(universe),
		"survivors": len(survivors),
	}).Info("Screening completed")

	if len(survivors) == 0 {
		result.Halt = HaltNoSurvivors
		return result, nil
	}

	// Stage 3: factor scoring
	scores, err := r.score(ctx, survivors, asOf)
	if err != nil {
		return nil, err
	}
	result.Scores = scores

	// Stage 4: ranking
	result.Ranked = r.ranker.Rank(scores, r.config.Ranking.TopN)
	if len(result.Ranked) == 0 {
		result.Halt = HaltNoSignalScores
	}

	r.logger.WithFields(map[string]interface{}{
		"sector":   sector,
		"ranked":   len(result.Ranked),
		"duration": time.Since(start),
	}).Info("Pipeline run completed")

	return result, nil
}

// score fans scoring out across tickers with bounded concurrency.
// Output order matches survivor order regardless of completion order.
func (r *Runner) score(ctx context.Context, tickers []string, asOf time.Time) ([]contracts.FactorScores, error) {
	scores := make([]contracts.FactorScores, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scoringConcurrency)

	for i, ticker := range tickers {
		g.Go(func() error {
			scores[i] = r.engine.ScoreOne(gctx, ticker, r.provider, asOf)
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("factor scoring: %w", err)
	}

	return scores, nil
}

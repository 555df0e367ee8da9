package ranking

import (
	"sort"

	"github.com/dmaslov/factorsieve/internal/contracts"
	"github.com/dmaslov/factorsieve/internal/strategy"
	"github.com/dmaslov/factorsieve/pkg/logger"
)

// Ranker normalizes raw factor scores cross-sectionally, applies the
// configured weights and produces the deterministically ordered
// shortlist. It trusts its weights as-is: no renormalization, no
// validation — that guard lives at strategy load time.
type Ranker struct {
	weights strategy.FactorWeights
	logger  *logger.Logger
}

// New creates a ranker.
func New(weights strategy.FactorWeights, log *logger.Logger) *Ranker {
	return &Ranker{
		weights: weights,
		logger:  log,
	}
}

// Rank maps raw factor scores to a ranked shortlist of at most topN
// entries. Given identical inputs in identical order the output is
// identical: ties preserve input order via a stable sort.
func (r *Ranker) Rank(scores []contracts.FactorScores, topN int) []contracts.RankedEntry {
	if len(scores) == 0 {
		r.logger.Warn("No factor scores provided to ranker")
		return []contracts.RankedEntry{}
	}

	// Drop tickers with no signal whatsoever. Tickers missing only some
	// factors are retained and neutral-filled downstream.
	retained := make([]contracts.FactorScores, 0, len(scores))
	for _, s := range scores {
		if s.HasAnySignal() {
			retained = append(retained, s)
		}
	}
	if dropped := len(scores) - len(retained); dropped > 0 {
		r.logger.WithField("dropped", dropped).Warn("Dropped tickers with no factor data")
	}

	if len(retained) == 0 {
		r.logger.Error("No scoreable tickers remaining after dropping nulls")
		return []contracts.RankedEntry{}
	}

	// Invert raw volatility so higher transformed values are better
	// across all three factors. The factor engine never pre-inverts.
	momentum := make([]*float64, len(retained))
	qualityCol := make([]*float64, len(retained))
	lowVol := make([]*float64, len(retained))
	for i, s := range retained {
		momentum[i] = s.Momentum
		qualityCol[i] = s.Quality
		if s.LowVol != nil {
			lowVol[i] = contracts.Float(-*s.LowVol)
		}
	}

	momentumZ := crossSectionalZ(momentum)
	qualityZ := crossSectionalZ(qualityCol)
	lowVolZ := crossSectionalZ(lowVol)

	type row struct {
		scores    contracts.FactorScores
		composite float64
		momZ      float64
		qualZ     float64
		volZ      float64
	}

	rows := make([]row, len(retained))
	for i, s := range retained {
		rows[i] = row{
			scores: s,
			composite: r.weights.Momentum*momentumZ[i] +
				r.weights.Quality*qualityZ[i] +
				r.weights.LowVol*lowVolZ[i],
			momZ:  momentumZ[i],
			qualZ: qualityZ[i],
			volZ:  lowVolZ[i],
		}
	}

	// Sort on the unrounded composite. Stable: equal composites keep
	// their input relative order, which makes ranking reproducible run
	// over run.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].composite > rows[j].composite
	})

	if topN > len(rows) {
		topN = len(rows)
	}

	entries := make([]contracts.RankedEntry, topN)
	for i, w := range rows[:topN] {
		entries[i] = contracts.RankedEntry{
			Ticker:         w.scores.Ticker,
			CompositeScore: round4(w.composite),
			MomentumZ:      round4(w.momZ),
			QualityZ:       round4(w.qualZ),
			LowVolZ:        round4(w.volZ),
			Rank:           i + 1,
		}

		r.logger.WithFields(map[string]interface{}{
			"rank":      entries[i].Rank,
			"ticker":    entries[i].Ticker,
			"composite": entries[i].CompositeScore,
		}).Info("Ranked")
	}

	return entries
}

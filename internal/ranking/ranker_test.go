package ranking

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaslov/factorsieve/internal/contracts"
	"github.com/dmaslov/factorsieve/internal/strategy"
	"github.com/dmaslov/factorsieve/pkg/logger"
)

func testRanker() *Ranker {
	return New(strategy.FactorWeights{
		Momentum: 0.40,
		Quality:  0.35,
		LowVol:   0.25,
	}, logger.NewNop())
}

func score(ticker string, momentum, quality, lowVol *float64) contracts.FactorScores {
	return contracts.FactorScores{Ticker: ticker, Momentum: momentum, Quality: quality, LowVol: lowVol}
}

func f(v float64) *float64 { return contracts.Float(v) }

func TestRank_ReturnsTopN(t *testing.T) {
	scores := make([]contracts.FactorScores, 10)
	for i := range scores {
		scores[i] = score("T"+string(rune('0'+i)), f(0.1*float64(i)), f(0.5), f(0.2))
	}

	result := testRanker().Rank(scores, 3)
	assert.Len(t, result, 3)
}

func TestRank_BestCompositeIsRankOne(t *testing.T) {
	scores := []contracts.FactorScores{
		score("HIGH", f(0.5), f(0.9), f(0.1)), // strong on all factors
		score("LOW", f(-0.3), f(0.1), f(0.4)), // weak on all factors
		score("MID", f(0.1), f(0.5), f(0.2)),
	}

	result := testRanker().Rank(scores, 3)
	require.Len(t, result, 3)

	assert.Equal(t, "HIGH", result[0].Ticker)
	assert.Equal(t, "MID", result[1].Ticker)
	assert.Equal(t, "LOW", result[2].Ticker)
	assert.Equal(t, []int{1, 2, 3}, []int{result[0].Rank, result[1].Rank, result[2].Rank})

	assert.Greater(t, result[0].CompositeScore, result[1].CompositeScore)
	assert.Greater(t, result[1].CompositeScore, result[2].CompositeScore)
	assert.Greater(t, result[0].CompositeScore, 0.0)
	assert.Less(t, result[2].CompositeScore, 0.0)
}

func TestRank_LowerVolatilityScoresHigher(t *testing.T) {
	// Identical momentum and quality; only volatility differs. The raw
	// value arrives uninverted, so the calmer ticker must win.
	scores := []contracts.FactorScores{
		score("HIGH_VOL", f(0.2), f(0.6), f(0.50)),
		score("LOW_VOL", f(0.2), f(0.6), f(0.10)),
	}

	result := testRanker().Rank(scores, 2)
	require.Len(t, result, 2)
	assert.Equal(t, "LOW_VOL", result[0].Ticker)
	assert.Equal(t, 1, result[0].Rank)
}

func TestRank_EmptyInput(t *testing.T) {
	result := testRanker().Rank(nil, 3)
	assert.Empty(t, result)

	result = testRanker().Rank([]contracts.FactorScores{}, 5)
	assert.Empty(t, result)
}

func TestRank_AllNilTickersDropped(t *testing.T) {
	scores := []contracts.FactorScores{
		score("DARK", nil, nil, nil),
		score("LIT", f(0.3), f(0.5), f(0.2)),
	}

	result := testRanker().Rank(scores, 5)
	require.Len(t, result, 1)
	assert.Equal(t, "LIT", result[0].Ticker)
	assert.Equal(t, 1, result[0].Rank)
}

func TestRank_EntirelyDegenerateUniverse(t *testing.T) {
	scores := []contracts.FactorScores{
		score("A", nil, nil, nil),
		score("B", nil, nil, nil),
	}

	result := testRanker().Rank(scores, 3)
	assert.Empty(t, result)
}

func TestRank_PartialNilGetsNeutralFill(t *testing.T) {
	scores := []contracts.FactorScores{
		score("FULL_A", f(0.1), f(0.4), f(0.2)),
		score("FULL_B", f(0.3), f(0.6), f(0.2)),
		score("PARTIAL", f(0.2), nil, f(0.2)),
	}

	result := testRanker().Rank(scores, 3)
	require.Len(t, result, 3)

	byTicker := map[string]contracts.RankedEntry{}
	for _, e := range result {
		byTicker[e.Ticker] = e
	}

	// The ticker missing quality is retained, with a neutral 0.0 for
	// the missing term rather than exclusion.
	partial, ok := byTicker["PARTIAL"]
	require.True(t, ok)
	assert.Equal(t, 0.0, partial.QualityZ)

	// Its momentum z-score still reflects its position in the cross
	// section (middle of {0.1, 0.2, 0.3} -> 0).
	assert.InDelta(t, 0.0, partial.MomentumZ, 1e-9)
}

func TestRank_ZeroVarianceFactorIsNeutral(t *testing.T) {
	// Identical quality everywhere: the z-score must be 0.0 for every
	// ticker, not a division error.
	scores := []contracts.FactorScores{
		score("A", f(0.5), f(0.7), f(0.1)),
		score("B", f(0.1), f(0.7), f(0.3)),
		score("C", f(0.3), f(0.7), f(0.2)),
	}

	result := testRanker().Rank(scores, 3)
	require.Len(t, result, 3)
	for _, e := range result {
		assert.Equal(t, 0.0, e.QualityZ)
	}
}

func TestRank_SingleTickerUniverse(t *testing.T) {
	// A one-ticker cross section has undefined deviation on all
	// factors: everything neutral, composite 0, rank 1.
	result := testRanker().Rank([]contracts.FactorScores{
		score("ONLY", f(0.2), f(0.5), f(0.15)),
	}, 3)

	require.Len(t, result, 1)
	assert.Equal(t, "ONLY", result[0].Ticker)
	assert.Equal(t, 1, result[0].Rank)
	assert.Equal(t, 0.0, result[0].CompositeScore)
}

func TestRank_TopNLargerThanUniverse(t *testing.T) {
	scores := []contracts.FactorScores{
		score("A", f(0.2), f(0.5), f(0.15)),
		score("B", f(0.4), f(0.6), f(0.25)),
	}

	result := testRanker().Rank(scores, 10)
	assert.Len(t, result, 2)
}

func TestRank_Deterministic(t *testing.T) {
	scores := make([]contracts.FactorScores, 6)
	for i := range scores {
		scores[i] = score("T"+string(rune('A'+i)), f(0.05*float64(i)), f(0.5), f(0.2-0.01*float64(i)))
	}

	a := testRanker().Rank(scores, 4)
	b := testRanker().Rank(scores, 4)
	assert.Equal(t, a, b)
}

func TestRank_TiesPreserveInputOrder(t *testing.T) {
	// All factors identical: every composite is neutral 0.0, so the
	// stable sort must keep the input order.
	scores := []contracts.FactorScores{
		score("FIRST", f(0.2), f(0.5), f(0.1)),
		score("SECOND", f(0.2), f(0.5), f(0.1)),
		score("THIRD", f(0.2), f(0.5), f(0.1)),
	}

	result := testRanker().Rank(scores, 3)
	require.Len(t, result, 3)
	assert.Equal(t, "FIRST", result[0].Ticker)
	assert.Equal(t, "SECOND", result[1].Ticker)
	assert.Equal(t, "THIRD", result[2].Ticker)
	assert.Equal(t, []int{1, 2, 3}, []int{result[0].Rank, result[1].Rank, result[2].Rank})
}

func TestRank_KnownZScores(t *testing.T) {
	// Momentum column {0.5, 0.1, -0.3}: mean 0.1, sample std 0.4, so
	// z-scores are exactly {1, 0, -1}.
	scores := []contracts.FactorScores{
		score("P", f(0.5), nil, nil),
		score("Q", f(0.1), nil, nil),
		score("R", f(-0.3), nil, nil),
	}

	result := testRanker().Rank(scores, 3)
	require.Len(t, result, 3)

	assert.Equal(t, "P", result[0].Ticker)
	assert.InDelta(t, 1.0, result[0].MomentumZ, 1e-9)
	assert.InDelta(t, 0.0, result[1].MomentumZ, 1e-9)
	assert.InDelta(t, -1.0, result[2].MomentumZ, 1e-9)

	// Only momentum carries signal, so composite = 0.40 * z.
	assert.InDelta(t, 0.40, result[0].CompositeScore, 1e-9)
	assert.InDelta(t, -0.40, result[2].CompositeScore, 1e-9)
}

func TestMeanSampleStd(t *testing.T) {
	mean, std := meanSampleStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5.0, mean, 1e-9)
	assert.InDelta(t, 2.138, std, 0.001)

	_, std = meanSampleStd([]float64{42})
	assert.True(t, math.IsNaN(std))

	_, std = meanSampleStd(nil)
	assert.True(t, math.IsNaN(std))
}

func TestCrossSectionalZ_AllNil(t *testing.T) {
	zs := crossSectionalZ([]*float64{nil, nil, nil})
	assert.Equal(t, []float64{0, 0, 0}, zs)
}

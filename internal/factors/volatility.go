package factors

import (
	"math"

	"github.com/dmaslov/factorsieve/internal/contracts"
)

// tradingDaysPerYear annualizes daily volatility.
const tradingDaysPerYear = 252

// minDailyReturns is the floor of usable daily returns below which the
// volatility estimate is considered meaningless.
const minDailyReturns = 10

// volatility computes annualized realized volatility: the sample
// standard deviation of daily simple returns over the trailing window,
// scaled by sqrt(252). The output is RAW — higher means more volatile;
// the ranking engine inverts the direction, never this function.
//
// Returns nil if fewer than the window of valid closes exist, or fewer
// than minDailyReturns returns remain after differencing.
func (e *Engine) volatility(closes []float64) *float64 {
	window := e.config.VolatilityWindow

	if len(closes) < window {
		return nil
	}

	recent := closes[len(closes)-window:]

	returns := make([]float64, 0, len(recent)-1)
	for i := 1; i < len(recent); i++ {
		returns = append(returns, (recent[i]-recent[i-1])/recent[i-1])
	}

	if len(returns) < minDailyReturns {
		return nil
	}

	return contracts.Float(sampleStdDev(returns) * math.Sqrt(tradingDaysPerYear))
}

// sampleStdDev computes the sample (n-1) standard deviation.
func sampleStdDev(values []float64) float64 {
	n := float64(len(values))

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= n

	ss := 0.0
	for _, v := range values {
		d := v - mean
		ss += d * d
	}

	return math.Sqrt(ss / (n - 1))
}

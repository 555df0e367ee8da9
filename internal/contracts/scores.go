package contracts

// FactorScores holds the raw factor signals for a single ticker as
// produced by the factor engine. A nil factor means its inputs were
// insufficient. LowVol is raw annualized volatility — higher means more
// volatile; the ranking engine inverts its direction, never the factor
// engine.
type FactorScores struct {
	Ticker   string   `json:"ticker"`
	Momentum *float64 `json:"momentum,omitempty"` // 12-1 month return, e.g. 0.18 = 18%
	Quality  *float64 `json:"quality,omitempty"`  // composite in [0, 1], higher = better
	LowVol   *float64 `json:"low_vol,omitempty"`  // annualized realized volatility
}

// HasAnySignal reports whether at least one factor is present.
func (s FactorScores) HasAnySignal() bool {
	return s.Momentum != nil || s.Quality != nil || s.LowVol != nil
}

// RankedEntry is one row of the final ranked shortlist.
type RankedEntry struct {
	Ticker         string  `json:"ticker"`
	CompositeScore float64 `json:"composite_score"`
	MomentumZ      float64 `json:"momentum_z"`
	QualityZ       float64 `json:"quality_z"`
	LowVolZ        float64 `json:"low_vol_z"` // z-score of inverted volatility
	Rank           int     `json:"rank"`      // dense, 1-based, 1 = best
}

// ScreenResult is the audit record for a single ticker after the hard
// screen. Reason carries the first failing check, or a pass note.
type ScreenResult struct {
	Ticker string `json:"ticker"`
	Passed bool   `json:"passed"`
	Reason string `json:"reason"`
}

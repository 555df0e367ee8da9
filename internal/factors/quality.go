package factors

import "github.com/dmaslov/factorsieve/internal/contracts"

// Quality component clipping ranges. Values outside are likely noise.
const (
	roeClipMin = -0.5
	roeClipMax = 1.0
	dteClipMin = 0.0
	dteClipMax = 3.0
)

// quality computes the composite quality score from ROE and
// debt-to-equity. Each component is clipped, rescaled to [0, 1]
// (lower debt scores higher), and the result is the mean of whichever
// components are present — one missing input does not zero the score.
//
// Returns nil only when both inputs are absent.
func quality(f contracts.Fundamentals) *float64 {
	roe := f.ReturnOnEquity
	dte := f.DebtToEquity

	if roe == nil && dte == nil {
		return nil
	}

	var components []float64

	if roe != nil {
		clipped := clip(*roe, roeClipMin, roeClipMax)
		// 0% ROE -> 0.33, 50% ROE -> ~0.67, 100% ROE -> 1.0
		components = append(components, (clipped+0.5)/1.5)
	}

	if dte != nil {
		clipped := clip(*dte, dteClipMin, dteClipMax)
		// D/E of 0 -> 1.0, D/E of 3 -> 0.0
		components = append(components, 1.0-clipped/3.0)
	}

	sum := 0.0
	for _, c := range components {
		sum += c
	}

	return contracts.Float(sum / float64(len(components)))
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package ranking

import "math"

// crossSectionalZ normalizes one factor column across the universe.
// nil entries are ignored when computing the mean and sample standard
// deviation, then neutral-filled with 0.0 so a missing factor neither
// penalizes nor rewards the composite. A zero or undefined standard
// deviation (single observation, or all values identical) yields a
// neutral 0.0 for every ticker instead of a division by zero.
func crossSectionalZ(column []*float64) []float64 {
	present := make([]float64, 0, len(column))
	for _, v := range column {
		if v != nil {
			present = append(present, *v)
		}
	}

	zs := make([]float64, len(column))

	mean, std := meanSampleStd(present)
	if std == 0 || math.IsNaN(std) {
		return zs
	}

	for i, v := range column {
		if v == nil {
			continue // neutral fill
		}
		zs[i] = (*v - mean) / std
	}

	return zs
}

// meanSampleStd returns the mean and sample (n-1) standard deviation.
// With fewer than two observations the deviation is NaN, matching the
// undefined case callers neutralize.
func meanSampleStd(values []float64) (float64, float64) {
	n := float64(len(values))
	if n == 0 {
		return 0, math.NaN()
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= n

	if n < 2 {
		return mean, math.NaN()
	}

	ss := 0.0
	for _, v := range values {
		d := v - mean
		ss += d * d
	}

	return mean, math.Sqrt(ss / (n - 1))
}

// round4 rounds to four decimals for presentation-stable output.
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

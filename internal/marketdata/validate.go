package marketdata

import (
	"github.com/dmaslov/factorsieve/internal/contracts"
	"github.com/dmaslov/factorsieve/pkg/logger"
)

// maxNullCloseFraction is the tolerated share of unusable closes before
// a series is rejected outright.
const maxNullCloseFraction = 0.05

// ValidatePriceSeries checks a fetched series is fit for factor
// computation. It logs the specific defect and returns false rather
// than letting bad data flow into scoring.
func ValidatePriceSeries(series contracts.PriceSeries, minBars int, log *logger.Logger) bool {
	tlog := log.WithField("ticker", series.Ticker)

	if series.Len() == 0 {
		tlog.Error("Price history is empty")
		return false
	}

	if series.Len() < minBars {
		tlog.WithFields(map[string]interface{}{
			"bars":     series.Len(),
			"min_bars": minBars,
		}).Error("Price history too short")
		return false
	}

	invalid := series.Len() - len(series.ValidCloses())
	if frac := float64(invalid) / float64(series.Len()); frac > maxNullCloseFraction {
		tlog.WithFields(map[string]interface{}{
			"invalid_fraction": frac,
		}).Error("Too many invalid close prices")
		return false
	}

	for i := 1; i < len(series.Bars); i++ {
		if !series.Bars[i].Date.After(series.Bars[i-1].Date) {
			tlog.WithField("date", series.Bars[i].Date).Error("Price history not strictly ascending")
			return false
		}
	}

	return true
}

// ValidateFundamentals checks a fundamentals snapshot. Missing critical
// fields are logged as warnings only — the screener fails them closed
// with its own reasons.
func ValidateFundamentals(f contracts.Fundamentals, log *logger.Logger) bool {
	tlog := log.WithField("ticker", f.Ticker)

	if f.Price == nil {
		tlog.Warn("Fundamentals missing price")
	}
	if f.MarketCap == nil {
		tlog.Warn("Fundamentals missing market cap")
	}

	return true
}

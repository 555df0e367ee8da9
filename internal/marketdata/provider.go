package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmaslov/factorsieve/internal/contracts"
)

// ErrDataUnavailable signals that a provider could not fulfil a
// per-ticker request. The pipeline recovers from it locally — it never
// propagates past the ticker boundary.
var ErrDataUnavailable = errors.New("market data unavailable")

// ErrUnknownSector signals a sector the provider has no universe for.
var ErrUnknownSector = errors.New("unknown sector")

// Provider is the capability interface the pipeline consumes. Screener,
// factor engine and backtest driver only ever call these three methods;
// swapping a live backend for the synthetic one is a constructor change.
type Provider interface {
	// PriceHistory returns daily OHLCV bars for the ticker, ascending
	// by date, covering [start, end].
	PriceHistory(ctx context.Context, ticker string, start, end time.Time) (contracts.PriceSeries, error)

	// LatestFundamentals returns the point-in-time fundamentals
	// snapshot for the ticker. Any field may be nil.
	LatestFundamentals(ctx context.Context, ticker string) (contracts.Fundamentals, error)

	// SectorTickers returns the ticker universe for a named sector.
	SectorTickers(ctx context.Context, sector string) ([]string, error)
}

// unavailable wraps an underlying cause as a data-unavailable error.
func unavailable(ticker string, cause error) error {
	return fmt.Errorf("%w for %s: %s", ErrDataUnavailable, ticker, cause)
}

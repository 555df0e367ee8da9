package factors

import "github.com/dmaslov/factorsieve/internal/contracts"

// momentum computes the 12-1 month price momentum: total return from
// the close long-window bars back to the close short-window bars back.
// The most recent month is deliberately excluded to avoid short-term
// reversal contamination.
//
// Returns nil if fewer than the long window of valid closes exist, or
// if the long-window anchor price is non-positive.
func (e *Engine) momentum(closes []float64) *float64 {
	long := e.config.MomentumLongWindow
	short := e.config.MomentumShortWindow

	if len(closes) < long {
		return nil
	}

	priceLongAgo := closes[len(closes)-long]
	priceShortAgo := closes[len(closes)-short]

	if priceLongAgo <= 0 {
		return nil
	}

	return contracts.Float((priceShortAgo - priceLongAgo) / priceLongAgo)
}

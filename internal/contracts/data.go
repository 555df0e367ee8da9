package contracts

import "time"

// PriceBar is a single daily OHLCV record.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// PriceSeries is daily OHLCV history for one ticker, strictly ascending
// by date with no duplicate dates. Providers are responsible for the
// ordering invariant; consumers filter invalid closes via ValidCloses.
type PriceSeries struct {
	Ticker string     `json:"ticker"`
	Bars   []PriceBar `json:"bars"`
}

// ValidCloses returns the close prices usable for factor computation.
// Bars with a non-positive close are excluded.
func (s PriceSeries) ValidCloses() []float64 {
	closes := make([]float64, 0, len(s.Bars))
	for _, bar := range s.Bars {
		if bar.Close > 0 {
			closes = append(closes, bar.Close)
		}
	}
	return closes
}

// Len returns the number of bars.
func (s PriceSeries) Len() int {
	return len(s.Bars)
}

// Fundamentals is a point-in-time snapshot of fundamental metrics for
// one ticker. Every field may be absent; absence is modeled as a nil
// pointer, never as a sentinel value.
type Fundamentals struct {
	Ticker            string   `json:"ticker"`
	Price             *float64 `json:"price,omitempty"`
	MarketCap         *float64 `json:"market_cap,omitempty"`
	AvgDailyVolume    *float64 `json:"avg_daily_volume,omitempty"` // average daily dollar volume
	DebtToEquity      *float64 `json:"debt_to_equity,omitempty"`
	ReturnOnEquity    *float64 `json:"return_on_equity,omitempty"`
	EarningsPerShare  *float64 `json:"earnings_per_share,omitempty"`
}

// Float returns a pointer to v. Convenience for building optional fields.
func Float(v float64) *float64 {
	return &v
}

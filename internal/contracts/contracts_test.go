package contracts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPriceSeries_ValidCloses(t *testing.T) {
	day := func(d int, close float64) PriceBar {
		return PriceBar{
			Date:  time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC),
			Close: close,
		}
	}

	series := PriceSeries{
		Ticker: "AAPL",
		Bars: []PriceBar{
			day(2, 101.5),
			day(3, 0),      // excluded: missing close encoded as zero
			day(4, -3),     // excluded: non-positive
			day(5, 102.25),
		},
	}

	assert.Equal(t, []float64{101.5, 102.25}, series.ValidCloses())
	assert.Equal(t, 4, series.Len())
}

func TestPriceSeries_ValidCloses_Empty(t *testing.T) {
	assert.Empty(t, PriceSeries{Ticker: "EMPTY"}.ValidCloses())
}

func TestFactorScores_HasAnySignal(t *testing.T) {
	tests := []struct {
		name   string
		scores FactorScores
		want   bool
	}{
		{"all present", FactorScores{Momentum: Float(0.1), Quality: Float(0.5), LowVol: Float(0.2)}, true},
		{"only momentum", FactorScores{Momentum: Float(-0.2)}, true},
		{"only quality", FactorScores{Quality: Float(0.9)}, true},
		{"only low vol", FactorScores{LowVol: Float(0.3)}, true},
		{"none", FactorScores{Ticker: "DARK"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.scores.HasAnySignal())
		})
	}
}

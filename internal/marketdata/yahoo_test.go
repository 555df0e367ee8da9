package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaslov/factorsieve/pkg/config"
	"github.com/dmaslov/factorsieve/pkg/logger"
)

const chartPayload = `{
  "chart": {
    "result": [{
      "timestamp": [1672704000, 1672790400, 1672876800],
      "indicators": {
        "quote": [{
          "open": [129.1, 126.5, 127.0],
          "high": [130.2, 128.0, 128.5],
          "low": [128.0, 125.9, 126.4],
          "close": [129.6, 126.4, 127.8],
          "volume": [70000000, 65000000, 68000000]
        }]
      }
    }],
    "error": null
  }
}`

const quoteSummaryPayload = `{
  "quoteSummary": {
    "result": [{
      "price": {
        "regularMarketPrice": {"raw": 127.8},
        "marketCap": {"raw": 2050000000000}
      },
      "summaryDetail": {
        "averageDailyVolume10Day": {"raw": 68000000}
      },
      "financialData": {
        "debtToEquity": {"raw": 150.0},
        "returnOnEquity": {"raw": 0.35}
      },
      "defaultKeyStatistics": {
        "trailingEps": {"raw": 6.11}
      }
    }],
    "error": null
  }
}`

func newTestYahoo(t *testing.T, handler http.Handler) *Yahoo {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewYahoo(config.YahooConfig{
		ChartBaseURL: srv.URL + "/chart",
		QuoteBaseURL: srv.URL + "/quote",
		SectorsURL:   srv.URL + "/sectors",
		RatePerSec:   1000,
	}, logger.NewNop())
}

func TestYahoo_PriceHistory(t *testing.T) {
	provider := newTestYahoo(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/chart/AAPL")
		w.Write([]byte(chartPayload))
	}))

	series, err := provider.PriceHistory(context.Background(), "AAPL",
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Equal(t, 3, series.Len())
	assert.Equal(t, 129.6, series.Bars[0].Close)
	assert.Equal(t, int64(68000000), series.Bars[2].Volume)
	assert.True(t, series.Bars[1].Date.After(series.Bars[0].Date))
}

func TestYahoo_PriceHistory_ErrorPayload(t *testing.T) {
	provider := newTestYahoo(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))

	_, err := provider.PriceHistory(context.Background(), "NOPE", time.Time{}, time.Now())
	require.ErrorIs(t, err, ErrDataUnavailable)
	assert.Contains(t, err.Error(), "No data found")
}

func TestYahoo_PriceHistory_RejectsUnorderedBars(t *testing.T) {
	payload := strings.Replace(chartPayload,
		"[1672704000, 1672790400, 1672876800]",
		"[1672790400, 1672704000, 1672876800]", 1)
	provider := newTestYahoo(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))

	_, err := provider.PriceHistory(context.Background(), "AAPL",
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, ErrDataUnavailable)
}

func TestYahoo_LatestFundamentals(t *testing.T) {
	provider := newTestYahoo(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(quoteSummaryPayload))
	}))

	f, err := provider.LatestFundamentals(context.Background(), "AAPL")
	require.NoError(t, err)

	require.NotNil(t, f.Price)
	assert.Equal(t, 127.8, *f.Price)
	require.NotNil(t, f.MarketCap)
	assert.Equal(t, 2.05e12, *f.MarketCap)

	// Share volume converted to dollar volume.
	require.NotNil(t, f.AvgDailyVolume)
	assert.InDelta(t, 68000000*127.8, *f.AvgDailyVolume, 1)

	// Percentage converted to ratio.
	require.NotNil(t, f.DebtToEquity)
	assert.InDelta(t, 1.5, *f.DebtToEquity, 1e-9)

	require.NotNil(t, f.ReturnOnEquity)
	assert.Equal(t, 0.35, *f.ReturnOnEquity)
}

func TestYahoo_SectorTickers_Unknown(t *testing.T) {
	provider := newTestYahoo(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := provider.SectorTickers(context.Background(), "Cryptids")
	assert.ErrorIs(t, err, ErrUnknownSector)
}

func TestParseSectorTickers(t *testing.T) {
	html := `
<table>
  <tbody>
    <tr><td>AAPL Apple Inc.</td><td>2.0T</td></tr>
    <tr><td>MSFT Microsoft</td><td>1.9T</td></tr>
    <tr><td>AAPL Apple Inc.</td><td>2.0T</td></tr>
    <tr><td></td><td>-</td></tr>
  </tbody>
</table>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	tickers := parseSectorTickers(doc)
	assert.Equal(t, []string{"AAPL", "MSFT"}, tickers)
}

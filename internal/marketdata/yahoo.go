package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/dmaslov/factorsieve/internal/contracts"
	"github.com/dmaslov/factorsieve/pkg/config"
	"github.com/dmaslov/factorsieve/pkg/httputil"
	"github.com/dmaslov/factorsieve/pkg/logger"
)

// Yahoo is a Provider backed by the public Yahoo Finance endpoints.
// Prototyping-grade: good enough for factor development and historical
// runs, not for production trading. Swap in a production provider by
// implementing Provider and changing one constructor call.
type Yahoo struct {
	cfg        config.YahooConfig
	httpClient *httputil.Client
	logger     *logger.Logger
}

// yahooHeaders mimic a browser; the public endpoints reject the Go
// default user agent.
var yahooHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
	"Accept":     "application/json, text/html;q=0.9",
}

// NewYahoo creates a Yahoo-backed provider.
func NewYahoo(cfg config.YahooConfig, log *logger.Logger) *Yahoo {
	client := httputil.NewWithTimeout(log, 20*time.Second).
		WithRateLimit(cfg.RatePerSec, 1)

	return &Yahoo{
		cfg:        cfg,
		httpClient: client,
		logger:     log,
	}
}

// chartResponse mirrors the subset of the v8 chart payload we read.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// PriceHistory implements Provider.
func (y *Yahoo) PriceHistory(ctx context.Context, ticker string, start, end time.Time) (contracts.PriceSeries, error) {
	fullURL := fmt.Sprintf(
		"%s/%s?period1=%d&period2=%d&interval=1d&events=div%%2Csplit",
		y.cfg.ChartBaseURL, url.PathEscape(ticker), start.Unix(), end.Unix(),
	)

	body, err := y.fetch(ctx, fullURL)
	if err != nil {
		return contracts.PriceSeries{}, unavailable(ticker, err)
	}

	var parsed chartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return contracts.PriceSeries{}, unavailable(ticker, fmt.Errorf("parse chart response: %w", err))
	}
	if parsed.Chart.Error != nil {
		return contracts.PriceSeries{}, unavailable(ticker, fmt.Errorf("%s: %s", parsed.Chart.Error.Code, parsed.Chart.Error.Description))
	}
	if len(parsed.Chart.Result) == 0 || len(parsed.Chart.Result[0].Indicators.Quote) == 0 {
		return contracts.PriceSeries{}, unavailable(ticker, fmt.Errorf("empty chart result"))
	}

	result := parsed.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	bars := make([]contracts.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) {
			break
		}
		bars = append(bars, contracts.PriceBar{
			Date:   time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Open:   at(quote.Open, i),
			High:   at(quote.High, i),
			Low:    at(quote.Low, i),
			Close:  at(quote.Close, i),
			Volume: atInt(quote.Volume, i),
		})
	}

	series := contracts.PriceSeries{Ticker: ticker, Bars: bars}
	if !ValidatePriceSeries(series, 1, y.logger) {
		return contracts.PriceSeries{}, unavailable(ticker, fmt.Errorf("price history failed validation"))
	}

	y.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"bars":   len(bars),
	}).Debug("Fetched price history")

	return series, nil
}

// quoteSummaryResponse mirrors the subset of the v10 quoteSummary
// payload we read. Yahoo wraps every numeric field in {raw, fmt}.
type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			Price struct {
				RegularMarketPrice rawValue `json:"regularMarketPrice"`
				MarketCap          rawValue `json:"marketCap"`
			} `json:"price"`
			SummaryDetail struct {
				AverageDailyVolume10Day rawValue `json:"averageDailyVolume10Day"`
			} `json:"summaryDetail"`
			FinancialData struct {
				DebtToEquity   rawValue `json:"debtToEquity"`
				ReturnOnEquity rawValue `json:"returnOnEquity"`
			} `json:"financialData"`
			DefaultKeyStatistics struct {
				TrailingEps rawValue `json:"trailingEps"`
			} `json:"defaultKeyStatistics"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

type rawValue struct {
	Raw *float64 `json:"raw"`
}

// LatestFundamentals implements Provider.
func (y *Yahoo) LatestFundamentals(ctx context.Context, ticker string) (contracts.Fundamentals, error) {
	fullURL := fmt.Sprintf(
		"%s/%s?modules=price%%2CsummaryDetail%%2CfinancialData%%2CdefaultKeyStatistics",
		y.cfg.QuoteBaseURL, url.PathEscape(ticker),
	)

	body, err := y.fetch(ctx, fullURL)
	if err != nil {
		return contracts.Fundamentals{}, unavailable(ticker, err)
	}

	var parsed quoteSummaryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return contracts.Fundamentals{}, unavailable(ticker, fmt.Errorf("parse quote summary: %w", err))
	}
	if parsed.QuoteSummary.Error != nil {
		return contracts.Fundamentals{}, unavailable(ticker, fmt.Errorf("%s: %s", parsed.QuoteSummary.Error.Code, parsed.QuoteSummary.Error.Description))
	}
	if len(parsed.QuoteSummary.Result) == 0 {
		return contracts.Fundamentals{}, unavailable(ticker, fmt.Errorf("empty quote summary"))
	}

	r := parsed.QuoteSummary.Result[0]

	// Price is needed for the dollar-volume conversion below.
	price := r.Price.RegularMarketPrice.Raw

	// Yahoo reports share volume; the screener works in dollar volume.
	var dollarVolume *float64
	if r.SummaryDetail.AverageDailyVolume10Day.Raw != nil && price != nil {
		dollarVolume = contracts.Float(*r.SummaryDetail.AverageDailyVolume10Day.Raw * *price)
	}

	// Yahoo reports debtToEquity as a percentage (e.g. 150.0), the
	// factor engine expects a ratio (1.5).
	var dte *float64
	if r.FinancialData.DebtToEquity.Raw != nil {
		dte = contracts.Float(*r.FinancialData.DebtToEquity.Raw / 100.0)
	}

	f := contracts.Fundamentals{
		Ticker:           ticker,
		Price:            price,
		MarketCap:        r.Price.MarketCap.Raw,
		AvgDailyVolume:   dollarVolume,
		DebtToEquity:     dte,
		ReturnOnEquity:   r.FinancialData.ReturnOnEquity.Raw,
		EarningsPerShare: r.DefaultKeyStatistics.TrailingEps.Raw,
	}
	ValidateFundamentals(f, y.logger)

	return f, nil
}

// SectorTickers implements Provider. It scrapes the sector page for its
// largest constituents; the set of supported sectors is whatever Yahoo
// lists.
func (y *Yahoo) SectorTickers(ctx context.Context, sector string) ([]string, error) {
	slug := strings.ToLower(strings.ReplaceAll(sector, " ", "-"))
	fullURL := fmt.Sprintf("%s/%s/", y.cfg.SectorsURL, slug)

	resp, err := y.httpClient.GetWithHeaders(ctx, fullURL, yahooHeaders)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %s", ErrUnknownSector, sector, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSector, sector)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w %q: status %d", ErrUnknownSector, sector, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w %q: parse page: %s", ErrUnknownSector, sector, err)
	}

	tickers := parseSectorTickers(doc)
	if len(tickers) == 0 {
		return nil, fmt.Errorf("%w: %s (no constituents found)", ErrUnknownSector, sector)
	}

	y.logger.WithFields(map[string]interface{}{
		"sector":  sector,
		"tickers": len(tickers),
	}).Debug("Fetched sector universe")

	return tickers, nil
}

// parseSectorTickers extracts ticker symbols from the constituents
// table of a sector page.
func parseSectorTickers(doc *goquery.Document) []string {
	seen := make(map[string]bool)
	var tickers []string

	doc.Find("table tbody tr td:first-child").Each(func(_ int, sel *goquery.Selection) {
		symbol := strings.TrimSpace(sel.Text())
		if idx := strings.IndexAny(symbol, " \n\t"); idx > 0 {
			symbol = symbol[:idx]
		}
		if symbol == "" || len(symbol) > 6 || seen[symbol] {
			return
		}
		seen[symbol] = true
		tickers = append(tickers, symbol)
	})

	return tickers
}

// fetch gets a URL and returns the body, treating non-200 as an error.
func (y *Yahoo) fetch(ctx context.Context, fullURL string) ([]byte, error) {
	resp, err := y.httpClient.GetWithHeaders(ctx, fullURL, yahooHeaders)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func at(vals []float64, i int) float64 {
	if i < len(vals) {
		return vals[i]
	}
	return 0
}

func atInt(vals []int64, i int) int64 {
	if i < len(vals) {
		return vals[i]
	}
	return 0
}

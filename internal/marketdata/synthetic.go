package marketdata

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/dmaslov/factorsieve/internal/contracts"
)

// Synthetic is a deterministic in-memory Provider. It backs unit tests
// and backtests: identical inputs always produce identical series, so
// pipeline output is reproducible down to the last rank.
type Synthetic struct {
	mu           sync.RWMutex
	sectors      map[string][]string
	bars         map[string][]contracts.PriceBar
	fundamentals map[string]contracts.Fundamentals
	failing      map[string]string // ticker -> failure message
}

// NewSynthetic creates an empty synthetic provider.
func NewSynthetic() *Synthetic {
	return &Synthetic{
		sectors:      make(map[string][]string),
		bars:         make(map[string][]contracts.PriceBar),
		fundamentals: make(map[string]contracts.Fundamentals),
		failing:      make(map[string]string),
	}
}

// AddSector registers a sector universe. Sector names are
// case-insensitive, matching the live provider's slug handling.
func (s *Synthetic) AddSector(sector string, tickers ...string) *Synthetic {
	key := strings.ToLower(sector)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sectors[key] = append(s.sectors[key], tickers...)
	return s
}

// SetBars installs an explicit price history for a ticker.
func (s *Synthetic) SetBars(ticker string, bars []contracts.PriceBar) *Synthetic {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bars[ticker] = bars
	return s
}

// SetFundamentals installs a fundamentals snapshot for a ticker.
func (s *Synthetic) SetFundamentals(f contracts.Fundamentals) *Synthetic {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fundamentals[f.Ticker] = f
	return s
}

// FailTicker makes every data call for the ticker return
// ErrDataUnavailable with the given message.
func (s *Synthetic) FailTicker(ticker, message string) *Synthetic {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[ticker] = message
	return s
}

// GenerateWalk installs a deterministic geometric random walk for a
// ticker: days calendar bars (weekdays only) ending at end, starting at
// startPrice, with per-bar drift and noise amplitude. The walk is
// seeded from the ticker name, so regenerating it yields the same path.
func (s *Synthetic) GenerateWalk(ticker string, end time.Time, days int, startPrice, drift, noise float64) *Synthetic {
	h := fnv.New64a()
	h.Write([]byte(ticker))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	bars := make([]contracts.PriceBar, 0, days)
	price := startPrice

	// Walk forward from the first weekday that leaves `days` bars
	// before end.
	date := end
	weekdays := 0
	for weekdays < days {
		if wd := date.Weekday(); wd != time.Saturday && wd != time.Sunday {
			weekdays++
		}
		date = date.AddDate(0, 0, -1)
	}
	date = date.AddDate(0, 0, 1)

	for len(bars) < days {
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			date = date.AddDate(0, 0, 1)
			continue
		}

		ret := drift + noise*(2*rng.Float64()-1)
		price = price * (1 + ret)
		if price < 0.01 {
			price = 0.01
		}

		bars = append(bars, contracts.PriceBar{
			Date:   date,
			Open:   price * 0.995,
			High:   price * 1.01,
			Low:    price * 0.99,
			Close:  math.Round(price*100) / 100,
			Volume: 1_000_000 + rng.Int63n(500_000),
		})
		date = date.AddDate(0, 0, 1)
	}

	return s.SetBars(ticker, bars)
}

// PriceHistory implements Provider.
func (s *Synthetic) PriceHistory(ctx context.Context, ticker string, start, end time.Time) (contracts.PriceSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if msg, ok := s.failing[ticker]; ok {
		return contracts.PriceSeries{}, unavailable(ticker, fmt.Errorf("%s", msg))
	}

	bars, ok := s.bars[ticker]
	if !ok {
		return contracts.PriceSeries{}, unavailable(ticker, fmt.Errorf("no price data"))
	}

	out := make([]contracts.PriceBar, 0, len(bars))
	for _, bar := range bars {
		if bar.Date.Before(start) || bar.Date.After(end) {
			continue
		}
		out = append(out, bar)
	}

	return contracts.PriceSeries{Ticker: ticker, Bars: out}, nil
}

// LatestFundamentals implements Provider.
func (s *Synthetic) LatestFundamentals(ctx context.Context, ticker string) (contracts.Fundamentals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if msg, ok := s.failing[ticker]; ok {
		return contracts.Fundamentals{}, unavailable(ticker, fmt.Errorf("%s", msg))
	}

	f, ok := s.fundamentals[ticker]
	if !ok {
		return contracts.Fundamentals{}, unavailable(ticker, fmt.Errorf("no fundamentals"))
	}

	return f, nil
}

// SectorTickers implements Provider.
func (s *Synthetic) SectorTickers(ctx context.Context, sector string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tickers, ok := s.sectors[strings.ToLower(sector)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSector, sector)
	}

	out := make([]string, len(tickers))
	copy(out, tickers)
	return out, nil
}

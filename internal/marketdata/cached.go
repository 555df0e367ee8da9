package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/dmaslov/factorsieve/internal/contracts"
	"github.com/dmaslov/factorsieve/pkg/logger"
	"github.com/dmaslov/factorsieve/pkg/redis"
)

// Cached decorates a Provider with a Redis read-through cache. Failures
// are never cached; a disabled Redis client makes every lookup a miss,
// so the decorator is safe to install unconditionally.
type Cached struct {
	next   Provider
	cache  *redis.Cache
	logger *logger.Logger

	priceTTL        time.Duration
	fundamentalsTTL time.Duration
	sectorTTL       time.Duration
}

// NewCached wraps a provider with caching.
func NewCached(next Provider, client *redis.Client, log *logger.Logger) *Cached {
	return &Cached{
		next:   next,
		cache:  redis.NewCache(client, "marketdata"),
		logger: log,

		priceTTL:        6 * time.Hour,
		fundamentalsTTL: 6 * time.Hour,
		sectorTTL:       24 * time.Hour,
	}
}

// PriceHistory implements Provider.
func (c *Cached) PriceHistory(ctx context.Context, ticker string, start, end time.Time) (contracts.PriceSeries, error) {
	key := fmt.Sprintf("prices:%s:%s:%s", ticker, start.Format("2006-01-02"), end.Format("2006-01-02"))

	var series contracts.PriceSeries
	if found, _ := c.cache.Get(ctx, key, &series); found {
		return series, nil
	}

	series, err := c.next.PriceHistory(ctx, ticker, start, end)
	if err != nil {
		return contracts.PriceSeries{}, err
	}

	if err := c.cache.Set(ctx, key, series, c.priceTTL); err != nil {
		c.logger.WithError(err).Warn("Price cache write failed")
	}

	return series, nil
}

// LatestFundamentals implements Provider.
func (c *Cached) LatestFundamentals(ctx context.Context, ticker string) (contracts.Fundamentals, error) {
	key := fmt.Sprintf("fundamentals:%s", ticker)

	var f contracts.Fundamentals
	if found, _ := c.cache.Get(ctx, key, &f); found {
		return f, nil
	}

	f, err := c.next.LatestFundamentals(ctx, ticker)
	if err != nil {
		return contracts.Fundamentals{}, err
	}

	if err := c.cache.Set(ctx, key, f, c.fundamentalsTTL); err != nil {
		c.logger.WithError(err).Warn("Fundamentals cache write failed")
	}

	return f, nil
}

// SectorTickers implements Provider.
func (c *Cached) SectorTickers(ctx context.Context, sector string) ([]string, error) {
	key := fmt.Sprintf("sector:%s", sector)

	var tickers []string
	if found, _ := c.cache.Get(ctx, key, &tickers); found {
		return tickers, nil
	}

	tickers, err := c.next.SectorTickers(ctx, sector)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, tickers, c.sectorTTL); err != nil {
		c.logger.WithError(err).Warn("Sector cache write failed")
	}

	return tickers, nil
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/georef/internal/config"
	"github.com/sells-group/georef/internal/geocache"
	"github.com/sells-group/georef/internal/tabular"
	"github.com/sells-group/georef/pkg/geocode"
)

// newProvider builds the configured geocoding provider.
func newProvider(c *config.Config, hc *http.Client) (geocode.Provider, error) {
	switch strings.ToLower(c.Geocode.Provider) {
	case "google":
		return geocode.NewGoogleProvider(c.Geocode.GoogleAPIKey, hc)
	case "nominatim":
		return geocode.NewNominatimProvider(c.Geocode.NominatimURL, c.Geocode.UserAgent, hc)
	default:
		return nil, fmt.Errorf("unknown geocode provider %q", c.Geocode.Provider)
	}
}

// newGeocodeClient wires provider, cache and region filter into a client.
// The returned close func releases the cache.
func newGeocodeClient(ctx context.Context, c *config.Config) (*geocode.Client, func(), error) {
	provider, err := newProvider(c, &http.Client{})
	if err != nil {
		return nil, nil, err
	}

	region, err := geocode.ParseRegion(c.Geocode.Region)
	if err != nil {
		return nil, nil, err
	}

	opts := []geocode.Option{
		geocode.WithMaxAttempts(c.Geocode.MaxAttempts),
		geocode.WithTimeout(c.Geocode.Timeout()),
		geocode.WithMinDelay(c.Geocode.MinDelay()),
		geocode.WithBackoff(c.Geocode.Backoff()),
		geocode.WithRetryQueryErrors(c.Geocode.RetryQueryErrors),
	}
	if region != nil {
		opts = append(opts, geocode.WithRegion(region))
	}

	closeFn := func() {}
	cache, err := geocache.Open(ctx, geocache.Config{
		Driver: c.Cache.Driver,
		DSN:    c.Cache.DSN,
		TTL:    c.Cache.TTL(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open geocode cache: %w", err)
	}
	if cache != nil {
		if n, err := cache.DeleteExpired(ctx); err != nil {
			zap.L().Warn("geocache: prune failed", zap.Error(err))
		} else if n > 0 {
			zap.L().Info("geocache: pruned expired entries", zap.Int("deleted", n))
		}
		opts = append(opts, geocode.WithCache(cache))
		closeFn = func() { _ = cache.Close() }
	}

	zap.L().Info("geocode client ready",
		zap.String("provider", provider.Name()),
		zap.String("cache", c.Cache.Driver),
		zap.Bool("region_filter", region != nil),
	)
	return geocode.NewClient(provider, opts...), closeFn, nil
}

// newStore builds a tabular store using the configured column headers.
func newStore(c *config.Config) *tabular.Store {
	return tabular.NewStore(tabular.DefaultSchema().Merge(c.Columns.Headers()))
}

func logClientStats(gc *geocode.Client) {
	s := gc.Stats()
	zap.L().Info("geocode client stats",
		zap.Int("lookups", s.Lookups),
		zap.Int("requests", s.Requests),
		zap.Int("cache_hits", s.CacheHits),
		zap.Int("matched", s.Matched),
		zap.Int("unmatched", s.Unmatched),
		zap.Int("failed", s.Failed),
	)
}

// Package geocode forward-geocodes address strings through a paced, retrying
// client on top of a pluggable provider (Google or Nominatim).
package geocode

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/georef/internal/model"
	"github.com/sells-group/georef/internal/resilience"
)

// Geocoder resolves an address to coordinates. A nil result means no
// coordinates are available; it is never an error condition.
type Geocoder interface {
	Geocode(ctx context.Context, address string) *model.Coordinates
}

// Client defaults.
const (
	DefaultMaxAttempts = 3
	DefaultTimeout     = 10 * time.Second
	DefaultMinDelay    = 2 * time.Second
	DefaultBackoff     = 2 * time.Second
)

// Option configures the Client.
type Option func(*Client)

// WithMaxAttempts sets the total number of attempts per address.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithTimeout sets the per-attempt request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMinDelay sets the minimum delay between consecutive provider requests.
// Zero disables pacing.
func WithMinDelay(d time.Duration) Option {
	return func(c *Client) {
		c.limiter = newPacer(d)
	}
}

// WithBackoff sets the fixed delay slept before each retry.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.backoff = d
		}
	}
}

// WithRetryQueryErrors controls whether malformed-query errors are retried
// like service errors (the default) or fail fast.
func WithRetryQueryErrors(retry bool) Option {
	return func(c *Client) {
		c.retryQuery = retry
	}
}

// WithCache enables caching of terminal outcomes.
func WithCache(cache Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithRegion rejects matches that fall outside r.
func WithRegion(r *Region) Option {
	return func(c *Client) {
		c.region = r
	}
}

// Stats counts client activity over its lifetime.
type Stats struct {
	Lookups   int // non-empty addresses passed to Geocode
	Requests  int // provider requests issued, retries included
	CacheHits int
	Matched   int
	Unmatched int
	Failed    int // lookups that ended on an error
}

// Client wraps a Provider with pacing, per-attempt timeouts, retries and an
// optional cache. Calls are serialized by the pacer; a Client is meant to be
// driven from a single goroutine.
type Client struct {
	provider    Provider
	limiter     *rate.Limiter
	maxAttempts int
	timeout     time.Duration
	backoff     time.Duration
	retryQuery  bool
	cache       Cache
	region      *Region
	stats       Stats
}

// NewClient creates a Client for provider with the given options.
func NewClient(provider Provider, opts ...Option) *Client {
	c := &Client{
		provider:    provider,
		limiter:     newPacer(DefaultMinDelay),
		maxAttempts: DefaultMaxAttempts,
		timeout:     DefaultTimeout,
		backoff:     DefaultBackoff,
		retryQuery:  true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newPacer(minDelay time.Duration) *rate.Limiter {
	if minDelay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(minDelay), 1)
}

// Stats returns a snapshot of the client's counters.
func (c *Client) Stats() Stats {
	return c.stats
}

// Provider returns the name of the underlying provider.
func (c *Client) Provider() string {
	return c.provider.Name()
}

// Geocode implements Geocoder.
func (c *Client) Geocode(ctx context.Context, address string) *model.Coordinates {
	address = strings.TrimSpace(address)
	log := zap.L().With(
		zap.String("provider", c.provider.Name()),
		zap.String("address", address),
	)
	if address == "" {
		log.Debug("geocode: empty address, skipping")
		return nil
	}
	c.stats.Lookups++

	key := CacheKey(c.provider.Name(), address)
	if entry := c.checkCache(ctx, key, log); entry != nil {
		c.stats.CacheHits++
		if !entry.Matched {
			c.stats.Unmatched++
			return nil
		}
		c.stats.Matched++
		return &model.Coordinates{Latitude: entry.Latitude, Longitude: entry.Longitude}
	}

	var loc *Location
	err := resilience.Do(ctx, resilience.RetryConfig{
		MaxAttempts: c.maxAttempts,
		Backoff:     c.backoff,
		ShouldRetry: c.shouldRetry,
		OnRetry:     resilience.RetryLogger(c.provider.Name(), "forward"),
	}, func(ctx context.Context, attempt int) error {
		var attemptErr error
		loc, attemptErr = c.attempt(ctx, address, attempt, log)
		return attemptErr
	})
	if err != nil {
		c.stats.Failed++
		log.Warn("geocode: no coordinates after failure",
			zap.Stringer("kind", KindOf(err)),
			zap.Error(err),
		)
		return nil
	}

	if loc == nil {
		log.Info("geocode: no location found for address")
		c.stats.Unmatched++
		c.storeCache(ctx, key, CacheEntry{Matched: false, Provider: c.provider.Name()}, log)
		return nil
	}

	coords := model.Coordinates{Latitude: loc.Latitude, Longitude: loc.Longitude}
	if c.region != nil && !c.region.Contains(coords) {
		log.Warn("geocode: match outside configured region, discarding",
			zap.Float64("latitude", coords.Latitude),
			zap.Float64("longitude", coords.Longitude),
		)
		c.stats.Unmatched++
		c.storeCache(ctx, key, CacheEntry{Matched: false, Provider: c.provider.Name()}, log)
		return nil
	}

	c.stats.Matched++
	c.storeCache(ctx, key, CacheEntry{
		Matched:   true,
		Latitude:  coords.Latitude,
		Longitude: coords.Longitude,
		Provider:  c.provider.Name(),
	}, log)
	return &coords
}

// attempt issues one paced provider request bounded by the client timeout.
func (c *Client) attempt(ctx context.Context, address string, attempt int, log *zap.Logger) (*Location, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, newError(KindOther, c.provider.Name(), 0, eris.Wrap(err, "pacing wait"))
	}
	c.stats.Requests++

	log.Info("geocode: querying address", zap.Int("attempt", attempt))

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	loc, err := c.provider.Forward(attemptCtx, address)
	if err != nil {
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil && KindOf(err) != KindTimeout {
			err = newError(KindTimeout, c.provider.Name(), 0, err)
		}
		logAttemptFailure(log, attempt, err)
		return nil, err
	}

	if loc != nil {
		log.Info("geocode: provider result",
			zap.Int("attempt", attempt),
			zap.ByteString("raw", loc.Raw),
		)
	}
	return loc, nil
}

func (c *Client) shouldRetry(err error) bool {
	switch KindOf(err) {
	case KindTimeout, KindService:
		return true
	case KindQuery:
		return c.retryQuery
	default:
		return false
	}
}

func logAttemptFailure(log *zap.Logger, attempt int, err error) {
	fields := []zap.Field{zap.Int("attempt", attempt), zap.Error(err)}
	switch KindOf(err) {
	case KindTimeout:
		log.Warn("geocode: timeout", fields...)
	case KindService:
		log.Warn("geocode: service error", fields...)
	case KindQuery:
		log.Warn("geocode: query error", fields...)
	default:
		log.Warn("geocode: unclassified error", fields...)
	}
}

func (c *Client) checkCache(ctx context.Context, key string, log *zap.Logger) *CacheEntry {
	if c.cache == nil {
		return nil
	}
	entry, err := c.cache.Get(ctx, key)
	if err != nil {
		log.Warn("geocode: cache lookup failed", zap.Error(err))
		return nil
	}
	if entry != nil {
		log.Debug("geocode cache hit", zap.String("key", key[:12]), zap.Bool("matched", entry.Matched))
	}
	return entry
}

func (c *Client) storeCache(ctx context.Context, key string, entry CacheEntry, log *zap.Logger) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Put(ctx, key, entry); err != nil {
		log.Warn("geocode: cache store failed", zap.Error(err))
	}
}

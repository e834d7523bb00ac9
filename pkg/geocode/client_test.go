package geocode

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Match(t *testing.T) {
	p := &stubProvider{fn: func(_ context.Context, _ string) (*Location, error) {
		return &Location{Latitude: 40.4168, Longitude: -3.7038, Raw: []byte(`{"lat":"40.4168"}`)}, nil
	}}
	c := fastClient(p)

	coords := c.Geocode(context.Background(), "  Puerta del Sol 1, Madrid, Madrid ")
	require.NotNil(t, coords)
	assert.InDelta(t, 40.4168, coords.Latitude, 0.0001)
	assert.InDelta(t, -3.7038, coords.Longitude, 0.0001)
	assert.Equal(t, []string{"Puerta del Sol 1, Madrid, Madrid"}, p.queries)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Requests)
	assert.Equal(t, 1, stats.Matched)
}

func TestClient_EmptyAddressSkipsProvider(t *testing.T) {
	p := &stubProvider{fn: func(_ context.Context, _ string) (*Location, error) {
		t.Fatal("provider must not be called for an empty address")
		return nil, nil
	}}
	c := fastClient(p)

	assert.Nil(t, c.Geocode(context.Background(), ""))
	assert.Nil(t, c.Geocode(context.Background(), "   \t"))
	assert.Empty(t, p.queries)
	assert.Equal(t, 0, c.Stats().Lookups)
}

func TestClient_NoMatchIsTerminal(t *testing.T) {
	p := &stubProvider{fn: func(_ context.Context, _ string) (*Location, error) {
		return nil, nil
	}}
	c := fastClient(p)

	assert.Nil(t, c.Geocode(context.Background(), "Nowhere 0, Faketown, XX"))
	assert.Len(t, p.queries, 1, "a no-match answer must not be retried")
	assert.Equal(t, 1, c.Stats().Unmatched)
}

func TestClient_TimeoutRetriedThenAbsent(t *testing.T) {
	p := &stubProvider{fn: func(_ context.Context, _ string) (*Location, error) {
		return nil, newError(KindTimeout, "stub", 0, errors.New("timed out"))
	}}
	c := fastClient(p, WithMaxAttempts(3))

	start := time.Now()
	coords := c.Geocode(context.Background(), "Main St, Town, State")
	elapsed := time.Since(start)

	assert.Nil(t, coords)
	assert.Len(t, p.queries, 3)
	assert.GreaterOrEqual(t, elapsed, 4*time.Millisecond, "two backoff sleeps expected between three attempts")
	assert.Equal(t, 1, c.Stats().Failed)
}

func TestClient_SlowProviderHitsAttemptTimeout(t *testing.T) {
	p := &stubProvider{fn: func(ctx context.Context, _ string) (*Location, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	c := fastClient(p, WithTimeout(5*time.Millisecond), WithMaxAttempts(2))

	assert.Nil(t, c.Geocode(context.Background(), "Slow St, Town, State"))
	assert.Len(t, p.queries, 2, "deadline expiry is a timeout and must be retried")
}

func TestClient_ServiceAndQueryErrorsRetried(t *testing.T) {
	for _, kind := range []Kind{KindService, KindQuery} {
		t.Run(kind.String(), func(t *testing.T) {
			p := &stubProvider{}
			p.fn = func(_ context.Context, _ string) (*Location, error) {
				if len(p.queries) < 3 {
					return nil, newError(kind, "stub", 500, errors.New("boom"))
				}
				return &Location{Latitude: 1, Longitude: 2}, nil
			}
			c := fastClient(p, WithMaxAttempts(3))

			coords := c.Geocode(context.Background(), "A St, X, Y")
			require.NotNil(t, coords)
			assert.Len(t, p.queries, 3)
		})
	}
}

func TestClient_QueryErrorsFailFastWhenDisabled(t *testing.T) {
	p := &stubProvider{fn: func(_ context.Context, _ string) (*Location, error) {
		return nil, newError(KindQuery, "stub", 400, errors.New("invalid request"))
	}}
	c := fastClient(p, WithRetryQueryErrors(false))

	assert.Nil(t, c.Geocode(context.Background(), "A St, X, Y"))
	assert.Len(t, p.queries, 1)
}

func TestClient_UnclassifiedErrorNotRetried(t *testing.T) {
	p := &stubProvider{fn: func(_ context.Context, _ string) (*Location, error) {
		return nil, errors.New("unexpected")
	}}
	c := fastClient(p)

	assert.Nil(t, c.Geocode(context.Background(), "A St, X, Y"))
	assert.Len(t, p.queries, 1)
}

func TestClient_PacingEnforcesMinDelay(t *testing.T) {
	p := &stubProvider{fn: func(_ context.Context, _ string) (*Location, error) {
		return nil, nil
	}}
	c := NewClient(p, WithMinDelay(20*time.Millisecond))

	start := time.Now()
	c.Geocode(context.Background(), "First St, X, Y")
	c.Geocode(context.Background(), "Second St, X, Y")
	c.Geocode(context.Background(), "Third St, X, Y")

	// First request passes immediately; the next two each wait a full interval.
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
	assert.Len(t, p.queries, 3)
}

func TestClient_CacheHitSkipsProvider(t *testing.T) {
	p := &stubProvider{fn: func(_ context.Context, _ string) (*Location, error) {
		return &Location{Latitude: 10, Longitude: 20}, nil
	}}
	cache := newMemoryCache()
	c := fastClient(p, WithCache(cache))

	first := c.Geocode(context.Background(), "Main St, Town, State")
	second := c.Geocode(context.Background(), "MAIN   st, town, state")

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, *first, *second)
	assert.Len(t, p.queries, 1)
	assert.Equal(t, 1, c.Stats().CacheHits)
}

func TestClient_CachesNoMatchButNotFailures(t *testing.T) {
	cache := newMemoryCache()

	miss := &stubProvider{fn: func(_ context.Context, _ string) (*Location, error) { return nil, nil }}
	c := fastClient(miss, WithCache(cache))
	assert.Nil(t, c.Geocode(context.Background(), "Nowhere, X, Y"))
	assert.Nil(t, c.Geocode(context.Background(), "Nowhere, X, Y"))
	assert.Len(t, miss.queries, 1, "cached non-match must not be re-queried")

	failing := &stubProvider{fn: func(_ context.Context, _ string) (*Location, error) {
		return nil, errors.New("unexpected")
	}}
	c = fastClient(failing, WithCache(cache))
	assert.Nil(t, c.Geocode(context.Background(), "Broken, X, Y"))
	assert.Nil(t, c.Geocode(context.Background(), "Broken, X, Y"))
	assert.Len(t, failing.queries, 2, "failures must never be cached")
}

func TestClient_RegionRejectsOutsideMatch(t *testing.T) {
	region, err := NewRegion(27.5, -18.5, 44.0, 4.5) // Spain incl. Canaries
	require.NoError(t, err)

	p := &stubProvider{fn: func(_ context.Context, q string) (*Location, error) {
		if q == "Valencia, Carabobo" {
			return &Location{Latitude: 10.16, Longitude: -68.0}, nil
		}
		return &Location{Latitude: 39.47, Longitude: -0.38}, nil
	}}
	c := fastClient(p, WithRegion(region))

	assert.Nil(t, c.Geocode(context.Background(), "Valencia, Carabobo"))
	assert.NotNil(t, c.Geocode(context.Background(), "Valencia, Valencia"))
}

func TestClient_CancelledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &stubProvider{fn: func(_ context.Context, _ string) (*Location, error) {
		return &Location{Latitude: 1, Longitude: 1}, nil
	}}
	c := NewClient(p, WithMinDelay(time.Hour))

	assert.Nil(t, c.Geocode(ctx, "A St, X, Y"))
	assert.Empty(t, p.queries)
}

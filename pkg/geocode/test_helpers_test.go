package geocode

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// newRewriteClient creates an HTTP client that rewrites requests to a test server URL.
// All requests matching the target prefix are redirected to the test server.
func newRewriteClient(testServerURL, targetPrefix string) *http.Client {
	return &http.Client{
		Transport: &rewriteTransport{
			base:         http.DefaultTransport,
			testServer:   testServerURL,
			targetPrefix: targetPrefix,
		},
	}
}

type rewriteTransport struct {
	base         http.RoundTripper
	testServer   string
	targetPrefix string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	origURL := req.URL.String()
	if strings.HasPrefix(origURL, t.targetPrefix) {
		suffix := origURL[len(t.targetPrefix):]
		newURL := t.testServer + suffix
		newReq := req.Clone(req.Context())
		parsed, err := req.URL.Parse(newURL)
		if err != nil {
			return nil, err
		}
		newReq.URL = parsed
		newReq.Host = parsed.Host
		return t.base.RoundTrip(newReq)
	}
	return t.base.RoundTrip(req)
}

// stubProvider answers Forward with fn and records every query.
type stubProvider struct {
	fn      func(ctx context.Context, query string) (*Location, error)
	queries []string
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Forward(ctx context.Context, query string) (*Location, error) {
	s.queries = append(s.queries, query)
	return s.fn(ctx, query)
}

// fastClient builds a Client with no pacing and millisecond retry backoff.
func fastClient(p Provider, opts ...Option) *Client {
	base := []Option{
		WithMinDelay(0),
		WithBackoff(2 * time.Millisecond),
		WithTimeout(time.Second),
	}
	return NewClient(p, append(base, opts...)...)
}

// memoryCache is an in-process Cache for tests.
type memoryCache struct {
	entries map[string]CacheEntry
	puts    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]CacheEntry)}
}

func (m *memoryCache) Get(_ context.Context, key string) (*CacheEntry, error) {
	e, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *memoryCache) Put(_ context.Context, key string, entry CacheEntry) error {
	m.puts++
	m.entries[key] = entry
	return nil
}

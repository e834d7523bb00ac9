package geocode

import (
	"context"
	"crypto/sha256"
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/georef/internal/model"
)

// CacheEntry is a cached terminal geocode outcome. Non-matches are cached
// too so a known-unresolvable address is not re-queried.
type CacheEntry struct {
	Matched   bool
	Latitude  float64
	Longitude float64
	Provider  string
}

// Cache stores geocode outcomes keyed by CacheKey. Get returns (nil, nil)
// on a miss.
type Cache interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Put(ctx context.Context, key string, entry CacheEntry) error
}

// CacheKey returns SHA-256 hex of the provider-scoped normalized address.
// Normalization is NFC, Unicode case folding and whitespace collapsing.
func CacheKey(provider, address string) string {
	normalized := cases.Fold().String(norm.NFC.String(model.CollapseSpaces(address)))
	h := sha256.Sum256([]byte(provider + "|" + normalized))
	return fmt.Sprintf("%x", h)
}

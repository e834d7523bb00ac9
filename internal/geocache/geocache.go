// Package geocache persists terminal geocode outcomes across runs in SQLite
// or Postgres.
package geocache

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/georef/pkg/geocode"
)

// Driver names accepted by Open.
const (
	DriverNone     = "none"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects and configures a cache backend.
type Config struct {
	Driver string
	DSN    string
	TTL    time.Duration // zero keeps entries forever
}

// Store is a geocode.Cache backed by a database.
type Store interface {
	geocode.Cache
	Migrate(ctx context.Context) error
	DeleteExpired(ctx context.Context) (int, error)
	Close() error
}

// Open connects to the configured backend and applies its migration. It
// returns (nil, nil) when caching is disabled.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverNone:
		return nil, nil
	case DriverSQLite:
		s, err = NewSQLite(cfg.DSN, cfg.TTL)
	case DriverPostgres:
		s, err = NewPostgres(ctx, cfg.DSN, cfg.TTL)
	default:
		return nil, eris.Errorf("geocache: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func expiry(now time.Time, ttl time.Duration) *time.Time {
	if ttl <= 0 {
		return nil
	}
	t := now.Add(ttl)
	return &t
}

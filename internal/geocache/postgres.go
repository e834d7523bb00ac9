package geocache

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/georef/pkg/geocode"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore caches geocode outcomes in a shared Postgres table.
type PostgresStore struct {
	pool Pool
	ttl  time.Duration
	now  func() time.Time
}

// NewPostgres creates a PostgresStore with a small connection pool.
func NewPostgres(ctx context.Context, connString string, ttl time.Duration) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	// The run is sequential; one connection is used at a time.
	pgxCfg.MaxConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return newPostgresStore(pool, ttl), nil
}

func newPostgresStore(pool Pool, ttl time.Duration) *PostgresStore {
	return &PostgresStore{pool: pool, ttl: ttl, now: time.Now}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	address_hash TEXT PRIMARY KEY,
	matched      BOOLEAN NOT NULL,
	latitude     DOUBLE PRECISION NOT NULL DEFAULT 0,
	longitude    DOUBLE PRECISION NOT NULL DEFAULT 0,
	provider     TEXT NOT NULL,
	cached_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at   TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_geocode_cache_expires_at ON geocode_cache(expires_at);
`

// Migrate creates the cache table.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Get returns the unexpired entry for key, or (nil, nil).
func (s *PostgresStore) Get(ctx context.Context, key string) (*geocode.CacheEntry, error) {
	var e geocode.CacheEntry
	err := s.pool.QueryRow(ctx,
		`SELECT matched, latitude, longitude, provider FROM geocode_cache
		 WHERE address_hash = $1 AND (expires_at IS NULL OR expires_at > $2)`,
		key, s.now().UTC(),
	).Scan(&e.Matched, &e.Latitude, &e.Longitude, &e.Provider)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get cached geocode")
	}
	return &e, nil
}

// Put upserts the entry for key.
func (s *PostgresStore) Put(ctx context.Context, key string, entry geocode.CacheEntry) error {
	now := s.now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO geocode_cache (address_hash, matched, latitude, longitude, provider, cached_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (address_hash) DO UPDATE SET
			matched = EXCLUDED.matched,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			provider = EXCLUDED.provider,
			cached_at = EXCLUDED.cached_at,
			expires_at = EXCLUDED.expires_at`,
		key, entry.Matched, entry.Latitude, entry.Longitude, entry.Provider, now, expiry(now, s.ttl),
	)
	return eris.Wrap(err, "postgres: set cached geocode")
}

// DeleteExpired removes expired entries and returns how many were deleted.
func (s *PostgresStore) DeleteExpired(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM geocode_cache WHERE expires_at IS NOT NULL AND expires_at <= $1`,
		s.now().UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired geocodes")
	}
	return int(tag.RowsAffected()), nil
}

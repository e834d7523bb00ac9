package geocache

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/georef/pkg/geocode"
)

// SQLiteStore caches geocode outcomes in a local SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string, ttl time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, ttl: ttl, now: time.Now}, nil
}

// Expiry is stored as unix seconds; 0 means the entry never expires.
const sqliteMigration = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	address_hash TEXT PRIMARY KEY,
	matched      INTEGER NOT NULL,
	latitude     REAL NOT NULL DEFAULT 0,
	longitude    REAL NOT NULL DEFAULT 0,
	provider     TEXT NOT NULL,
	cached_at    INTEGER NOT NULL,
	expires_at   INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_geocode_cache_expires_at ON geocode_cache(expires_at);
`

// Migrate creates the cache table.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get returns the unexpired entry for key, or (nil, nil).
func (s *SQLiteStore) Get(ctx context.Context, key string) (*geocode.CacheEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT matched, latitude, longitude, provider FROM geocode_cache
		 WHERE address_hash = ? AND (expires_at = 0 OR expires_at > ?)`,
		key, s.now().Unix(),
	)

	var e geocode.CacheEntry
	var matched int
	err := row.Scan(&matched, &e.Latitude, &e.Longitude, &e.Provider)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cached geocode")
	}
	e.Matched = matched != 0
	return &e, nil
}

// Put inserts or replaces the entry for key.
func (s *SQLiteStore) Put(ctx context.Context, key string, entry geocode.CacheEntry) error {
	now := s.now().UTC()
	var expiresAt int64
	if t := expiry(now, s.ttl); t != nil {
		expiresAt = t.Unix()
	}
	matched := 0
	if entry.Matched {
		matched = 1
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO geocode_cache (address_hash, matched, latitude, longitude, provider, cached_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(address_hash) DO UPDATE SET
			matched = excluded.matched,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			provider = excluded.provider,
			cached_at = excluded.cached_at,
			expires_at = excluded.expires_at`,
		key, matched, entry.Latitude, entry.Longitude, entry.Provider, now.Unix(), expiresAt,
	)
	return eris.Wrap(err, "sqlite: set cached geocode")
}

// DeleteExpired removes expired entries and returns how many were deleted.
func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM geocode_cache WHERE expires_at != 0 AND expires_at <= ?`,
		s.now().Unix(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired geocodes")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

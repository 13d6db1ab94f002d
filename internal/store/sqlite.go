package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"

	"github.com/i474232898/climate-window/internal/log"
	"github.com/i474232898/climate-window/internal/weather"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS series (
	location_key TEXT PRIMARY KEY,
	lat REAL NOT NULL,
	lon REAL NOT NULL,
	records INTEGER NOT NULL,
	fetched_at INTEGER NOT NULL,
	payload BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_series_fetched_at ON series(fetched_at);`

// SQLiteStore persists series across restarts, msgpack-encoded, one row per
// location (pure Go driver modernc.org/sqlite).
type SQLiteStore struct {
	db         *sql.DB
	maxEntries int
	maxAge     time.Duration
	now        func() time.Time
}

// NewSQLite opens (or creates) the database at path and applies the schema.
// maxEntries and maxAge behave as for NewMemoryStore.
func NewSQLite(path string, maxEntries int, maxAge time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening series database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		log.Warnw("could not set WAL mode", "path", path, "err", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating series table: %w", err)
	}

	return &SQLiteStore{db: db, maxEntries: maxEntries, maxAge: maxAge, now: time.Now}, nil
}

// SaveSeries replaces the row for a location and enforces retention.
func (s *SQLiteStore) SaveSeries(loc weather.Location, series weather.DailySeries, fetchedAt time.Time) error {
	payload, err := msgpack.Marshal(&series)
	if err != nil {
		return fmt.Errorf("encoding series: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT OR REPLACE INTO series(location_key, lat, lon, records, fetched_at, payload) VALUES(?,?,?,?,?,?)`,
		loc.Key(), loc.Lat, loc.Lon, series.Len(), fetchedAt.UTC().UnixNano(), payload)
	if err != nil {
		return fmt.Errorf("saving series: %w", err)
	}

	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge).UTC().UnixNano()
		if _, err := tx.Exec(`DELETE FROM series WHERE fetched_at < ?`, cutoff); err != nil {
			return fmt.Errorf("pruning old series: %w", err)
		}
	}
	if s.maxEntries > 0 {
		_, err := tx.Exec(`DELETE FROM series WHERE location_key NOT IN (
			SELECT location_key FROM series ORDER BY fetched_at DESC LIMIT ?)`, s.maxEntries)
		if err != nil {
			return fmt.Errorf("pruning series: %w", err)
		}
	}

	return tx.Commit()
}

// GetSeries returns the series held for a location if it is not too old.
func (s *SQLiteStore) GetSeries(loc weather.Location) (weather.StoredSeries, error) {
	var (
		fetchedAt int64
		payload   []byte
	)
	err := s.db.QueryRow(`SELECT fetched_at, payload FROM series WHERE location_key = ?`, loc.Key()).
		Scan(&fetchedAt, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return weather.StoredSeries{}, ErrNotFound
	}
	if err != nil {
		return weather.StoredSeries{}, err
	}

	stored := weather.StoredSeries{FetchedAt: time.Unix(0, fetchedAt).UTC()}
	if s.maxAge > 0 && stored.FetchedAt.Before(s.now().Add(-s.maxAge)) {
		return weather.StoredSeries{}, ErrNotFound
	}
	if err := msgpack.Unmarshal(payload, &stored.Series); err != nil {
		return weather.StoredSeries{}, fmt.Errorf("decoding series: %w", err)
	}
	return stored, nil
}

// Len returns the number of locations held.
func (s *SQLiteStore) Len() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM series`).Scan(&n)
	return n, err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

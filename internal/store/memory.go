package store

import (
	"sync"
	"time"

	"github.com/i474232898/climate-window/internal/weather"
)

// ErrNotFound is returned when no data is available for a given location.
var ErrNotFound = weather.ErrNotFound

// MemoryStore is a concurrency-safe in-memory implementation of a series store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: location key
	data map[string]weather.StoredSeries

	// retention configuration
	maxEntries int           // max number of locations held
	maxAge     time.Duration // optional max age for a stored series

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxEntries or maxAge is <= 0, it is treated as unlimited.
func NewMemoryStore(maxEntries int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]weather.StoredSeries),
		maxEntries: maxEntries,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveSeries replaces the series held for a location and enforces retention.
func (s *MemoryStore) SaveSeries(loc weather.Location, series weather.DailySeries, fetchedAt time.Time) error {
	key := loc.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = weather.StoredSeries{Series: series, FetchedAt: fetchedAt}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		for k, v := range s.data {
			if v.FetchedAt.Before(cutoff) {
				delete(s.data, k)
			}
		}
	}

	// Enforce retention by count, dropping the oldest fetches first.
	for s.maxEntries > 0 && len(s.data) > s.maxEntries {
		var oldestKey string
		var oldest time.Time
		for k, v := range s.data {
			if oldestKey == "" || v.FetchedAt.Before(oldest) {
				oldestKey, oldest = k, v.FetchedAt
			}
		}
		delete(s.data, oldestKey)
	}
	return nil
}

// GetSeries returns the series held for a location if it is not too old.
func (s *MemoryStore) GetSeries(loc weather.Location) (weather.StoredSeries, error) {
	key := loc.Key()

	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.data[key]
	if !ok {
		return weather.StoredSeries{}, ErrNotFound
	}
	if s.maxAge > 0 && stored.FetchedAt.Before(s.now().Add(-s.maxAge)) {
		return weather.StoredSeries{}, ErrNotFound
	}
	return stored, nil
}

// Len returns the number of locations held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

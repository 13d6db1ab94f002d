package store

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func newTestSQLite(t *testing.T, maxEntries int, maxAge time.Duration) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "series.db"), maxEntries, maxAge)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteSaveAndGet(t *testing.T) {
	s := newTestSQLite(t, 0, 0)

	if _, err := s.GetSeries(locA); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetSeries() on empty store error = %v, want ErrNotFound", err)
	}

	want := sampleSeries(locA)
	fetched := time.Now().UTC().Truncate(time.Second)
	if err := s.SaveSeries(locA, want, fetched); err != nil {
		t.Fatalf("SaveSeries failed: %v", err)
	}

	got, err := s.GetSeries(locA)
	if err != nil {
		t.Fatalf("GetSeries failed: %v", err)
	}
	if !got.FetchedAt.Equal(fetched) {
		t.Errorf("FetchedAt = %v, want %v", got.FetchedAt, fetched)
	}
	if !reflect.DeepEqual(got.Series, want) {
		t.Errorf("Series = %+v, want %+v", got.Series, want)
	}

	// Saving again replaces the row.
	if err := s.SaveSeries(locA, want, fetched.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	if n, err := s.Len(); err != nil || n != 1 {
		t.Errorf("Len() = %d, %v; want 1", n, err)
	}
}

func TestSQLiteRetention(t *testing.T) {
	s := newTestSQLite(t, 2, time.Hour)
	now := time.Date(2024, 8, 2, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if err := s.SaveSeries(locA, sampleSeries(locA), now.Add(-2*time.Hour)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetSeries(locA); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired series error = %v, want ErrNotFound", err)
	}

	s.SaveSeries(locB, sampleSeries(locB), now.Add(-2*time.Minute))
	s.SaveSeries(locC, sampleSeries(locC), now.Add(-time.Minute))
	s.SaveSeries(locA, sampleSeries(locA), now)

	if n, _ := s.Len(); n != 2 {
		t.Fatalf("Len() = %d, want 2", n)
	}
	if _, err := s.GetSeries(locB); !errors.Is(err, ErrNotFound) {
		t.Errorf("oldest location should be evicted, got %v", err)
	}
	if _, err := s.GetSeries(locA); err != nil {
		t.Errorf("newest location missing: %v", err)
	}
}

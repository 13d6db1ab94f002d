package weather

import (
	"context"
	"time"
)

// Fetcher abstracts the single-pixel extraction source (Daymet).
// Implementations make exactly one outbound request per call and never
// retry or cache.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, loc Location, opts ...QueryOptions) (DailySeries, error)
}

// StoredSeries is a series together with the time it was fetched.
type StoredSeries struct {
	Series    DailySeries
	FetchedAt time.Time
}

// Store is the contract the memory and SQLite series stores satisfy.
type Store interface {
	SaveSeries(loc Location, series DailySeries, fetchedAt time.Time) error
	GetSeries(loc Location) (StoredSeries, error)
	Close() error
}

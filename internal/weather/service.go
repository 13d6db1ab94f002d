package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/climate-window/internal/log"
)

// ErrNotFound is returned by stores when no usable series is held for a
// location.
var ErrNotFound = errors.New("no series stored for location")

// Service is the caller-side layer over a Fetcher: it owns retry, circuit
// breaking and the optional series store that the fetcher itself never does.
type Service struct {
	fetcher Fetcher
	store   Store
	backoff BackoffConfig
	circuit *gobreaker.CircuitBreaker
	now     func() time.Time
}

// NewService creates a new Service. store may be nil, in which case every
// call goes to the fetcher.
func NewService(fetcher Fetcher, store Store, backoff BackoffConfig) *Service {
	return &Service{
		fetcher: fetcher,
		store:   store,
		backoff: backoff,
		circuit: NewCircuitBreaker(fetcher.Name()),
		now:     time.Now,
	}
}

// Series returns the full daily series for loc, from the store when it
// holds a fresh copy. Requests with QueryOptions always bypass the store
// since they describe a narrower series.
func (s *Service) Series(ctx context.Context, loc Location, opts ...QueryOptions) (DailySeries, error) {
	if err := loc.Validate(); err != nil {
		return DailySeries{}, err
	}

	narrowed := len(opts) > 0 && !opts[0].IsZero()
	if s.store != nil && !narrowed {
		stored, err := s.store.GetSeries(loc)
		if err == nil {
			log.Debugw("serving stored series", "location", loc.Key(), "fetchedAt", stored.FetchedAt)
			stored.Series.Location = loc
			return stored.Series, nil
		}
		if !errors.Is(err, ErrNotFound) {
			log.Warnw("series store lookup failed", "location", loc.Key(), "err", err)
		}
	}

	if narrowed {
		return s.fetch(ctx, loc, opts...)
	}
	return s.Refresh(ctx, loc)
}

// Refresh fetches the full series for loc, bypassing the store, and saves
// the result.
func (s *Service) Refresh(ctx context.Context, loc Location) (DailySeries, error) {
	series, err := s.fetch(ctx, loc)
	if err != nil {
		return DailySeries{}, err
	}
	if s.store != nil {
		if err := s.store.SaveSeries(loc, series, s.now().UTC()); err != nil {
			// The caller still gets the data; only the store is stale.
			log.Warnw("failed to store series", "location", loc.Key(), "err", err)
		}
	}
	return series, nil
}

// Window returns the records of loc's series that fall inside window.
func (s *Service) Window(ctx context.Context, loc Location, window DayWindow, opts ...QueryOptions) (DailySeries, error) {
	if err := window.Validate(); err != nil {
		return DailySeries{}, err
	}
	series, err := s.Series(ctx, loc, opts...)
	if err != nil {
		return DailySeries{}, err
	}
	return Extract(series, window)
}

func (s *Service) fetch(ctx context.Context, loc Location, opts ...QueryOptions) (DailySeries, error) {
	started := s.now()
	series, err := fetchWithResilience(ctx, s.backoff, s.circuit, func(ctx context.Context) (DailySeries, error) {
		return s.fetcher.Fetch(ctx, loc, opts...)
	})
	if err != nil {
		log.Errorw("fetch failed", "provider", s.fetcher.Name(), "location", loc.Key(), "err", err)
		return DailySeries{}, fmt.Errorf("%s: %w", s.fetcher.Name(), err)
	}
	log.Infow("fetched series", "provider", s.fetcher.Name(), "location", loc.Key(),
		"records", series.Len(), "elapsed", s.now().Sub(started))
	return series, nil
}

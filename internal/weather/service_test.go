package weather

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// scriptedFetcher returns the queued errors first, then the series.
type scriptedFetcher struct {
	mu     sync.Mutex
	calls  int
	errs   []error
	series DailySeries
}

func (f *scriptedFetcher) Name() string { return "scripted" }

func (f *scriptedFetcher) Fetch(ctx context.Context, loc Location, opts ...QueryOptions) (DailySeries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return DailySeries{}, err
	}
	s := f.series
	s.Location = loc
	return s, nil
}

// mapStore is a minimal Store for service tests.
type mapStore struct {
	data map[string]StoredSeries
}

func newMapStore() *mapStore { return &mapStore{data: make(map[string]StoredSeries)} }

func (m *mapStore) SaveSeries(loc Location, series DailySeries, fetchedAt time.Time) error {
	m.data[loc.Key()] = StoredSeries{Series: series, FetchedAt: fetchedAt}
	return nil
}

func (m *mapStore) GetSeries(loc Location) (StoredSeries, error) {
	s, ok := m.data[loc.Key()]
	if !ok {
		return StoredSeries{}, ErrNotFound
	}
	return s, nil
}

func (m *mapStore) Close() error { return nil }

var fastBackoff = BackoffConfig{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}

var farragut = Location{Lat: 35.884, Lon: -84.162}

func TestServiceRetriesServerErrors(t *testing.T) {
	f := &scriptedFetcher{
		errs:   []error{&RetrievalError{StatusCode: 503}, errors.New("connection reset")},
		series: fullYear(2018),
	}
	svc := NewService(f, nil, fastBackoff)

	got, err := svc.Series(context.Background(), farragut)
	if err != nil {
		t.Fatalf("Series() error = %v", err)
	}
	if got.Len() != DaysPerYear {
		t.Errorf("Series() returned %d records", got.Len())
	}
	if f.calls != 3 {
		t.Errorf("fetcher called %d times, want 3", f.calls)
	}
}

func TestServiceDoesNotRetryClientErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"not found", &RetrievalError{StatusCode: 404}, ErrRetrievalFailed},
		{"malformed", NewMalformedResponseError(9, "year is not an integer", nil), ErrMalformedResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &scriptedFetcher{errs: []error{tt.err}, series: fullYear(2018)}
			svc := NewService(f, nil, fastBackoff)

			_, err := svc.Series(context.Background(), farragut)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Series() error = %v, want %v", err, tt.want)
			}
			if f.calls != 1 {
				t.Errorf("fetcher called %d times, want 1", f.calls)
			}
		})
	}
}

func TestServiceRetrievalErrorCarriesStatus(t *testing.T) {
	f := &scriptedFetcher{errs: []error{
		&RetrievalError{StatusCode: 500}, &RetrievalError{StatusCode: 500}, &RetrievalError{StatusCode: 500},
	}}
	svc := NewService(f, nil, fastBackoff)

	_, err := svc.Series(context.Background(), farragut)
	var re *RetrievalError
	if !errors.As(err, &re) || re.StatusCode != 500 {
		t.Fatalf("Series() error = %v, want RetrievalError(500)", err)
	}
	if f.calls != 3 {
		t.Errorf("fetcher called %d times, want 3", f.calls)
	}
}

func TestServiceInvalidLocationSkipsFetch(t *testing.T) {
	f := &scriptedFetcher{series: fullYear(2018)}
	svc := NewService(f, newMapStore(), fastBackoff)

	_, err := svc.Window(context.Background(), Location{Lat: 91}, DayWindow{CenterDay: 10, HalfWidth: 1})
	if !errors.Is(err, ErrInvalidLocation) {
		t.Fatalf("Window() error = %v, want ErrInvalidLocation", err)
	}
	if f.calls != 0 {
		t.Errorf("fetcher called %d times, want 0", f.calls)
	}
}

func TestServiceUsesStore(t *testing.T) {
	f := &scriptedFetcher{series: fullYear(2018, 2019)}
	st := newMapStore()
	svc := NewService(f, st, fastBackoff)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := svc.Window(ctx, farragut, DayWindow{CenterDay: 214, HalfWidth: 3})
		if err != nil {
			t.Fatalf("Window() error = %v", err)
		}
		if got.Len() != 14 {
			t.Errorf("Window() returned %d records, want 14", got.Len())
		}
	}
	if f.calls != 1 {
		t.Errorf("fetcher called %d times, want 1", f.calls)
	}

	// Narrowed queries go straight to the fetcher.
	if _, err := svc.Series(ctx, farragut, QueryOptions{Years: "2019"}); err != nil {
		t.Fatal(err)
	}
	if f.calls != 2 {
		t.Errorf("fetcher called %d times, want 2", f.calls)
	}

	if _, err := svc.Refresh(ctx, farragut); err != nil {
		t.Fatal(err)
	}
	if f.calls != 3 {
		t.Errorf("fetcher called %d times after Refresh, want 3", f.calls)
	}
}

func TestServiceCircuitOpens(t *testing.T) {
	var errs []error
	for i := 0; i < 10; i++ {
		errs = append(errs, &RetrievalError{StatusCode: 502})
	}
	f := &scriptedFetcher{errs: errs}
	svc := NewService(f, nil, BackoffConfig{})
	ctx := context.Background()

	// gobreaker trips after more than five consecutive failures.
	for i := 0; i < 6; i++ {
		if _, err := svc.Series(ctx, farragut); !errors.Is(err, ErrRetrievalFailed) {
			t.Fatalf("call %d error = %v, want ErrRetrievalFailed", i, err)
		}
	}

	_, err := svc.Series(ctx, farragut)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Series() error = %v, want ErrCircuitOpen", err)
	}
	if f.calls != 6 {
		t.Errorf("fetcher called %d times, want 6", f.calls)
	}
}

func TestServiceIsNotAFetcher(t *testing.T) {
	var svc any = NewService(&scriptedFetcher{}, nil, BackoffConfig{})
	if _, ok := svc.(Fetcher); ok {
		t.Error("*Service must not satisfy Fetcher")
	}
}

package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/climate-window/internal/log"
	"github.com/i474232898/climate-window/internal/weather"
)

// Refresher is the part of weather.Service the scheduler needs.
type Refresher interface {
	Refresh(ctx context.Context, loc weather.Location) (weather.DailySeries, error)
}

// Scheduler periodically refetches the series for configured locations so
// the store stays warm.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	refresher  Refresher
	locations  []weather.Location
	interval   time.Duration
	jobTimeout time.Duration
}

// New creates a new Scheduler.
func New(locations []weather.Location, interval time.Duration, refresher Refresher) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler:  s,
		refresher:  refresher,
		locations:  locations,
		interval:   interval,
		jobTimeout: 2 * time.Minute,
	}
}

// Start schedules the periodic job and starts the underlying scheduler. The
// first run happens immediately.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 || s.interval <= 0 {
		log.Infow("scheduler: nothing to schedule", "locations", len(s.locations), "interval", s.interval)
		return nil
	}

	_, err := s.scheduler.Every(s.interval).SingletonMode().Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce refreshes every location concurrently and waits for them all.
func (s *Scheduler) RunOnce() {
	log.Infow("scheduler: running refresh job", "locations", len(s.locations))

	var wg sync.WaitGroup
	for _, loc := range s.locations {
		wg.Add(1)
		go func(loc weather.Location) {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
			defer cancel()

			if _, err := s.refresher.Refresh(ctx, loc); err != nil {
				log.Warnw("scheduler: refresh failed", "location", loc.Key(), "err", err)
			}
		}(loc)
	}
	wg.Wait()
	log.Infow("scheduler: completed refresh job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

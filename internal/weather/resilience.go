package weather

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/climate-window/internal/log"
)

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

var (
	// ErrCircuitOpen is returned while the breaker rejects calls.
	ErrCircuitOpen = errors.New("circuit breaker open")

	errInvalidConfig = errors.New("invalid backoff configuration")
)

// NewCircuitBreaker returns the breaker used around a fetcher.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnw("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// retryable reports whether err is worth another attempt: transport
// failures and 429/5xx responses are, bad input and bad bodies are not.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var re *RetrievalError
	if errors.As(err, &re) {
		return re.Retryable()
	}
	if errors.Is(err, ErrInvalidLocation) || errors.Is(err, ErrMalformedResponse) {
		return false
	}
	return true
}

type fetchOutcome struct {
	series DailySeries
	err    error
}

// fetchWithResilience runs fetch with retries, exponential backoff and a
// circuit breaker. Only retryable errors count against the breaker; the
// rest are returned straight away.
func fetchWithResilience(
	ctx context.Context,
	cfg BackoffConfig,
	cb *gobreaker.CircuitBreaker,
	fetch func(ctx context.Context) (DailySeries, error),
) (DailySeries, error) {
	if cfg.MaxRetries < 0 || (cfg.MaxRetries > 0 && cfg.InitialInterval <= 0) {
		return DailySeries{}, errInvalidConfig
	}

	var attempt int
	for {
		if ctx.Err() != nil {
			return DailySeries{}, ctx.Err()
		}

		result, err := cb.Execute(func() (interface{}, error) {
			series, err := fetch(ctx)
			if err != nil && !retryable(err) {
				return fetchOutcome{err: err}, nil
			}
			return fetchOutcome{series: series}, err
		})

		if err == nil {
			out, ok := result.(fetchOutcome)
			if !ok {
				return DailySeries{}, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return out.series, out.err
		}

		// If circuit is open, propagate immediately.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return DailySeries{}, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}

		if attempt >= cfg.MaxRetries {
			return DailySeries{}, err
		}

		// Backoff with exponential delay.
		delay := cfg.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > cfg.MaxInterval && cfg.MaxInterval > 0 {
			delay = cfg.MaxInterval
		}
		log.Debugw("retrying fetch", "attempt", attempt+1, "delay", delay, "err", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return DailySeries{}, ctx.Err()
		case <-timer.C:
			// continue to next attempt
		}

		attempt++
	}
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/climate-window/internal/weather"
	"github.com/i474232898/climate-window/internal/weather/providers"
)

// Store drivers.
const (
	StoreNone   = "none"
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

type AppConfig struct {
	// DaymetURL is the single pixel extraction endpoint.
	DaymetURL string `validate:"required,url"`

	// HTTPTimeout bounds each outbound request.
	HTTPTimeout time.Duration `validate:"gt=0"`

	// Retry policy applied by the service around the Daymet client.
	RetryMax      int           `validate:"gte=0,lte=10"`
	RetryInterval time.Duration `validate:"gt=0"`
	RetryMaxDelay time.Duration `validate:"gte=0"`

	// Series store.
	StoreDriver     string        `validate:"oneof=none memory sqlite"`
	StorePath       string        `validate:"required_if=StoreDriver sqlite"`
	StoreMaxEntries int           // max number of locations held (0 = unlimited)
	StoreMaxAge     time.Duration // max age of a stored series (0 = unlimited)

	// RefreshInterval controls how often the scheduler refetches Locations.
	RefreshInterval time.Duration `validate:"gte=0"`

	// Locations to keep warm in the store.
	Locations []weather.Location `validate:"dive"`

	GeocoderAPIKey string

	Port  string `validate:"required,numeric"`
	Debug bool
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	// A missing .env file is normal outside development.
	_ = godotenv.Load()

	cfg := &AppConfig{
		DaymetURL:       getenvDefault("DAYMET_URL", providers.DefaultDaymetURL),
		StoreDriver:     strings.ToLower(getenvDefault("STORE_DRIVER", StoreMemory)),
		StorePath:       getenvDefault("STORE_PATH", "climate-window.db"),
		StoreMaxEntries: getenvInt("STORE_MAX_ENTRIES", 64),
		GeocoderAPIKey:  os.Getenv("GEOCODER_API_KEY"),
		Port:            getenvDefault("PORT", "8080"),
		Debug:           getenvBool("DEBUG", false),
		RetryMax:        getenvInt("RETRY_MAX", 2),
	}

	var err error
	// Full Daymet histories are large; give the service time to answer.
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.RetryInterval, err = getenvDuration("RETRY_INTERVAL", "500ms"); err != nil {
		return nil, err
	}
	if cfg.RetryMaxDelay, err = getenvDuration("RETRY_MAX_DELAY", "5s"); err != nil {
		return nil, err
	}
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "24h"); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "12h"); err != nil {
		return nil, err
	}

	locs, err := parseLocations(os.Getenv("REFRESH_LOCATIONS"))
	if err != nil {
		return nil, err
	}
	cfg.Locations = locs

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Backoff returns the retry policy for the service.
func (c *AppConfig) Backoff() weather.BackoffConfig {
	return weather.BackoffConfig{
		MaxRetries:      c.RetryMax,
		InitialInterval: c.RetryInterval,
		MaxInterval:     c.RetryMaxDelay,
	}
}

// parseLocations reads a semicolon separated list of entries, each either
// "lat,lon" or the 1-based index of a known location ("known:3").
// "known" alone selects every known location.
func parseLocations(raw string) ([]weather.Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if raw == "known" {
		return weather.KnownLocations(), nil
	}

	var locs []weather.Location
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if idx, ok := strings.CutPrefix(entry, "known:"); ok {
			n, err := strconv.Atoi(idx)
			if err != nil {
				return nil, fmt.Errorf("invalid REFRESH_LOCATIONS entry %q: %w", entry, err)
			}
			loc, ok := weather.KnownLocation(n)
			if !ok {
				return nil, fmt.Errorf("invalid REFRESH_LOCATIONS entry %q: no known location %d", entry, n)
			}
			locs = append(locs, loc)
			continue
		}

		parts := strings.Split(entry, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid REFRESH_LOCATIONS entry %q: want lat,lon", entry)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude in %q: %w", entry, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude in %q: %w", entry, err)
		}
		loc := weather.Location{Lat: lat, Lon: lon}
		if err := loc.Validate(); err != nil {
			return nil, err
		}
		locs = append(locs, loc)
	}

	return locs, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	s := getenvDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

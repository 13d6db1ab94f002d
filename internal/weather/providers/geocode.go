package providers

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/climate-window/internal/weather"
)

// ErrGeocodingDisabled is returned when no Google API key is configured.
var ErrGeocodingDisabled = errors.New("geocoding requires a Google API key")

// geocoder keeps its key in a package variable.
var geocoderKeyMu sync.Mutex

// GeocodeQuery identifies a place by name.
type GeocodeQuery struct {
	City    string
	State   string
	Country string
}

// Geocoder resolves place names to coordinates with the Google Geocoding API.
type Geocoder struct {
	apiKey string
	lookup func(geocoder.Address) (geocoder.Location, error)
}

func NewGeocoder(apiKey string) *Geocoder {
	return &Geocoder{apiKey: apiKey, lookup: geocoder.Geocoding}
}

// Enabled reports whether an API key is configured.
func (g *Geocoder) Enabled() bool {
	return g != nil && g.apiKey != ""
}

// Locate returns the validated Location for q.
func (g *Geocoder) Locate(q GeocodeQuery) (weather.Location, error) {
	if !g.Enabled() {
		return weather.Location{}, ErrGeocodingDisabled
	}
	if strings.TrimSpace(q.City) == "" {
		return weather.Location{}, fmt.Errorf("geocode: city is required")
	}

	geocoderKeyMu.Lock()
	geocoder.ApiKey = g.apiKey
	found, err := g.lookup(geocoder.Address{
		City:    q.City,
		State:   q.State,
		Country: q.Country,
	})
	geocoderKeyMu.Unlock()
	if err != nil {
		return weather.Location{}, fmt.Errorf("geocode %q: %w", q.City, err)
	}

	loc := weather.Location{
		Lat:   found.Latitude,
		Lon:   found.Longitude,
		Name:  q.City,
		City:  q.City,
		State: q.State,
	}
	if err := loc.Validate(); err != nil {
		return weather.Location{}, err
	}
	return loc, nil
}

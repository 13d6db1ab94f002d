package providers

import (
	"errors"
	"testing"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/climate-window/internal/weather"
)

func TestGeocoderDisabled(t *testing.T) {
	g := NewGeocoder("")
	if g.Enabled() {
		t.Fatal("geocoder without key should be disabled")
	}
	if _, err := g.Locate(GeocodeQuery{City: "Ely"}); !errors.Is(err, ErrGeocodingDisabled) {
		t.Errorf("Locate() error = %v, want ErrGeocodingDisabled", err)
	}
}

func TestGeocoderLocate(t *testing.T) {
	g := NewGeocoder("test-key")
	g.lookup = func(a geocoder.Address) (geocoder.Location, error) {
		if geocoder.ApiKey != "test-key" {
			t.Errorf("ApiKey = %q, want test-key", geocoder.ApiKey)
		}
		if a.City != "Ely" || a.State != "MN" {
			t.Errorf("address = %+v", a)
		}
		return geocoder.Location{Latitude: 47.903, Longitude: -91.867}, nil
	}

	loc, err := g.Locate(GeocodeQuery{City: "Ely", State: "MN", Country: "United States"})
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if loc.Lat != 47.903 || loc.Lon != -91.867 || loc.City != "Ely" {
		t.Errorf("Locate() = %+v", loc)
	}
}

func TestGeocoderRejectsBadCoordinates(t *testing.T) {
	g := NewGeocoder("test-key")
	g.lookup = func(geocoder.Address) (geocoder.Location, error) {
		return geocoder.Location{Latitude: 123, Longitude: 0}, nil
	}
	if _, err := g.Locate(GeocodeQuery{City: "Nowhere"}); !errors.Is(err, weather.ErrInvalidLocation) {
		t.Errorf("Locate() error = %v, want ErrInvalidLocation", err)
	}
}

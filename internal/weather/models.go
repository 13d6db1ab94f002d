package weather

import (
	"fmt"
)

// Column names the Daymet single pixel tool always returns.
const (
	ColumnYear = "year"
	ColumnYDay = "yday"
)

// DaysPerYear is the length of the climate year used by Daymet. Leap years
// are compressed to 365 days by dropping Dec 31, so there is never a day 366.
const DaysPerYear = 365

// MaxHalfWidth keeps a window under one full year.
const MaxHalfWidth = 182

// Location represents a single point for which we retrieve the daily series.
// Lat/Lon must be in range; Name, City and State are descriptive only.
type Location struct {
	Lat   float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon   float64 `json:"lon" validate:"gte=-180,lte=180"`
	Name  string  `json:"name,omitempty"`
	City  string  `json:"city,omitempty"`
	State string  `json:"state,omitempty"`
}

// Key returns a canonical string key for indexing this location in stores.
// Descriptive fields are ignored so the same point always maps to one key.
func (l Location) Key() string {
	return fmt.Sprintf("%.4f:%.4f", l.Lat, l.Lon)
}

// Validate checks the coordinate ranges.
func (l Location) Validate() error {
	if err := validate.Struct(l); err != nil {
		return &InvalidLocationError{Lat: l.Lat, Lon: l.Lon, cause: err}
	}
	return nil
}

// DailyRecord is one row of the retrieved series.
type DailyRecord struct {
	Year   int                `json:"year"`
	YDay   int                `json:"yday"`
	Values map[string]float64 `json:"values"`
}

// Value returns the named variable and whether it was present.
func (r DailyRecord) Value(column string) (float64, bool) {
	v, ok := r.Values[column]
	return v, ok
}

// DailySeries is the ordered collection of records for one location, one
// record per (year, yday) pair. Treat it as read-only once returned.
type DailySeries struct {
	Location Location      `json:"location"`
	Columns  []string      `json:"columns"`
	Metadata []string      `json:"metadata,omitempty"`
	Records  []DailyRecord `json:"records"`
}

// Len returns the number of records.
func (s DailySeries) Len() int {
	return len(s.Records)
}

// Years returns the distinct years present, in order of first appearance.
func (s DailySeries) Years() []int {
	seen := make(map[int]bool)
	var years []int
	for _, r := range s.Records {
		if !seen[r.Year] {
			seen[r.Year] = true
			years = append(years, r.Year)
		}
	}
	return years
}

// VariableColumns returns every column other than year and yday.
func (s DailySeries) VariableColumns() []string {
	cols := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		if c == ColumnYear || c == ColumnYDay {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

// DayWindow selects, every year, the days CenterDay-HalfWidth through
// CenterDay+HalfWidth inclusive, wrapping across the 365/1 boundary.
type DayWindow struct {
	CenterDay int `json:"centerDay" validate:"gte=1,lte=365"`
	HalfWidth int `json:"halfWidth" validate:"gte=0,lte=182"`
}

// Validate checks the center and half-width ranges.
func (w DayWindow) Validate() error {
	if err := validate.Struct(w); err != nil {
		return &InvalidWindowError{CenterDay: w.CenterDay, HalfWidth: w.HalfWidth, cause: err}
	}
	return nil
}

// QueryOptions are optional server-side filters passed through to the
// extraction service untouched.
type QueryOptions struct {
	Vars  string `json:"vars,omitempty"`
	Years string `json:"years,omitempty"`
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// IsZero reports whether no option is set.
func (o QueryOptions) IsZero() bool {
	return o == QueryOptions{}
}

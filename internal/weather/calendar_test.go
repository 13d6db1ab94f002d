package weather

import (
	"errors"
	"testing"
)

func TestDayOfYear(t *testing.T) {
	tests := []struct {
		month, day, want int
	}{
		{1, 1, 1},
		{1, 31, 31},
		{2, 1, 32},
		{2, 28, 59},
		{3, 1, 60},
		{8, 2, 214},
		{12, 31, 365},
	}
	for _, tt := range tests {
		got, err := DayOfYear(tt.month, tt.day)
		if err != nil {
			t.Errorf("DayOfYear(%d, %d) error = %v", tt.month, tt.day, err)
			continue
		}
		if got != tt.want {
			t.Errorf("DayOfYear(%d, %d) = %d, want %d", tt.month, tt.day, got, tt.want)
		}
	}
}

func TestDayOfYearInvalid(t *testing.T) {
	// Feb 29 does not exist in the climate year.
	for _, d := range [][2]int{{0, 1}, {13, 1}, {2, 29}, {4, 31}, {1, 0}} {
		if _, err := DayOfYear(d[0], d[1]); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("DayOfYear(%d, %d) error = %v, want ErrInvalidDate", d[0], d[1], err)
		}
	}
}

func TestDateOfYearRoundTrip(t *testing.T) {
	for yday := 1; yday <= DaysPerYear; yday++ {
		m, d, err := DateOfYear(yday)
		if err != nil {
			t.Fatalf("DateOfYear(%d) error = %v", yday, err)
		}
		back, err := DayOfYear(m, d)
		if err != nil || back != yday {
			t.Fatalf("DayOfYear(DateOfYear(%d)) = %d, %v", yday, back, err)
		}
	}
	if _, _, err := DateOfYear(366); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("DateOfYear(366) error = %v, want ErrInvalidDate", err)
	}
}

func TestWindowFromDate(t *testing.T) {
	w, err := WindowFromDate(8, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if w.CenterDay != 214 || w.HalfWidth != 3 {
		t.Errorf("WindowFromDate(8, 2, 3) = %+v", w)
	}

	if _, err := WindowFromDate(8, 2, 183); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("WindowFromDate with half-width 183 error = %v, want ErrInvalidWindow", err)
	}
}

func TestKnownLocations(t *testing.T) {
	locs := KnownLocations()
	if len(locs) != 8 {
		t.Fatalf("len(KnownLocations()) = %d, want 8", len(locs))
	}
	for i, loc := range locs {
		if err := loc.Validate(); err != nil {
			t.Errorf("known location %d invalid: %v", i+1, err)
		}
	}

	loc, ok := KnownLocation(2)
	if !ok || loc.Name != "Camp Buck Toms" {
		t.Errorf("KnownLocation(2) = %+v, %v", loc, ok)
	}
	if _, ok := KnownLocation(0); ok {
		t.Error("KnownLocation(0) should not exist")
	}

	locs[0].Name = "changed"
	if KnownLocations()[0].Name == "changed" {
		t.Error("KnownLocations() must return a copy")
	}
}

package weather

import "context"

// Bounds returns the day-of-year range of the window after wrapping into
// [1,365]. When low > high the window crosses the year boundary and covers
// low..365 and 1..high.
func (w DayWindow) Bounds() (low, high int) {
	low = w.CenterDay - w.HalfWidth
	high = w.CenterDay + w.HalfWidth
	if low < 1 {
		low += DaysPerYear
	}
	if high > DaysPerYear {
		high -= DaysPerYear
	}
	return low, high
}

// Wraps reports whether the window crosses the year boundary.
func (w DayWindow) Wraps() bool {
	low, high := w.Bounds()
	return low > high
}

// Contains reports whether yday falls inside the window.
func (w DayWindow) Contains(yday int) bool {
	low, high := w.Bounds()
	if low <= high {
		return yday >= low && yday <= high
	}
	return yday >= low || yday <= high
}

// Days lists the selected day numbers walking forward from the first day
// of the window, e.g. 361..365,1..6 for center 1 and half-width 5.
func (w DayWindow) Days() []int {
	low, _ := w.Bounds()
	n := 2*w.HalfWidth + 1
	days := make([]int, 0, n)
	for i := 0; i < n; i++ {
		d := low + i
		if d > DaysPerYear {
			d -= DaysPerYear
		}
		days = append(days, d)
	}
	return days
}

// Extract returns a new series holding the records of series whose yday
// falls inside window, in their original order. The input is not modified.
func Extract(series DailySeries, window DayWindow) (DailySeries, error) {
	if err := window.Validate(); err != nil {
		return DailySeries{}, err
	}

	out := DailySeries{
		Location: series.Location,
		Columns:  append([]string(nil), series.Columns...),
		Metadata: append([]string(nil), series.Metadata...),
		Records:  make([]DailyRecord, 0, len(series.Records)),
	}
	for _, r := range series.Records {
		if window.Contains(r.YDay) {
			out.Records = append(out.Records, r)
		}
	}
	return out, nil
}

// FetchWindow fetches the series for loc and extracts window from it. The
// window is checked first so a bad window never costs a network call.
func FetchWindow(ctx context.Context, f Fetcher, loc Location, window DayWindow, opts ...QueryOptions) (DailySeries, error) {
	if err := window.Validate(); err != nil {
		return DailySeries{}, err
	}
	series, err := f.Fetch(ctx, loc, opts...)
	if err != nil {
		return DailySeries{}, err
	}
	return Extract(series, window)
}

package weather

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// VariableSummary describes one variable across a (usually filtered) series.
type VariableSummary struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	P10    float64 `json:"p10"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
}

// Summarize computes statistics for the named columns, or for every
// variable column when none are given. Records missing a value or holding
// NaN are skipped; a column with no values reports Count 0 and zero stats.
func Summarize(series DailySeries, columns ...string) []VariableSummary {
	if len(columns) == 0 {
		columns = series.VariableColumns()
	}

	out := make([]VariableSummary, 0, len(columns))
	for _, col := range columns {
		xs := make([]float64, 0, len(series.Records))
		for _, r := range series.Records {
			if v, ok := r.Value(col); ok && !math.IsNaN(v) {
				xs = append(xs, v)
			}
		}
		out = append(out, summarizeValues(col, xs))
	}
	return out
}

func summarizeValues(col string, xs []float64) VariableSummary {
	s := VariableSummary{Column: col, Count: len(xs)}
	if len(xs) == 0 {
		return s
	}

	sort.Float64s(xs)
	s.Min = floats.Min(xs)
	s.Max = floats.Max(xs)
	s.Mean, s.StdDev = stat.MeanStdDev(xs, nil)
	if len(xs) == 1 {
		s.StdDev = 0
	}
	s.P10 = stat.Quantile(0.1, stat.Empirical, xs, nil)
	s.Median = stat.Quantile(0.5, stat.Empirical, xs, nil)
	s.P90 = stat.Quantile(0.9, stat.Empirical, xs, nil)
	return s
}

// YearGroup holds the records of one year in series order.
type YearGroup struct {
	Year    int           `json:"year"`
	Records []DailyRecord `json:"records"`
}

// ByYear groups records by year, keeping years in order of first
// appearance. A wrapped window therefore puts a year's January days and
// December days in the same group.
func ByYear(series DailySeries) []YearGroup {
	idx := make(map[int]int)
	var groups []YearGroup
	for _, r := range series.Records {
		i, ok := idx[r.Year]
		if !ok {
			i = len(groups)
			idx[r.Year] = i
			groups = append(groups, YearGroup{Year: r.Year})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	return groups
}

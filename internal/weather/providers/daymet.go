package providers

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/i474232898/climate-window/internal/log"
	"github.com/i474232898/climate-window/internal/weather"
)

const (
	// DefaultDaymetURL is the Daymet single pixel extraction endpoint.
	DefaultDaymetURL = "https://daymet.ornl.gov/single-pixel/api/data"

	// DaymetSkipRows is the number of metadata lines ahead of the CSV header.
	DaymetSkipRows = 7

	// DaymetCitation is the citation Daymet asks users of the data to give.
	DaymetCitation = "Thornton; P.E.; M.M. Thornton; B.W. Mayer; Y. Wei; R. Devarakonda; R.S. Vose; and R.B. Cook. 2016. " +
		"Daymet: Daily Surface Weather Data on a 1-km Grid for North America; Version 3. ORNL DAAC; Oak Ridge; Tennessee; USA. " +
		"http://dx.doi.org/10.3334/ORNLDAAC/1328"

	// maxErrorBody caps how much of a failed response we keep.
	maxErrorBody = 512

	// Accepted calendar years in a response.
	minYear = 1
	maxYear = 9999
)

// DaymetIntegerColumns are variables Daymet reports as whole numbers even
// though the text sometimes carries a trailing ".0" or a fraction.
var DaymetIntegerColumns = []string{"dayl (s)"}

// DaymetProvider implements weather.Fetcher for the Daymet single pixel
// extraction tool.
type DaymetProvider struct {
	name           string
	baseURL        string
	client         *http.Client
	integerColumns map[string]bool
}

// NewDaymetProvider returns a provider using client for transport. An empty
// baseURL selects DefaultDaymetURL.
func NewDaymetProvider(client *http.Client, baseURL string) *DaymetProvider {
	if client == nil {
		client = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultDaymetURL
	}

	ints := make(map[string]bool, len(DaymetIntegerColumns))
	for _, c := range DaymetIntegerColumns {
		ints[c] = true
	}

	return &DaymetProvider{
		name:           "daymet",
		baseURL:        baseURL,
		client:         client,
		integerColumns: ints,
	}
}

func (p *DaymetProvider) Name() string {
	return p.name
}

// Citation returns the data citation for Daymet.
func (p *DaymetProvider) Citation() string {
	return DaymetCitation
}

// Fetch retrieves the full daily series for loc. Only the first opts value
// is used; its fields are passed to the service as-is.
func (p *DaymetProvider) Fetch(ctx context.Context, loc weather.Location, opts ...weather.QueryOptions) (weather.DailySeries, error) {
	if err := loc.Validate(); err != nil {
		return weather.DailySeries{}, err
	}

	var opt weather.QueryOptions
	if len(opts) > 0 {
		opt = opts[0]
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.requestURL(loc, opt), nil)
	if err != nil {
		return weather.DailySeries{}, fmt.Errorf("daymet: build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return weather.DailySeries{}, fmt.Errorf("daymet: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Warnw("daymet request failed", "lat", loc.Lat, "lon", loc.Lon, "status", resp.StatusCode)
		return weather.DailySeries{}, &weather.RetrievalError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return weather.DailySeries{}, fmt.Errorf("daymet: read body: %w", err)
	}

	series, err := ParseDaymetCSV(body, p.integerColumns)
	if err != nil {
		return weather.DailySeries{}, err
	}
	series.Location = loc

	log.Debugw("daymet series retrieved", "lat", loc.Lat, "lon", loc.Lon, "records", series.Len())
	return series, nil
}

func (p *DaymetProvider) requestURL(loc weather.Location, opt weather.QueryOptions) string {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(loc.Lon, 'f', -1, 64))
	if opt.Vars != "" {
		values.Set("vars", opt.Vars)
	}
	if opt.Years != "" {
		values.Set("years", opt.Years)
	}
	if opt.Start != "" {
		values.Set("start", opt.Start)
	}
	if opt.End != "" {
		values.Set("end", opt.End)
	}

	sep := "?"
	if strings.Contains(p.baseURL, "?") {
		sep = "&"
	}
	return p.baseURL + sep + values.Encode()
}

// ParseDaymetCSV parses a single pixel response: DaymetSkipRows metadata
// lines, a header row, then data rows. Columns are matched by name; year
// and yday are required. integerColumns names variables truncated to whole
// numbers. Values that are not numbers are left out of the record.
func ParseDaymetCSV(body []byte, integerColumns map[string]bool) (weather.DailySeries, error) {
	var series weather.DailySeries

	rest := body
	for i := 0; i < DaymetSkipRows; i++ {
		nl := bytes.IndexByte(rest, '\n')
		if nl < 0 {
			return series, weather.NewMalformedResponseError(0,
				fmt.Sprintf("expected %d metadata lines, found %d", DaymetSkipRows, i), nil)
		}
		series.Metadata = append(series.Metadata, strings.TrimRight(string(rest[:nl]), "\r"))
		rest = rest[nl+1:]
	}

	r := csv.NewReader(bytes.NewReader(rest))
	r.TrimLeadingSpace = true
	r.ReuseRecord = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return series, weather.NewMalformedResponseError(0, "missing header row", nil)
	}
	if err != nil {
		return series, csvError(err)
	}

	series.Columns = make([]string, len(header))
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := index[name]; dup {
			return series, weather.NewMalformedResponseError(DaymetSkipRows+1, fmt.Sprintf("duplicate column %q", name), nil)
		}
		index[name] = i
		series.Columns[i] = name
	}

	yearIdx, ok := index[weather.ColumnYear]
	if !ok {
		return series, weather.NewMalformedResponseError(DaymetSkipRows+1, "missing year column", nil)
	}
	ydayIdx, ok := index[weather.ColumnYDay]
	if !ok {
		return series, weather.NewMalformedResponseError(DaymetSkipRows+1, "missing yday column", nil)
	}

	seen := make(map[[2]int]struct{})
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return series, csvError(err)
		}
		line, _ := r.FieldPos(0)
		line += DaymetSkipRows

		year, err := parseIntegral(row[yearIdx])
		if err != nil {
			return series, weather.NewMalformedResponseError(line, "year is not an integer", err)
		}
		if year < minYear || year > maxYear {
			return series, weather.NewMalformedResponseError(line,
				fmt.Sprintf("year %d outside %d..%d", year, minYear, maxYear), nil)
		}
		yday, err := parseIntegral(row[ydayIdx])
		if err != nil {
			return series, weather.NewMalformedResponseError(line, "yday is not an integer", err)
		}
		if yday < 1 || yday > weather.DaysPerYear {
			return series, weather.NewMalformedResponseError(line,
				fmt.Sprintf("yday %d outside 1..%d", yday, weather.DaysPerYear), nil)
		}
		key := [2]int{year, yday}
		if _, dup := seen[key]; dup {
			return series, weather.NewMalformedResponseError(line,
				fmt.Sprintf("repeated record for year %d yday %d", year, yday), nil)
		}
		seen[key] = struct{}{}

		rec := weather.DailyRecord{
			Year:   year,
			YDay:   yday,
			Values: make(map[string]float64, len(row)-2),
		}
		for i, raw := range row {
			if i == yearIdx || i == ydayIdx {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			if integerColumns[series.Columns[i]] {
				v = math.Trunc(v)
			}
			rec.Values[series.Columns[i]] = v
		}
		series.Records = append(series.Records, rec)
	}

	return series, nil
}

// parseIntegral accepts "2018" as well as "2018.0".
func parseIntegral(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%q has a fractional part", s)
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0, fmt.Errorf("%q is out of range", s)
	}
	return int(f), nil
}

func csvError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return weather.NewMalformedResponseError(pe.Line+DaymetSkipRows, "invalid CSV row", pe.Err)
	}
	return weather.NewMalformedResponseError(0, "invalid CSV", err)
}

package httpapi

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/climate-window/internal/weather"
	"github.com/i474232898/climate-window/internal/weather/providers"
)

var validate = validator.New()

// Climate is the part of weather.Service the routes use.
type Climate interface {
	Series(ctx context.Context, loc weather.Location, opts ...weather.QueryOptions) (weather.DailySeries, error)
	Window(ctx context.Context, loc weather.Location, window weather.DayWindow, opts ...weather.QueryOptions) (weather.DailySeries, error)
}

// Locator resolves a place name to a location.
type Locator interface {
	Enabled() bool
	Locate(q providers.GeocodeQuery) (weather.Location, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app. geo may be nil.
func RegisterRoutes(app *fiber.App, service Climate, geo Locator) {
	v1 := app.Group("/api/v1")

	v1.Get("/locations", func(c *fiber.Ctx) error {
		known := weather.KnownLocations()
		out := make([]fiber.Map, 0, len(known))
		for i, loc := range known {
			out = append(out, fiber.Map{"index": i + 1, "location": loc})
		}
		return c.JSON(fiber.Map{"locations": out})
	})

	v1.Get("/calendar/yday", func(c *fiber.Ctx) error {
		month, err := queryInt(c, "month")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		day, err := queryInt(c, "dom")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		yday, err := weather.DayOfYear(month, day)
		if err != nil {
			return errorResponse(err)
		}
		return c.JSON(fiber.Map{"month": month, "dom": day, "yday": yday})
	})

	v1.Get("/climate/series", func(c *fiber.Ctx) error {
		loc, err := resolveLocation(c, geo)
		if err != nil {
			return errorResponse(err)
		}

		series, err := service.Series(c.UserContext(), loc, parseQueryOptions(c))
		if err != nil {
			return errorResponse(err)
		}

		return c.JSON(fiber.Map{
			"location": loc,
			"columns":  series.Columns,
			"metadata": series.Metadata,
			"count":    series.Len(),
			"records":  series.Records,
			"citation": providers.DaymetCitation,
		})
	})

	v1.Get("/climate/window", func(c *fiber.Ctx) error {
		var req windowQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		window, err := req.window()
		if err != nil {
			return errorResponse(err)
		}
		loc, err := resolveLocation(c, geo)
		if err != nil {
			return errorResponse(err)
		}

		filtered, err := service.Window(c.UserContext(), loc, window, parseQueryOptions(c))
		if err != nil {
			return errorResponse(err)
		}

		var summaryCols []string
		if vars := c.Query("summary"); vars != "" {
			summaryCols = strings.Split(vars, ",")
		}

		low, high := window.Bounds()
		return c.JSON(fiber.Map{
			"location": loc,
			"window": fiber.Map{
				"centerDay": window.CenterDay,
				"halfWidth": window.HalfWidth,
				"low":       low,
				"high":      high,
				"wraps":     window.Wraps(),
				"days":      window.Days(),
			},
			"columns":  filtered.Columns,
			"count":    filtered.Len(),
			"years":    filtered.Years(),
			"records":  filtered.Records,
			"summary":  weather.Summarize(filtered, summaryCols...),
			"citation": providers.DaymetCitation,
		})
	})
}

// windowQuery holds query parameters for the window endpoint. Either Day or
// Month and DOM pick the center.
type windowQuery struct {
	Day       int `validate:"omitempty,gte=1,lte=365"`
	Month     int `validate:"omitempty,gte=1,lte=12"`
	DOM       int `validate:"omitempty,gte=1,lte=31"`
	HalfWidth int `validate:"gte=0,lte=182"`

	hasDay bool
}

func (w *windowQuery) bind(c *fiber.Ctx) error {
	var err error
	if c.Query("day") != "" {
		if w.Day, err = queryInt(c, "day"); err != nil {
			return err
		}
		w.hasDay = true
	}
	if c.Query("month") != "" {
		if w.Month, err = queryInt(c, "month"); err != nil {
			return err
		}
		if w.DOM, err = queryInt(c, "dom"); err != nil {
			return err
		}
	}
	if c.Query("day") == "" && c.Query("month") == "" {
		return errors.New("either day or month and dom query parameters are required")
	}
	if w.HalfWidth, err = queryInt(c, "window"); err != nil {
		return err
	}
	return nil
}

func (w windowQuery) window() (weather.DayWindow, error) {
	if w.hasDay {
		win := weather.DayWindow{CenterDay: w.Day, HalfWidth: w.HalfWidth}
		return win, win.Validate()
	}
	return weather.WindowFromDate(w.Month, w.DOM, w.HalfWidth)
}

// resolveLocation accepts, in order of preference, a known location index,
// lat/lon, or a place name when geocoding is available.
func resolveLocation(c *fiber.Ctx, geo Locator) (weather.Location, error) {
	if idx := c.Query("location"); idx != "" {
		n, err := strconv.Atoi(idx)
		if err != nil {
			return weather.Location{}, fiber.NewError(fiber.StatusBadRequest, "location must be an integer index")
		}
		loc, ok := weather.KnownLocation(n)
		if !ok {
			return weather.Location{}, fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("no known location %d", n))
		}
		return loc, nil
	}

	if c.Query("lat") != "" || c.Query("lon") != "" {
		lat, err := strconv.ParseFloat(c.Query("lat"), 64)
		if err != nil {
			return weather.Location{}, fiber.NewError(fiber.StatusBadRequest, "lat must be a number")
		}
		lon, err := strconv.ParseFloat(c.Query("lon"), 64)
		if err != nil {
			return weather.Location{}, fiber.NewError(fiber.StatusBadRequest, "lon must be a number")
		}
		loc := weather.Location{Lat: lat, Lon: lon}
		return loc, loc.Validate()
	}

	if city := c.Query("city"); city != "" {
		if geo == nil || !geo.Enabled() {
			return weather.Location{}, fiber.NewError(fiber.StatusNotImplemented, providers.ErrGeocodingDisabled.Error())
		}
		loc, err := geo.Locate(providers.GeocodeQuery{
			City:    city,
			State:   c.Query("state"),
			Country: c.Query("country"),
		})
		if err != nil {
			if errors.Is(err, weather.ErrInvalidLocation) {
				return weather.Location{}, err
			}
			return weather.Location{}, fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		return loc, nil
	}

	return weather.Location{}, fiber.NewError(fiber.StatusBadRequest, "one of location, lat/lon or city is required")
}

func parseQueryOptions(c *fiber.Ctx) weather.QueryOptions {
	return weather.QueryOptions{
		Vars:  c.Query("vars"),
		Years: c.Query("years"),
		Start: c.Query("start"),
		End:   c.Query("end"),
	}
}

func queryInt(c *fiber.Ctx, key string) (int, error) {
	v := c.Query(key)
	if v == "" {
		return 0, fmt.Errorf("%s query parameter is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}

// errorResponse maps domain errors onto HTTP status codes.
func errorResponse(err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}

	var re *weather.RetrievalError
	switch {
	case errors.Is(err, weather.ErrInvalidLocation),
		errors.Is(err, weather.ErrInvalidWindow),
		errors.Is(err, weather.ErrInvalidDate):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.As(err, &re):
		return fiber.NewError(fiber.StatusBadGateway, fmt.Sprintf("upstream returned status %d", re.StatusCode))
	case errors.Is(err, weather.ErrMalformedResponse):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	case errors.Is(err, weather.ErrCircuitOpen):
		return fiber.NewError(fiber.StatusServiceUnavailable, "upstream temporarily unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.NewError(fiber.StatusGatewayTimeout, "upstream timed out")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch climate data")
	}
}

package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	httpapi "github.com/i474232898/climate-window/internal/api/http"
	"github.com/i474232898/climate-window/internal/config"
	"github.com/i474232898/climate-window/internal/log"
	"github.com/i474232898/climate-window/internal/scheduler"
	"github.com/i474232898/climate-window/internal/store"
	"github.com/i474232898/climate-window/internal/weather"
	"github.com/i474232898/climate-window/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := log.Init(cfg.Debug); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer log.Sync()

	// Shared HTTP client for the extraction service.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	seriesStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("failed to open series store: %v", err)
	}
	if seriesStore != nil {
		defer seriesStore.Close()
	}

	daymet := providers.NewDaymetProvider(httpClient, cfg.DaymetURL)

	// Core service: retry, circuit breaker and store around the client.
	service := weather.NewService(daymet, seriesStore, cfg.Backoff())

	// Scheduler that keeps configured locations warm in the store.
	if seriesStore != nil {
		sched := scheduler.New(cfg.Locations, cfg.RefreshInterval, service)
		if err := sched.Start(); err != nil {
			log.Fatalf("failed to start scheduler: %v", err)
		}
		defer sched.Stop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "climate-window",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// Full histories can take a while upstream.
		WriteTimeout: cfg.HTTPTimeout + 10*time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":     true,
				"message":   err.Error(),
				"requestId": c.Locals("requestid"),
			})
		},
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "climate-window",
			"source":  daymet.Name(),
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, service, providers.NewGeocoder(cfg.GeocoderAPIKey))

	go func() {
		log.Infow("server starting", "port", cfg.Port, "daymet", cfg.DaymetURL, "store", cfg.StoreDriver)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Errorw("fiber server stopped", "err", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Errorw("error during shutdown", "err", err)
	}
	log.Infow("server stopped")
}

// openStore returns nil when the store is disabled.
func openStore(cfg *config.AppConfig) (weather.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		return store.NewMemoryStore(cfg.StoreMaxEntries, cfg.StoreMaxAge), nil
	case config.StoreSQLite:
		return store.NewSQLite(cfg.StorePath, cfg.StoreMaxEntries, cfg.StoreMaxAge)
	default:
		log.Infow("series store disabled", "driver", cfg.StoreDriver)
		return nil, nil
	}
}

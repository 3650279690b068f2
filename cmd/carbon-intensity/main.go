package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	httpapi "github.com/i474232898/carbon-intensity-aggregation/internal/api/http"
	"github.com/i474232898/carbon-intensity-aggregation/internal/config"
	"github.com/i474232898/carbon-intensity-aggregation/internal/intensity"
	"github.com/i474232898/carbon-intensity-aggregation/internal/intensity/providers"
	"github.com/i474232898/carbon-intensity-aggregation/internal/scheduler"
)

const appName = "carbon-intensity-aggregation"

func main() {
	manifestPath := flag.String("manifest", "", "run the inputs of a YAML manifest once and print the outputs")
	flag.Parse()

	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", appName).Logger()

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		log = log.Level(level)
	}
	if !cfg.DotenvLoaded {
		log.Debug().Msg("no .env file found")
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	provider := providers.NewElectricityMapsProvider(httpClient, providers.ElectricityMapsOptions{
		BaseURL: cfg.EMapsBaseURL,
		Backoff: providers.BackoffConfig{MaxRetries: cfg.ProviderMaxRetries},
		Logger:  log,
	})

	service := intensity.NewService(provider, log)

	if *manifestPath != "" {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := runManifest(ctx, service, *manifestPath, os.Stdout); err != nil {
			log.Error().Err(err).Str("manifest", *manifestPath).Msg("manifest run failed")
			stop()
			os.Exit(1)
		}
		return
	}

	// Scheduler that periodically reports intensity for watched zones.
	sched := scheduler.New(cfg.WatchZones, cfg.WatchInterval, cfg.WatchWindow, service, log)
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer sched.Stop()

	app := httpapi.NewApp(appName)

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": appName,
		})
	})

	httpapi.RegisterRoutes(app, service, log)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("fiber server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Msg("listening")

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
}

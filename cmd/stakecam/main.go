package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	httpapi "github.com/snowstake/stakecam/internal/api/http"
	"github.com/snowstake/stakecam/internal/archive"
	"github.com/snowstake/stakecam/internal/capture"
	"github.com/snowstake/stakecam/internal/config"
	"github.com/snowstake/stakecam/internal/fetch"
	"github.com/snowstake/stakecam/internal/forecast"
	"github.com/snowstake/stakecam/internal/scheduler"
	"github.com/snowstake/stakecam/internal/store"
)

func main() {
	once := flag.Bool("once", false, "run a single capture cycle and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Ordered source list; invalid entries are skipped inside LoadSources.
	sources, err := config.LoadSources(cfg.SourcesFile, cfg.GeocoderAPIKey)
	if err != nil {
		log.Fatalf("failed to load sources: %v", err)
	}

	// Archive backend.
	archiveStore, err := buildArchive(cfg)
	if err != nil {
		log.Fatalf("failed to build archive backend: %v", err)
	}

	// Forecast gate over Open-Meteo with a shared circuit breaker.
	gate := forecast.NewGate(
		forecast.NewOpenMeteoProvider(&http.Client{Timeout: cfg.HTTPTimeout}),
		forecast.Thresholds{
			Next3hIn: cfg.Snow3hThresholdIn,
			Next6hIn: cfg.Snow6hThresholdIn,
		},
	)

	// In-memory decision store with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	// The decision engine.
	engine := capture.NewEngine(capture.Config{
		Fetcher:           fetch.NewClient(cfg.HTTPTimeout, cfg.AllowInsecureTLS),
		Gate:              gate,
		Archive:           archiveStore,
		Store:             memStore,
		DistanceThreshold: cfg.HashDistanceThreshold,
		IOTimeout:         cfg.HTTPTimeout,
		Concurrency:       cfg.Concurrency,
		LocalSnapshotDir:  cfg.LocalSnapshotDir,
	})

	if *once {
		decisions := engine.RunCycle(context.Background(), sources)
		kept := 0
		for _, d := range decisions {
			if d.Keep {
				kept++
			}
		}
		log.Printf("capture cycle completed: %d evaluated, %d kept", len(decisions), kept)
		return
	}

	// Scheduler that periodically runs capture cycles.
	sched := scheduler.New(sources, cfg.FetchInterval, engine)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "stakecam",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "stakecam",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, memStore, sources)

	// Start server with graceful shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

func buildArchive(cfg *config.AppConfig) (archive.Store, error) {
	switch cfg.ArchiveBackend {
	case "drive":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return archive.NewDriveStore(ctx, []byte(cfg.DriveKey), cfg.DriveFolderID)
	default:
		return archive.NewLocalStore(cfg.ArchiveDir)
	}
}

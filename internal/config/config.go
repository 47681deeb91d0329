// Package config loads runtime configuration from the environment and the
// sources file.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/snowstake/stakecam/internal/capture"
	"github.com/snowstake/stakecam/internal/forecast"
)

type AppConfig struct {
	// SourcesFile is the YAML or JSON file listing monitored sources.
	SourcesFile string

	// FetchInterval controls how often a capture cycle runs in scheduled mode.
	FetchInterval time.Duration

	// HTTPTimeout bounds each outbound call (snapshot, forecast, archive).
	HTTPTimeout time.Duration

	// AllowInsecureTLS skips certificate verification on snapshot fetches.
	// Defaults to true: resort cams routinely serve broken certificates.
	AllowInsecureTLS bool

	// Concurrency bounds parallel source evaluations per cycle.
	Concurrency int

	// Archive backend selection: "local" or "drive".
	ArchiveBackend string
	ArchiveDir     string // local backend root
	DriveFolderID  string // drive backend root folder id
	DriveKey       string // drive service-account credentials JSON

	// LocalSnapshotDir optionally spools kept images locally (best effort).
	LocalSnapshotDir string

	// GeocoderAPIKey enables place -> lat/lon resolution for sources
	// configured without coordinates.
	GeocoderAPIKey string

	// Decision policy. Defaults must not change; see forecast and capture
	// package constants.
	Snow3hThresholdIn     float64
	Snow6hThresholdIn     float64
	HashDistanceThreshold int

	// Decision store retention.
	StoreMaxHistory int
	StoreMaxAge     time.Duration

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.SourcesFile = getenvDefault("SOURCES_FILE", "config/sources.yaml")

	intervalStr := getenvDefault("FETCH_INTERVAL", "15m")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}
	cfg.FetchInterval = interval

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "12s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.AllowInsecureTLS = getenvBool("ALLOW_INSECURE_TLS", true)
	cfg.Concurrency = getenvInt("CAPTURE_CONCURRENCY", 4)

	cfg.ArchiveBackend = getenvDefault("ARCHIVE_BACKEND", "local")
	cfg.ArchiveDir = getenvDefault("ARCHIVE_DIR", "data/archive")
	cfg.DriveFolderID = os.Getenv("GDRIVE_FOLDER_ID")
	cfg.DriveKey = os.Getenv("GDRIVE_KEY")
	cfg.LocalSnapshotDir = os.Getenv("LOCAL_SNAPSHOT_DIR")

	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	cfg.Snow3hThresholdIn = getenvFloat("SNOW_3H_THRESHOLD_IN", forecast.DefaultNext3hThresholdIn)
	cfg.Snow6hThresholdIn = getenvFloat("SNOW_6H_THRESHOLD_IN", forecast.DefaultNext6hThresholdIn)
	cfg.HashDistanceThreshold = getenvInt("HASH_DISTANCE_THRESHOLD", capture.DefaultDistanceThreshold)

	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 96) // roughly 24h at 15-minute intervals

	maxAgeStr := getenvDefault("STORE_MAX_AGE", "24h")
	maxAge, err := time.ParseDuration(maxAgeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_MAX_AGE: %w", err)
	}
	cfg.StoreMaxAge = maxAge
	cfg.Port = getenvDefault("PORT", "8080")

	if cfg.ArchiveBackend == "drive" && (cfg.DriveFolderID == "" || cfg.DriveKey == "") {
		return nil, fmt.Errorf("drive archive requires GDRIVE_FOLDER_ID and GDRIVE_KEY")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

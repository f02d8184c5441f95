package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	// Google Sheets source.
	SheetsSpreadsheetID string
	SheetsAPIKey        string
	SheetsSheetName     string
	SheetsRange         string
	SheetsBaseURL       string
	SheetsTimeout       time.Duration
	FetchMaxRetries     uint64
	FetchMaxElapsed     time.Duration

	// Row interpretation.
	Location             *time.Location
	KeepInvalidPositions bool

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Optional sighting feed. Disabled when no brokers are set.
	KafkaBrokers        []string
	KafkaSightingsTopic string
}

// FeedEnabled reports whether loaded sightings are published to Kafka.
func (c *Config) FeedEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	sheetsTimeout, err := parsePositiveDuration("SHEETS_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}

	maxElapsed, err := parsePositiveDuration("FETCH_MAX_ELAPSED", "1m")
	if err != nil {
		return nil, err
	}

	maxRetries, err := strconv.ParseUint(sharedcfg.EnvOrDefault("FETCH_MAX_RETRIES", "4"), 10, 32)
	if err != nil {
		return nil, errors.New("invalid FETCH_MAX_RETRIES: must be a non-negative integer")
	}

	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(sharedcfg.EnvOrDefault("TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	keepInvalid, err := parseMalformedPosition(sharedcfg.EnvOrDefault("MALFORMED_POSITION", "reject"))
	if err != nil {
		return nil, err
	}

	mapboxCacheSize := parseMapboxCacheSize()

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		CORSOrigins:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("CORS_ORIGINS", "*")),

		SheetsSpreadsheetID: os.Getenv("SHEETS_SPREADSHEET_ID"),
		SheetsAPIKey:        os.Getenv("SHEETS_API_KEY"),
		SheetsSheetName:     sharedcfg.EnvOrDefault("SHEETS_SHEET_NAME", "Sheet1"),
		SheetsRange:         sharedcfg.EnvOrDefault("SHEETS_RANGE", "A1:R"),
		SheetsBaseURL:       strings.TrimRight(sharedcfg.EnvOrDefault("SHEETS_BASE_URL", "https://sheets.googleapis.com"), "/"),
		SheetsTimeout:       sheetsTimeout,
		FetchMaxRetries:     maxRetries,
		FetchMaxElapsed:     maxElapsed,

		Location:             loc,
		KeepInvalidPositions: keepInvalid,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: mapboxCacheSize,

		KafkaBrokers:        sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaSightingsTopic: sharedcfg.EnvOrDefault("KAFKA_SIGHTINGS_TOPIC", "cat-sightings"),
	}

	if cfg.SheetsSpreadsheetID == "" {
		return nil, errors.New("SHEETS_SPREADSHEET_ID is required")
	}
	if cfg.SheetsAPIKey == "" {
		return nil, errors.New("SHEETS_API_KEY is required")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parseMalformedPosition(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reject":
		return false, nil
	case "keep":
		return true, nil
	default:
		return false, fmt.Errorf("invalid MALFORMED_POSITION %q: must be reject or keep", s)
	}
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}

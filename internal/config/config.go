package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type AppConfig struct {
	// Electricity Maps API root, without trailing slash.
	EMapsBaseURL string `validate:"required,url"`

	// Outbound HTTP settings.
	HTTPTimeout        time.Duration `validate:"gt=0"`
	ProviderMaxRetries int           `validate:"gte=0,lte=5"`

	// Zones reported on periodically; empty disables the watcher.
	WatchZones    []string      `validate:"dive,required"`
	WatchInterval time.Duration `validate:"gte=1m"`
	WatchWindow   time.Duration `validate:"gte=1h,lt=240h"`

	LogLevel string `validate:"oneof=trace debug info warn error"`
	Port     string `validate:"required,numeric"`

	// DotenvLoaded is false when no .env file was read.
	DotenvLoaded bool
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}
	cfg.DotenvLoaded = godotenv.Load() == nil

	cfg.EMapsBaseURL = strings.TrimRight(getenvDefault("EMAPS_BASE_URL", "https://api.electricitymap.org/v3"), "/")

	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	// No retries by default: callers retry whole batches.
	retries, err := getenvInt("PROVIDER_MAX_RETRIES", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid PROVIDER_MAX_RETRIES: %w", err)
	}
	cfg.ProviderMaxRetries = retries

	cfg.WatchZones = splitList(os.Getenv("WATCH_ZONES"))

	interval, err := time.ParseDuration(getenvDefault("WATCH_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid WATCH_INTERVAL: %w", err)
	}
	cfg.WatchInterval = interval

	window, err := time.ParseDuration(getenvDefault("WATCH_WINDOW", "2h"))
	if err != nil {
		return nil, fmt.Errorf("invalid WATCH_WINDOW: %w", err)
	}
	cfg.WatchWindow = window

	cfg.LogLevel = strings.ToLower(getenvDefault("LOG_LEVEL", "info"))
	cfg.Port = getenvDefault("PORT", "8080")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

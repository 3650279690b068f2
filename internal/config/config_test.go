package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"EMAPS_BASE_URL", "HTTP_TIMEOUT", "PROVIDER_MAX_RETRIES", "WATCH_ZONES",
		"WATCH_INTERVAL", "WATCH_WINDOW", "LOG_LEVEL", "PORT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.electricitymap.org/v3", cfg.EMapsBaseURL)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Zero(t, cfg.ProviderMaxRetries)
	assert.Empty(t, cfg.WatchZones)
	assert.Equal(t, time.Hour, cfg.WatchInterval)
	assert.Equal(t, 2*time.Hour, cfg.WatchWindow)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "8080", cfg.Port)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("EMAPS_BASE_URL", "http://localhost:9000/v3/")
	t.Setenv("PROVIDER_MAX_RETRIES", "2")
	t.Setenv("WATCH_ZONES", " DE, PJM ,,FR")
	t.Setenv("WATCH_WINDOW", "3h")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000/v3", cfg.EMapsBaseURL)
	assert.Equal(t, 2, cfg.ProviderMaxRetries)
	assert.Equal(t, []string{"DE", "PJM", "FR"}, cfg.WatchZones)
	assert.Equal(t, 3*time.Hour, cfg.WatchWindow)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unparsable timeout", "HTTP_TIMEOUT", "soon"},
		{"unparsable retries", "PROVIDER_MAX_RETRIES", "many"},
		{"too many retries", "PROVIDER_MAX_RETRIES", "9"},
		{"window of ten days", "WATCH_WINDOW", "240h"},
		{"window under an hour", "WATCH_WINDOW", "30m"},
		{"unknown log level", "LOG_LEVEL", "loud"},
		{"bad base url", "EMAPS_BASE_URL", "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

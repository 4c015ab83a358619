package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susu3304/snacknav/internal/catalog"
	"github.com/susu3304/snacknav/internal/geocode"
)

var allKeys = []string{
	"DISCORD_TOKEN", "DISCORD_CLIENT_ID", "DISCORD_CLIENT_SECRET", "DISCORD_REDIRECT_URI",
	"DATABASE_URL", "SQLITE_PATH", "WEB_BIND", "JWT_SECRET", "CATALOG_PATH",
	"GEOCODE_URL", "GEOCODE_TIMEOUT", "GEOCODE_LIMIT", "GEOCODE_MIN_QUERY",
	"POINTS_MAX_KM", "SEARCH_SORT", "REQUIRE_POSITION", "SESSION_IDLE_TTL", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:3000", cfg.WebBind)
	assert.Equal(t, "http://localhost:3000", cfg.WebUIBaseURL)
	assert.Equal(t, 10.0, cfg.PointsMaxKm)
	assert.Equal(t, catalog.SortCatalog, cfg.SearchSort)
	assert.True(t, cfg.RequirePosition)
	assert.Equal(t, 24*time.Hour, cfg.SessionIdleTTL)
	assert.Equal(t, geocode.DefaultEndpoint, cfg.GeocodeURL)
	assert.Equal(t, 5*time.Second, cfg.GeocodeTimeout)
	assert.Equal(t, 5, cfg.GeocodeLimit)
	assert.Equal(t, 3, cfg.GeocodeMinQuery)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.DiscordToken)
	assert.False(t, cfg.OAuthEnabled())
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEB_BIND", "127.0.0.1:8080")
	t.Setenv("DISCORD_REDIRECT_URI", "https://walk.example.com/api/auth/callback")
	t.Setenv("DISCORD_CLIENT_ID", "id")
	t.Setenv("DISCORD_CLIENT_SECRET", "secret")
	t.Setenv("POINTS_MAX_KM", "8")
	t.Setenv("SEARCH_SORT", "Alphabetical")
	t.Setenv("REQUIRE_POSITION", "false")
	t.Setenv("SESSION_IDLE_TTL", "0")
	t.Setenv("GEOCODE_TIMEOUT", "750ms")
	t.Setenv("GEOCODE_LIMIT", "3")
	t.Setenv("GEOCODE_MIN_QUERY", "0")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.WebBind)
	assert.Equal(t, "https://walk.example.com", cfg.WebUIBaseURL)
	assert.Equal(t, 8.0, cfg.PointsMaxKm)
	assert.Equal(t, catalog.SortAlphabetical, cfg.SearchSort)
	assert.False(t, cfg.RequirePosition)
	assert.Zero(t, cfg.SessionIdleTTL)
	assert.Equal(t, 750*time.Millisecond, cfg.GeocodeTimeout)
	assert.Equal(t, 3, cfg.GeocodeLimit)
	assert.Equal(t, 0, cfg.GeocodeMinQuery)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.OAuthEnabled())
}

func TestFromEnvRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"POINTS_MAX_KM", "far"},
		{"POINTS_MAX_KM", "-1"},
		{"SEARCH_SORT", "random"},
		{"REQUIRE_POSITION", "maybe"},
		{"SESSION_IDLE_TTL", "forever"},
		{"GEOCODE_TIMEOUT", "soon"},
		{"GEOCODE_TIMEOUT", "-5s"},
		{"GEOCODE_LIMIT", "0"},
		{"GEOCODE_MIN_QUERY", "three"},
		{"LOG_LEVEL", "verbose"},
		{"DISCORD_CLIENT_ID", "only-half"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestExtractBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:3000", extractBaseURL("not a url"))
	assert.Equal(t, "https://a.example:8443", extractBaseURL("https://a.example:8443/cb"))
}

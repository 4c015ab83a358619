package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/susu3304/snacknav/internal/catalog"
	"github.com/susu3304/snacknav/internal/geocode"
	"github.com/susu3304/snacknav/internal/geoscore"
)

type Config struct {
	// Discord Bot (disabled when empty)
	DiscordToken string

	// Discord OAuth2
	DiscordClientID     string
	DiscordClientSecret string
	DiscordRedirectURI  string

	// Ledger storage
	DatabaseURL string
	SQLitePath  string

	// Web Server
	WebBind      string
	WebUIBaseURL string

	// Session
	JWTSecret string

	// Catalog and scoring
	CatalogPath     string
	PointsMaxKm     float64
	SearchSort      catalog.SortPolicy
	RequirePosition bool
	SessionIdleTTL  time.Duration

	// Geocoding
	GeocodeURL      string
	GeocodeTimeout  time.Duration
	GeocodeLimit    int
	GeocodeMinQuery int

	LogLevel string
}

func Load() (*Config, error) {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		DiscordToken:        os.Getenv("DISCORD_TOKEN"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		SQLitePath:          os.Getenv("SQLITE_PATH"),
		WebBind:             getEnvDefault("WEB_BIND", "0.0.0.0:3000"),
		DiscordClientID:     os.Getenv("DISCORD_CLIENT_ID"),
		DiscordClientSecret: os.Getenv("DISCORD_CLIENT_SECRET"),
		DiscordRedirectURI:  getEnvDefault("DISCORD_REDIRECT_URI", "http://localhost:3000/api/auth/callback"),
		JWTSecret:           getEnvDefault("JWT_SECRET", "dev-only-change-me"),
		CatalogPath:         os.Getenv("CATALOG_PATH"),
		GeocodeURL:          getEnvDefault("GEOCODE_URL", geocode.DefaultEndpoint),
		LogLevel:            strings.ToLower(getEnvDefault("LOG_LEVEL", "info")),
	}

	// Extract base URL from redirect URI
	cfg.WebUIBaseURL = extractBaseURL(cfg.DiscordRedirectURI)

	var err error
	if cfg.PointsMaxKm, err = getEnvFloat("POINTS_MAX_KM", geoscore.DefaultMaxKm); err != nil {
		return nil, err
	}
	if cfg.PointsMaxKm <= 0 {
		return nil, fmt.Errorf("POINTS_MAX_KM must be positive, got %v", cfg.PointsMaxKm)
	}
	if cfg.SearchSort, err = catalog.ParseSortPolicy(os.Getenv("SEARCH_SORT")); err != nil {
		return nil, fmt.Errorf("SEARCH_SORT: %w", err)
	}
	if cfg.RequirePosition, err = getEnvBool("REQUIRE_POSITION", true); err != nil {
		return nil, err
	}
	if v := os.Getenv("SESSION_IDLE_TTL"); v == "0" {
		cfg.SessionIdleTTL = 0
	} else if cfg.SessionIdleTTL, err = getEnvDuration("SESSION_IDLE_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.GeocodeTimeout, err = getEnvDuration("GEOCODE_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.GeocodeLimit, err = getEnvInt("GEOCODE_LIMIT", geocode.DefaultLimit); err != nil {
		return nil, err
	}
	if cfg.GeocodeLimit <= 0 {
		return nil, fmt.Errorf("GEOCODE_LIMIT must be positive, got %d", cfg.GeocodeLimit)
	}
	if cfg.GeocodeMinQuery, err = getEnvInt("GEOCODE_MIN_QUERY", geocode.MinQueryLength); err != nil {
		return nil, err
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", cfg.LogLevel)
	}

	// OAuth login needs both halves of the client credentials.
	if (cfg.DiscordClientID == "") != (cfg.DiscordClientSecret == "") {
		return nil, fmt.Errorf("DISCORD_CLIENT_ID and DISCORD_CLIENT_SECRET must be set together")
	}

	return cfg, nil
}

// OAuthEnabled reports whether Discord login is configured.
func (c *Config) OAuthEnabled() bool {
	return c.DiscordClientID != "" && c.DiscordClientSecret != ""
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", key, v)
	}
	return f, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	return b, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func extractBaseURL(redirectURI string) string {
	// e.g., "http://localhost:3000/api/auth/callback" -> "http://localhost:3000"
	parsed, err := url.Parse(redirectURI)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "http://localhost:3000"
	}

	return fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
}

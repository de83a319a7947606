package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/02loveslollipop/herbscan-dashboard/services/dashboard/herbscan"
)

const (
	defaultPort           = 8080
	defaultRequestTimeout = 15 * time.Second
	defaultRecentLimit    = 5
	defaultTimezone       = "UTC"
	defaultLogLevel       = "info"
)

// Config holds environment-driven settings for the dashboard service.
type Config struct {
	APIBaseURL     string
	Port           int
	RequestTimeout time.Duration
	Timezone       string
	Location       *time.Location
	RecentLimit    int
	DatabaseURL    string
	BearerToken    string
	LogLevel       string
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		APIBaseURL:     herbscan.DefaultBaseURL,
		Port:           defaultPort,
		RequestTimeout: defaultRequestTimeout,
		Timezone:       defaultTimezone,
		RecentLimit:    defaultRecentLimit,
		LogLevel:       defaultLogLevel,
	}

	if v := strings.TrimSpace(os.Getenv("HERBSCAN_API_BASE_URL")); v != "" {
		cfg.APIBaseURL = v
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid PORT: %s", portStr)
		}
	} else if portStr := os.Getenv("DASHBOARD_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid DASHBOARD_PORT: %s", portStr)
		}
	}

	if v := strings.TrimSpace(os.Getenv("HERBSCAN_REQUEST_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("invalid HERBSCAN_REQUEST_TIMEOUT: %s", v)
		}
		cfg.RequestTimeout = d
	}

	if v := strings.TrimSpace(os.Getenv("DASHBOARD_TIMEZONE")); v != "" {
		cfg.Timezone = v
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return cfg, fmt.Errorf("invalid DASHBOARD_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if v := strings.TrimSpace(os.Getenv("DASHBOARD_RECENT_LIMIT")); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 {
			cfg.RecentLimit = limit
		} else {
			return cfg, fmt.Errorf("invalid DASHBOARD_RECENT_LIMIT: %s", v)
		}
	}

	if v := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))); v != "" {
		switch v {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = v
		default:
			return cfg, fmt.Errorf("invalid LOG_LEVEL: %s", v)
		}
	}

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.BearerToken = os.Getenv("API_BEARER_TOKEN")

	return cfg, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

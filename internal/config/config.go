package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ModeLocal = "local"
	ModeProxy = "proxy"
)

// Config contains all runtime settings for the task service.
type Config struct {
	Mode             string
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	UpstreamURL string

	DatabaseURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		Mode:             strings.ToLower(envOrDefault("APP_MODE", ModeLocal)),
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8001"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "taskrelay"),
		AllowAnyOrigin:   false,
		// Service name as seen from inside the compose network.
		UpstreamURL:     strings.TrimRight(envOrDefault("UPSTREAM_URL", "http://python-server:8000"), "/"),
		DatabaseURL:     stringsTrimSpace("DATABASE_URL"),
		ShutdownTimeout: 15 * time.Second,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	switch cfg.Mode {
	case ModeLocal, ModeProxy:
	default:
		return Config{}, fmt.Errorf("invalid APP_MODE: %q (expected local|proxy)", cfg.Mode)
	}
	if _, err := cfg.Port(); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout <= 0 {
		return Config{}, fmt.Errorf("APP_SHUTDOWN_TIMEOUT must be positive")
	}
	if cfg.Mode == ModeProxy {
		u, err := url.Parse(cfg.UpstreamURL)
		if err != nil {
			return Config{}, fmt.Errorf("UPSTREAM_URL parse error: %w", err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return Config{}, fmt.Errorf("UPSTREAM_URL must be an absolute http(s) URL, got %q", cfg.UpstreamURL)
		}
	}

	return cfg, nil
}

// Port returns the numeric port of BindAddr.
func (c Config) Port() (int, error) {
	_, raw, err := net.SplitHostPort(c.BindAddr)
	if err != nil {
		return 0, fmt.Errorf("APP_BIND_ADDR parse error: %w", err)
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port < 0 || port > 65535 {
		return 0, fmt.Errorf("APP_BIND_ADDR parse error: invalid port %q", raw)
	}
	return port, nil
}

func envOrDefault(key, fallback string) string {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}

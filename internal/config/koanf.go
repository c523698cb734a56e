// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/pixelrelay/config.yaml",
	"/etc/pixelrelay/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Pixel: PixelConfig{
			PixelID:     "", // Empty disables both emitters
			AccessToken: "", // Empty disables the server relay only
			APIVersion:  "v21.0",
			Endpoint:    "https://graph.facebook.com",
		},
		Relay: RelayConfig{
			Timeout:            30 * time.Second,
			MaxInFlight:        64,
			RateLimitPerSecond: 50,
			RateLimitBurst:     100,
			Breaker: BreakerConfig{
				MaxRequests:  3,
				Interval:     time.Minute,
				Timeout:      2 * time.Minute,
				MinRequests:  10,
				FailureRatio: 0.6,
			},
		},
		Tracking: TrackingConfig{
			Currency:        "BDT",
			ClickIDParam:    "fbclid",
			ClickIDCookie:   "_fbc",
			BrowserIDCookie: "_fbp",
			ExternalIDKey:   "pr_external_id",
			CookieMaxAge:    365 * 24 * time.Hour,
			CookieSecure:    true,
			LoginTimeout:    2 * time.Second,
		},
		Journal: JournalConfig{
			Enabled:      true,
			Path:         "/data/journal",
			InMemory:     false,
			TTL:          72 * time.Hour,
			GCInterval:   10 * time.Minute,
			DiscardRatio: 0.5,
		},
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			Environment:     "development",
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   300,
			RateLimitWindow: time.Minute,
			MaxBodyBytes:    64 << 10, // 64KB
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file found, or "" if none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings while YAML lists arrive as slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	// Ad platform credentials
	"fb_pixel_id":        "pixel.pixel_id",
	"fb_access_token":    "pixel.access_token",
	"fb_app_id":          "pixel.app_id",
	"fb_app_secret":      "pixel.app_secret",
	"fb_test_event_code": "pixel.test_event_code",
	"fb_api_version":     "pixel.api_version",
	"fb_graph_endpoint":  "pixel.endpoint",

	// Relay mappings
	"relay_timeout":               "relay.timeout",
	"relay_max_in_flight":         "relay.max_in_flight",
	"relay_rate_limit":            "relay.rate_limit_per_second",
	"relay_rate_burst":            "relay.rate_limit_burst",
	"relay_breaker_max_requests":  "relay.breaker.max_requests",
	"relay_breaker_interval":      "relay.breaker.interval",
	"relay_breaker_timeout":       "relay.breaker.timeout",
	"relay_breaker_min_requests":  "relay.breaker.min_requests",
	"relay_breaker_failure_ratio": "relay.breaker.failure_ratio",

	// Tracking mappings
	"tracking_currency":          "tracking.currency",
	"tracking_click_id_param":    "tracking.click_id_param",
	"tracking_click_id_cookie":   "tracking.click_id_cookie",
	"tracking_browser_id_cookie": "tracking.browser_id_cookie",
	"tracking_external_id_key":   "tracking.external_id_key",
	"cookie_domain":              "tracking.cookie_domain",
	"cookie_max_age":             "tracking.cookie_max_age",
	"cookie_secure":              "tracking.cookie_secure",
	"login_timeout":              "tracking.login_timeout",
	"await_login":                "tracking.await_login",
	"trust_forwarded_proto":      "tracking.trust_forwarded_proto",

	// Journal mappings
	"journal_enabled":       "journal.enabled",
	"journal_path":          "journal.path",
	"journal_in_memory":     "journal.in_memory",
	"journal_ttl":           "journal.ttl",
	"journal_gc_interval":   "journal.gc_interval",
	"journal_discard_ratio": "journal.discard_ratio",

	// Server mappings
	"http_port":             "server.port",
	"http_host":             "server.host",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"environment":           "server.environment",

	// Security mappings
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"max_body_bytes":      "security.max_body_bytes",
	"admin_token":         "security.admin_token",

	// Logging mappings
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - FB_PIXEL_ID -> pixel.pixel_id
//   - RELAY_TIMEOUT -> relay.timeout
//   - HTTP_PORT -> server.port
//
// Unmapped variables return "" and are skipped, so unrelated environment
// variables cannot pollute the config.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package config

import "time"

// Config holds all application configuration.
//
// Loading order (Koanf v2):
//  1. Defaults: built-in values from defaultConfig
//  2. Config file: optional YAML file (config.yaml or CONFIG_PATH)
//  3. Environment variables: override any setting
//
// Missing pixel credentials are not an error. The pipeline degrades to a
// noop pixel and a relay that reports NOT_CONFIGURED for every event.
//
// Config is immutable after Load and safe for concurrent reads.
type Config struct {
	Pixel    PixelConfig    `koanf:"pixel"`
	Relay    RelayConfig    `koanf:"relay"`
	Tracking TrackingConfig `koanf:"tracking"`
	Journal  JournalConfig  `koanf:"journal"`
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// PixelConfig holds the ad platform credentials shared by both emitters.
//
// Environment Variables:
//   - FB_PIXEL_ID: pixel / dataset id (browser and server)
//   - FB_ACCESS_TOKEN: Conversions API access token (server only)
//   - FB_APP_ID, FB_APP_SECRET: app credentials for the login check
//   - FB_TEST_EVENT_CODE: routes relayed events to the platform's test tool
//   - FB_API_VERSION: Graph API version (default: v21.0)
//   - FB_GRAPH_ENDPOINT: Graph API base URL
type PixelConfig struct {
	PixelID       string `koanf:"pixel_id"`
	AccessToken   string `koanf:"access_token"`
	AppID         string `koanf:"app_id"`
	AppSecret     string `koanf:"app_secret"`
	TestEventCode string `koanf:"test_event_code"`
	APIVersion    string `koanf:"api_version"`
	Endpoint      string `koanf:"endpoint"`
}

// BrowserConfigured reports whether the browser pixel can run.
func (p PixelConfig) BrowserConfigured() bool {
	return p.PixelID != ""
}

// ServerConfigured reports whether the server relay can run.
func (p PixelConfig) ServerConfigured() bool {
	return p.PixelID != "" && p.AccessToken != ""
}

// RelayConfig tunes the outbound Conversions API path.
type RelayConfig struct {
	Timeout     time.Duration `koanf:"timeout"`
	MaxInFlight int           `koanf:"max_in_flight"`

	// RateLimitPerSecond of zero disables outbound limiting.
	RateLimitPerSecond float64 `koanf:"rate_limit_per_second"`
	RateLimitBurst     int     `koanf:"rate_limit_burst"`

	Breaker BreakerConfig `koanf:"breaker"`
}

// BreakerConfig holds the circuit breaker knobs for the relay.
type BreakerConfig struct {
	MaxRequests  uint32        `koanf:"max_requests"`
	Interval     time.Duration `koanf:"interval"`
	Timeout      time.Duration `koanf:"timeout"`
	MinRequests  uint32        `koanf:"min_requests"`
	FailureRatio float64       `koanf:"failure_ratio"`
}

// TrackingConfig controls envelope defaults and identifier resolution.
type TrackingConfig struct {
	// Currency is the default ISO 4217 code for customData.currency.
	Currency string `koanf:"currency"`

	ClickIDParam    string `koanf:"click_id_param"`
	ClickIDCookie   string `koanf:"click_id_cookie"`
	BrowserIDCookie string `koanf:"browser_id_cookie"`
	ExternalIDKey   string `koanf:"external_id_key"`

	CookieDomain string        `koanf:"cookie_domain"`
	CookieMaxAge time.Duration `koanf:"cookie_max_age"`
	CookieSecure bool          `koanf:"cookie_secure"`

	LoginTimeout        time.Duration `koanf:"login_timeout"`
	TrustForwardedProto bool          `koanf:"trust_forwarded_proto"`

	// AwaitLogin makes HTTP ingress wait for the login check before building.
	AwaitLogin bool `koanf:"await_login"`
}

// JournalConfig holds the relay outcome journal settings.
type JournalConfig struct {
	Enabled      bool          `koanf:"enabled"`
	Path         string        `koanf:"path"`
	InMemory     bool          `koanf:"in_memory"`
	TTL          time.Duration `koanf:"ttl"`
	GCInterval   time.Duration `koanf:"gc_interval"`
	DiscardRatio float64       `koanf:"discard_ratio"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging, production
}

// SecurityConfig holds ingress protection settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	MaxBodyBytes      int64         `koanf:"max_body_bytes"`

	// AdminToken enables the relay inspection endpoint when set.
	AdminToken string `koanf:"admin_token"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`

	// Caller includes file and line in log entries.
	Caller bool `koanf:"caller"`
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, then validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return joinHostPort(c.Server.Host, c.Server.Port)
}

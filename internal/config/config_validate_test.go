// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"token without pixel", func(c *Config) { c.Pixel.AccessToken = "tok" }, "FB_PIXEL_ID"},
		{"app id without secret", func(c *Config) { c.Pixel.AppID = "42" }, "FB_APP_SECRET"},
		{"bad api version", func(c *Config) { c.Pixel.APIVersion = "21" }, "FB_API_VERSION"},
		{"endpoint with path", func(c *Config) { c.Pixel.Endpoint = "https://graph.facebook.com/v21.0" }, "remove path"},
		{"endpoint scheme", func(c *Config) { c.Pixel.Endpoint = "ftp://graph.facebook.com" }, "scheme"},
		{"placeholder token in production", func(c *Config) {
			c.Server.Environment = "production"
			c.Pixel.PixelID = "1"
			c.Pixel.AccessToken = "CHANGEME"
		}, "placeholder"},
		{"zero relay timeout", func(c *Config) { c.Relay.Timeout = 0 }, "RELAY_TIMEOUT"},
		{"burst missing", func(c *Config) { c.Relay.RateLimitBurst = 0 }, "RELAY_RATE_BURST"},
		{"limiter disabled needs no burst", func(c *Config) {
			c.Relay.RateLimitPerSecond = 0
			c.Relay.RateLimitBurst = 0
		}, ""},
		{"failure ratio", func(c *Config) { c.Relay.Breaker.FailureRatio = 1.5 }, "FAILURE_RATIO"},
		{"currency", func(c *Config) { c.Tracking.Currency = "TK" }, "TRACKING_CURRENCY"},
		{"login timeout", func(c *Config) { c.Tracking.LoginTimeout = 0 }, "LOGIN_TIMEOUT"},
		{"journal path", func(c *Config) { c.Journal.Path = "" }, "JOURNAL_PATH"},
		{"journal in memory needs no path", func(c *Config) {
			c.Journal.Path = ""
			c.Journal.InMemory = true
		}, ""},
		{"journal disabled skips checks", func(c *Config) {
			c.Journal.Enabled = false
			c.Journal.TTL = 0
		}, ""},
		{"journal ttl", func(c *Config) { c.Journal.TTL = time.Second }, "JOURNAL_TTL"},
		{"port", func(c *Config) { c.Server.Port = 70000 }, "HTTP_PORT"},
		{"environment", func(c *Config) { c.Server.Environment = "prod" }, "ENVIRONMENT"},
		{"rate limit", func(c *Config) { c.Security.RateLimitReqs = 0 }, "RATE_LIMIT_REQUESTS"},
		{"rate limit disabled", func(c *Config) {
			c.Security.RateLimitDisabled = true
			c.Security.RateLimitReqs = 0
		}, ""},
		{"short admin token", func(c *Config) { c.Security.AdminToken = "short" }, "ADMIN_TOKEN"},
		{"placeholder admin token", func(c *Config) {
			c.Security.AdminToken = "REPLACE-THIS-WITH-A-LONG-RANDOM-VALUE"
		}, "placeholder"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigHelpers(t *testing.T) {
	cfg := defaultConfig()
	if got := cfg.Addr(); got != "0.0.0.0:8080" {
		t.Errorf("Addr() = %q", got)
	}
	if !cfg.HasWildcardCORS() {
		t.Error("default CORS should be wildcard")
	}
	cfg.Security.CORSOrigins = []string{"https://example.com"}
	if cfg.HasWildcardCORS() {
		t.Error("explicit origins should not be wildcard")
	}
	if cfg.IsProduction() {
		t.Error("default environment is development")
	}
}

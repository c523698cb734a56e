// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Validate checks that the configuration is usable. Absent credentials are
// valid: they degrade the emitters instead of failing startup.
func (c *Config) Validate() error {
	if err := c.validatePixel(); err != nil {
		return err
	}

	if err := c.validateRelay(); err != nil {
		return err
	}

	if err := c.validateTracking(); err != nil {
		return err
	}

	if err := c.validateJournal(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	return c.validateLogging()
}

var (
	apiVersionPattern = regexp.MustCompile(`^v\d+\.\d+$`)
	currencyPattern   = regexp.MustCompile(`^[A-Z]{3}$`)
)

func (c *Config) validatePixel() error {
	if err := validateHTTPURL(c.Pixel.Endpoint, "FB_GRAPH_ENDPOINT"); err != nil {
		return err
	}
	if !apiVersionPattern.MatchString(c.Pixel.APIVersion) {
		return fmt.Errorf("FB_API_VERSION must look like v21.0, got: %s", c.Pixel.APIVersion)
	}
	if c.Pixel.AccessToken != "" && c.Pixel.PixelID == "" {
		return fmt.Errorf("FB_ACCESS_TOKEN is set but FB_PIXEL_ID is empty")
	}
	if c.Pixel.AppID != "" && c.Pixel.AppSecret == "" {
		return fmt.Errorf("FB_APP_SECRET is required when FB_APP_ID is set")
	}
	if c.IsProduction() && containsPlaceholder(c.Pixel.AccessToken) {
		return fmt.Errorf("FB_ACCESS_TOKEN contains a placeholder value")
	}
	return nil
}

func (c *Config) validateRelay() error {
	if c.Relay.Timeout <= 0 {
		return fmt.Errorf("RELAY_TIMEOUT must be positive")
	}
	if c.Relay.MaxInFlight < 1 {
		return fmt.Errorf("RELAY_MAX_IN_FLIGHT must be at least 1")
	}
	if c.Relay.RateLimitPerSecond < 0 {
		return fmt.Errorf("RELAY_RATE_LIMIT must not be negative")
	}
	if c.Relay.RateLimitPerSecond > 0 && c.Relay.RateLimitBurst < 1 {
		return fmt.Errorf("RELAY_RATE_BURST must be at least 1 when RELAY_RATE_LIMIT is set")
	}
	return c.validateBreaker()
}

func (c *Config) validateBreaker() error {
	b := c.Relay.Breaker
	if b.FailureRatio <= 0 || b.FailureRatio > 1 {
		return fmt.Errorf("RELAY_BREAKER_FAILURE_RATIO must be in (0, 1]")
	}
	if b.MaxRequests < 1 {
		return fmt.Errorf("RELAY_BREAKER_MAX_REQUESTS must be at least 1")
	}
	if b.Timeout <= 0 {
		return fmt.Errorf("RELAY_BREAKER_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateTracking() error {
	if !currencyPattern.MatchString(c.Tracking.Currency) {
		return fmt.Errorf("TRACKING_CURRENCY must be a three-letter uppercase ISO 4217 code")
	}
	if strings.TrimSpace(c.Tracking.ClickIDParam) == "" {
		return fmt.Errorf("TRACKING_CLICK_ID_PARAM is required")
	}
	if strings.TrimSpace(c.Tracking.BrowserIDCookie) == "" {
		return fmt.Errorf("TRACKING_BROWSER_ID_COOKIE is required")
	}
	if strings.TrimSpace(c.Tracking.ExternalIDKey) == "" {
		return fmt.Errorf("TRACKING_EXTERNAL_ID_KEY is required")
	}
	if c.Tracking.LoginTimeout <= 0 {
		return fmt.Errorf("LOGIN_TIMEOUT must be positive")
	}
	if c.Tracking.CookieMaxAge < 0 {
		return fmt.Errorf("COOKIE_MAX_AGE must not be negative")
	}
	return nil
}

func (c *Config) validateJournal() error {
	if !c.Journal.Enabled {
		return nil
	}
	if !c.Journal.InMemory && c.Journal.Path == "" {
		return fmt.Errorf("JOURNAL_PATH is required unless JOURNAL_IN_MEMORY is set")
	}
	if c.Journal.TTL < time.Minute {
		return fmt.Errorf("JOURNAL_TTL must be at least 1m")
	}
	if c.Journal.GCInterval < time.Minute {
		return fmt.Errorf("JOURNAL_GC_INTERVAL must be at least 1m")
	}
	if c.Journal.DiscardRatio <= 0 || c.Journal.DiscardRatio >= 1 {
		return fmt.Errorf("JOURNAL_DISCARD_RATIO must be in (0, 1)")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if !validEnvironments[c.Server.Environment] {
		return fmt.Errorf("ENVIRONMENT must be one of: development, staging, production")
	}
	return nil
}

var validEnvironments = map[string]bool{
	"development": true,
	"staging":     true,
	"production":  true,
}

// Rate limit constants
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour

	minAdminTokenLength = 32
)

func (c *Config) validateSecurity() error {
	if err := c.validateRateLimits(); err != nil {
		return err
	}
	if c.Security.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	return c.validateAdminToken()
}

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

func (c *Config) validateAdminToken() error {
	token := c.Security.AdminToken
	if token == "" {
		return nil
	}
	if len(token) < minAdminTokenLength {
		return fmt.Errorf("ADMIN_TOKEN must be at least %d characters", minAdminTokenLength)
	}
	if containsPlaceholder(token) {
		return fmt.Errorf("ADMIN_TOKEN contains a placeholder value")
	}
	return nil
}

// HasWildcardCORS reports whether any origin may call the ingress.
func (c *Config) HasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// validLogLevels defines the allowed log levels
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats defines the allowed log formats
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// placeholderPatterns are values that indicate a secret was never filled in.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_TOKEN",
	"PLACEHOLDER",
	"EXAMPLE",
}

func containsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upper, pattern) {
			return true
		}
	}
	return false
}

// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

/*
Package config provides centralized configuration management for PixelRelay.

Configuration is loaded in three layers with Koanf v2, later layers winning:

 1. Built-in defaults
 2. An optional YAML file: CONFIG_PATH, else config.yaml in the working
    directory, else /etc/pixelrelay/config.yaml
 3. Environment variables from an explicit mapping table

# Environment Variables

Ad platform (PixelConfig):
  - FB_PIXEL_ID: pixel id; empty selects the noop pixel
  - FB_ACCESS_TOKEN: Conversions API token; empty makes every relay NOT_CONFIGURED
  - FB_APP_ID, FB_APP_SECRET: enable the signed-request login check
  - FB_TEST_EVENT_CODE: test event code forwarded with every relay

Relay (RelayConfig):
  - RELAY_TIMEOUT: per-call timeout (default: 30s)
  - RELAY_MAX_IN_FLIGHT: concurrent relay tasks (default: 64)
  - RELAY_RATE_LIMIT, RELAY_RATE_BURST: outbound token bucket (default: 50/s, 100)
  - RELAY_BREAKER_*: circuit breaker thresholds

Tracking (TrackingConfig):
  - TRACKING_CURRENCY: default currency (default: BDT)
  - COOKIE_DOMAIN, COOKIE_MAX_AGE, COOKIE_SECURE: identifier cookies
  - LOGIN_TIMEOUT, AWAIT_LOGIN, TRUST_FORWARDED_PROTO: login id resolution

Journal (JournalConfig):
  - JOURNAL_ENABLED, JOURNAL_PATH, JOURNAL_IN_MEMORY, JOURNAL_TTL
  - JOURNAL_GC_INTERVAL, JOURNAL_DISCARD_RATIO: value log GC

Server and security:
  - HTTP_HOST, HTTP_PORT, HTTP_TIMEOUT, HTTP_SHUTDOWN_TIMEOUT, ENVIRONMENT
  - CORS_ORIGINS: comma-separated origins (default: *)
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT
  - MAX_BODY_BYTES: ingress body limit (default: 64KB)
  - ADMIN_TOKEN: enables GET /api/v1/relays/{eventID}

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Usage

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
	if !cfg.Pixel.ServerConfigured() {
	    logging.Warn().Msg("Conversions API relay disabled")
	}
*/
package config

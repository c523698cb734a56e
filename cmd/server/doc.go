// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

/*
Package main is the entry point for the PixelRelay server.

PixelRelay accepts business events from a website (a visa approval, a
WhatsApp click, a booked consultation), turns each into one conversion
envelope with a single event id, and emits it twice: as pixel commands the
browser replays through its own pixel library, and as a server-side
Conversions API call. The shared event id lets the ad platform deduplicate
the pair.

# Startup

  1. Configuration: koanf layers defaults, config.yaml and environment
  2. Logging: zerolog, with an slog bridge for the supervisor
  3. Relay journal: BadgerDB (optional, JOURNAL_ENABLED)
  4. Server relay: HTTP client behind gobreaker and a rate limiter
  5. Identity resolver, envelope builder, dispatcher
  6. HTTP API: chi router with CORS, httprate and Prometheus middleware
  7. Supervisor tree: HTTP server and journal GC under suture v4

Missing pixel credentials do not stop the server. Browser commands are
skipped without FB_PIXEL_ID and relays fail fast without FB_ACCESS_TOKEN;
both conditions are logged at startup and reported by /api/v1/health/ready.

# Configuration

	FB_PIXEL_ID          Pixel (dataset) id
	FB_ACCESS_TOKEN      Conversions API token
	FB_APP_ID            App id for the signed login cookie (optional)
	FB_APP_SECRET        App secret for the signed login cookie
	FB_TEST_EVENT_CODE   Routes relays to the Events Manager test tab
	TRACKING_CURRENCY    ISO 4217 currency for event values (default BDT)
	CORS_ORIGINS         Comma-separated site origins
	ADMIN_TOKEN          Enables GET /api/v1/relays/{eventID}
	JOURNAL_ENABLED      Records relay outcomes in BadgerDB (default true)
	HTTP_PORT            Listen port (default 8080)

# Shutdown

On SIGINT or SIGTERM readiness starts failing, the HTTP server drains, and
relays already in flight get HTTP_SHUTDOWN_TIMEOUT to finish before the journal
is closed.

	export FB_PIXEL_ID=123456789012345
	export FB_ACCESS_TOKEN=EAAB...
	export CORS_ORIGINS=https://www.example.com
	./pixelrelay
*/
package main

// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

/*
Package metrics provides Prometheus metrics for the conversion pipeline.

# Overview

The package provides metrics for:
  - dispatched and rejected business events
  - server relay outcomes, latency and in-flight tasks
  - browser pixel commands
  - relay journal writes and garbage collection
  - circuit breaker state transitions
  - HTTP request latency and throughput

# Metrics Endpoint

Metrics are exposed at /metrics in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

Dispatch:
  - events_dispatched_total{business_event, platform_event}
  - events_invalid_total

Relay:
  - relay_requests_total{outcome, error_code}
  - relay_request_duration_seconds{outcome}
  - relay_in_flight

Pixel:
  - pixel_commands_total{result}: queued or skipped

Journal:
  - journal_writes_total{result}
  - journal_gc_runs_total{result}

All metrics are registered on the default registry through promauto and are
safe for concurrent use.
*/
package metrics

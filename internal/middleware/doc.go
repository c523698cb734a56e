// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

// Package middleware provides HTTP middleware shared by the API router.
//
//   - RequestID: request and correlation ids for logging
//   - PrometheusMetrics: request count, latency and in-flight gauges
//
// Both wrap http.HandlerFunc; the api package adapts them to chi.
package middleware

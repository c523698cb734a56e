// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Dispatch Metrics
	EventsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_dispatched_total",
			Help: "Total number of business events dispatched",
		},
		[]string{"business_event", "platform_event"},
	)

	EventsInvalid = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_invalid_total",
			Help: "Total number of events rejected for an unrecognized event type",
		},
	)

	// Server Relay Metrics
	RelayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_requests_total",
			Help: "Total number of server relay attempts by outcome",
		},
		[]string{"outcome", "error_code"}, // outcome: "success", "failure"
	)

	RelayDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_request_duration_seconds",
			Help:    "Duration of Conversions API calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"outcome"},
	)

	RelayInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_in_flight",
			Help: "Current number of detached relay tasks",
		},
	)

	// Browser Pixel Metrics
	PixelCommands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixel_commands_total",
			Help: "Total number of browser pixel commands",
		},
		[]string{"result"}, // "queued", "skipped"
	)

	// Relay Journal Metrics
	JournalWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journal_writes_total",
			Help: "Total number of relay journal writes",
		},
		[]string{"result"},
	)

	JournalGCRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journal_gc_runs_total",
			Help: "Total number of journal value log GC runs",
		},
		[]string{"result"}, // "rewritten", "noop", "error"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)
)

// RecordDispatch records one dispatched business event.
func RecordDispatch(businessEvent, platformEvent string) {
	EventsDispatched.WithLabelValues(businessEvent, platformEvent).Inc()
}

// RecordInvalidEvent records an event rejected for its type.
func RecordInvalidEvent() {
	EventsInvalid.Inc()
}

// RecordRelay records the outcome of one relay attempt.
func RecordRelay(success bool, errorCode string, duration time.Duration) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	RelayRequests.WithLabelValues(outcome, errorCode).Inc()
	RelayDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// TrackRelayInFlight adjusts the in-flight relay gauge.
func TrackRelayInFlight(inc bool) {
	if inc {
		RelayInFlight.Inc()
	} else {
		RelayInFlight.Dec()
	}
}

// RecordPixelCommand records a browser pixel command as queued or skipped.
func RecordPixelCommand(queued bool) {
	if queued {
		PixelCommands.WithLabelValues("queued").Inc()
		return
	}
	PixelCommands.WithLabelValues("skipped").Inc()
}

// RecordJournalWrite records a journal write.
func RecordJournalWrite(err error) {
	if err != nil {
		JournalWrites.WithLabelValues("error").Inc()
		return
	}
	JournalWrites.WithLabelValues("ok").Inc()
}

// RecordJournalGC records a value log GC run.
func RecordJournalGC(result string) {
	JournalGCRuns.WithLabelValues(result).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

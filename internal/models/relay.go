// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package models

import "time"

// Relay error codes.
const (
	ErrorCodeNotConfigured    = "NOT_CONFIGURED"
	ErrorCodeConnectionFailed = "CONNECTION_FAILED"
	ErrorCodeServerError      = "SERVER_ERROR"
	ErrorCodeRateLimited      = "RATE_LIMITED"
	ErrorCodeAuthFailed       = "AUTH_FAILED"
	ErrorCodeInvalidRequest   = "INVALID_REQUEST"
	ErrorCodeCircuitOpen      = "CIRCUIT_OPEN"
	ErrorCodeInternal         = "INTERNAL_ERROR"
)

// RelayResult is the outcome of one server relay attempt. Failures are
// reported here rather than as Go errors.
type RelayResult struct {
	Success        bool          `json:"success"`
	EventID        string        `json:"event_id"`
	EventName      string        `json:"event_name"`
	StatusCode     int           `json:"status_code,omitempty"`
	EventsReceived int           `json:"events_received,omitempty"`
	FBTraceID      string        `json:"fbtrace_id,omitempty"`
	Error          string        `json:"error,omitempty"`
	ErrorCode      string        `json:"error_code,omitempty"`
	Duration       time.Duration `json:"duration_ns"`
	CompletedAt    time.Time     `json:"completed_at"`
}

// Failed builds a failure result for the given envelope.
func Failed(env *EventEnvelope, code, message string) RelayResult {
	return RelayResult{
		EventID:     env.EventID,
		EventName:   env.EventName,
		Error:       message,
		ErrorCode:   code,
		CompletedAt: time.Now(),
	}
}

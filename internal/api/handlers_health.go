// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package api

import (
	"net/http"
	"time"
)

// HealthLive handles liveness probes. It only reports that the process
// serves HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]any{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness probes. Missing credentials do not make the
// service unready: events are still accepted and degrade per emitter.
// Ready fails only while the process drains for shutdown.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	resp := ReadinessResponse{
		Ready:           !h.draining.Load(),
		PixelConfigured: h.cfg.PixelConfigured,
		JournalEnabled:  h.journal != nil,
		Uptime:          time.Since(h.startTime).Seconds(),
	}
	if h.relay != nil {
		resp.RelayConfigured = h.relay.Configured()
		resp.BreakerState = h.relay.BreakerState()
	}

	rw := NewResponseWriter(w, r)
	if !resp.Ready {
		rw.writeJSON(http.StatusServiceUnavailable, APIResponse{Success: false, Data: resp, Meta: rw.meta()})
		return
	}
	rw.Success(resp)
}

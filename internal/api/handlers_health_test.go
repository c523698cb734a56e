// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package api

import (
	"net/http"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/pixelrelay/internal/emitter"
)

func TestHealthLive(t *testing.T) {
	env := newTestEnv(t, emitter.NoopPixel{}, nil)
	rec := env.do(t, http.MethodGet, "/api/v1/health/live", nil, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestHealthReady_Draining(t *testing.T) {
	env := newTestEnv(t, emitter.NewCommandPixel("123"), memJournal{})

	rec := env.do(t, http.MethodGet, "/api/v1/health/ready", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var ready ReadinessResponse
	if err := json.Unmarshal(decodeResponse(t, rec).Data, &ready); err != nil {
		t.Fatal(err)
	}
	if !ready.Ready || !ready.RelayConfigured || !ready.JournalEnabled || ready.BreakerState != "closed" {
		t.Errorf("readiness = %+v", ready)
	}

	env.handler.MarkDraining()

	rec = env.do(t, http.MethodGet, "/api/v1/health/ready", nil, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status while draining = %d, want 503", rec.Code)
	}
}

func TestRouter_JSONFallbacks(t *testing.T) {
	env := newTestEnv(t, emitter.NoopPixel{}, nil)

	rec := env.do(t, http.MethodGet, "/nope", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("not found status = %d", rec.Code)
	}
	if resp := decodeResponse(t, rec); resp.Error == nil || resp.Error.Code != ErrCodeNotFound {
		t.Errorf("not found error = %+v", resp.Error)
	}

	rec = env.do(t, http.MethodDelete, "/api/v1/events/types", nil, nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("method not allowed status = %d", rec.Code)
	}
}

func TestRouter_RequestIDEchoed(t *testing.T) {
	env := newTestEnv(t, emitter.NoopPixel{}, nil)
	rec := env.do(t, http.MethodGet, "/api/v1/health/live", nil, map[string]string{"X-Request-ID": "req-abc"})

	if got := rec.Header().Get("X-Request-ID"); got != "req-abc" {
		t.Errorf("X-Request-ID = %q", got)
	}
	if resp := decodeResponse(t, rec); !resp.Success {
		t.Error("live should succeed")
	}
}

// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package api

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/tomtom215/pixelrelay/internal/dispatch"
	"github.com/tomtom215/pixelrelay/internal/identity"
	"github.com/tomtom215/pixelrelay/internal/models"
)

// DefaultMaxBodyBytes bounds event request bodies.
const DefaultMaxBodyBytes = 64 << 10

// EventDispatcher routes decoded events into both emission paths.
type EventDispatcher interface {
	DispatchRaw(ctx context.Context, name string, data map[string]any, source string, info dispatch.RequestInfo) (*dispatch.Outcome, error)
}

// RelayStatus reports the server relay's health.
type RelayStatus interface {
	Configured() bool
	BreakerState() string
}

// RelayJournal looks up journaled relay outcomes.
type RelayJournal interface {
	Get(ctx context.Context, eventID string) (*models.RelayResult, error)
}

// HandlerConfig holds request-handling settings.
type HandlerConfig struct {
	Cookies         identity.CookieConfig
	AwaitLogin      bool
	MaxBodyBytes    int64
	PixelConfigured bool
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_events.go: event ingress and catalogue
//   - handlers_relays.go: relay journal inspection
//   - handlers_health.go: liveness and readiness probes
type Handler struct {
	dispatcher EventDispatcher
	relay      RelayStatus
	journal    RelayJournal // nil when the journal is disabled
	cfg        HandlerConfig
	startTime  time.Time
	draining   atomic.Bool
}

// NewHandler creates an API handler. journal may be nil.
func NewHandler(dispatcher EventDispatcher, relay RelayStatus, journal RelayJournal, cfg HandlerConfig) *Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handler{
		dispatcher: dispatcher,
		relay:      relay,
		journal:    journal,
		cfg:        cfg,
		startTime:  time.Now(),
	}
}

// MarkDraining makes the readiness probe fail so load balancers stop routing
// new events while in-flight relays finish.
func (h *Handler) MarkDraining() {
	h.draining.Store(true)
}

// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package api

import (
	"github.com/tomtom215/pixelrelay/internal/emitter"
	"github.com/tomtom215/pixelrelay/internal/envelope"
)

// EventRequest is the body of POST /api/v1/events.
type EventRequest struct {
	Event     string         `json:"event" validate:"required,eventname"`
	Source    string         `json:"source" validate:"max=64"`
	EventID   string         `json:"eventId" validate:"omitempty,eventid"`
	SourceURL string         `json:"sourceUrl" validate:"omitempty,http_url,max=2048"`
	Data      map[string]any `json:"data"`
}

// payload merges the top-level eventId and sourceUrl into the event data.
// Values already present in data win.
func (req *EventRequest) payload() map[string]any {
	data := make(map[string]any, len(req.Data)+2)
	for k, v := range req.Data {
		data[k] = v
	}
	if _, ok := data["eventId"]; !ok && req.EventID != "" {
		data["eventId"] = req.EventID
	}
	if _, ok := data["sourceUrl"]; !ok && req.SourceURL != "" {
		data["sourceUrl"] = req.SourceURL
	}
	return data
}

// EventResponse is returned for every recognized event, whatever the relay
// outcome. The browser replays Pixel through its own pixel library.
type EventResponse struct {
	EventID   string                 `json:"event_id"`
	EventName string                 `json:"event_name"`
	Pixel     []emitter.PixelCommand `json:"pixel"`
}

// EventTypesResponse lists the recognized business events.
type EventTypesResponse struct {
	Events   []envelope.Mapping `json:"events"`
	Fallback string             `json:"fallback_platform_event"`
}

// ReadinessResponse reports which emission paths are configured.
type ReadinessResponse struct {
	Ready           bool    `json:"ready"`
	PixelConfigured bool    `json:"pixel_configured"`
	RelayConfigured bool    `json:"relay_configured"`
	JournalEnabled  bool    `json:"journal_enabled"`
	BreakerState    string  `json:"breaker_state,omitempty"`
	Uptime          float64 `json:"uptime_seconds"`
}

// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/pixelrelay/internal/journal"
	"github.com/tomtom215/pixelrelay/internal/logging"
)

// RelayOutcome returns the journaled relay result for an event id.
func (h *Handler) RelayOutcome(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.journal == nil {
		rw.ServiceUnavailable("Relay journal is disabled")
		return
	}

	eventID := chi.URLParam(r, "eventID")
	if eventID == "" {
		rw.BadRequest("eventID is required")
		return
	}

	result, err := h.journal.Get(r.Context(), eventID)
	switch {
	case errors.Is(err, journal.ErrNotFound):
		rw.NotFound("No relay recorded for this event id")
	case err != nil:
		logging.Ctx(r.Context()).Error().Err(err).Str("event_id", eventID).Msg("Journal lookup failed")
		rw.InternalError("Failed to read relay journal")
	default:
		rw.Success(result)
	}
}

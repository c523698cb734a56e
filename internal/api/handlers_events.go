// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/pixelrelay/internal/dispatch"
	"github.com/tomtom215/pixelrelay/internal/emitter"
	"github.com/tomtom215/pixelrelay/internal/envelope"
	"github.com/tomtom215/pixelrelay/internal/identity"
	"github.com/tomtom215/pixelrelay/internal/logging"
	"github.com/tomtom215/pixelrelay/internal/validation"
)

// TrackEvent accepts one business event and dispatches it with a command
// queue attached, so the response carries the pixel commands for the browser.
//
// The response is 202 for every recognized event: the relay outcome is not
// known when the response is written and never changes it.
func (h *Handler) TrackEvent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			rw.Error(http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "Request body too large")
			return
		}
		rw.ValidationError("Request body must be a JSON object", nil)
		return
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	ctx, queue := emitter.WithCommandQueue(r.Context())
	info := dispatch.RequestInfo{
		Request:    r,
		Stores:     identity.NewCookieStores(w, r, h.cfg.Cookies),
		AwaitLogin: h.cfg.AwaitLogin,
	}

	out, err := h.dispatcher.DispatchRaw(ctx, req.Event, req.payload(), req.Source, info)
	if err != nil {
		if errors.Is(err, dispatch.ErrInvalidEventType) {
			rw.ErrorWithDetails(http.StatusBadRequest, ErrCodeInvalidEventType,
				"Unrecognized event type", map[string]string{"event": req.Event})
			return
		}
		logging.Ctx(ctx).Error().Err(err).Str("event", req.Event).Msg("Dispatch failed")
		rw.InternalError("Failed to dispatch event")
		return
	}

	rw.Accepted(EventResponse{
		EventID:   out.Envelope.EventID,
		EventName: out.Envelope.EventName,
		Pixel:     queue.Commands(),
	})
}

// EventTypes lists the recognized business events and their platform names.
func (h *Handler) EventTypes(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(EventTypesResponse{
		Events:   envelope.Catalogue(),
		Fallback: envelope.FallbackPlatformEvent,
	})
}

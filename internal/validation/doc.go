// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

// Package validation validates ingress request structs with
// go-playground/validator v10.
//
// A single validator instance is shared process-wide so struct metadata is
// cached once. Two custom tags are registered:
//
//   - eventname: lowercase snake_case business event name
//   - eventid: caller-supplied event id (letters, digits, _ . : -)
//
// Failures convert to the API error body with code VALIDATION_FAILED:
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	    return
//	}
package validation

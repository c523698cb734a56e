// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package models

// User data field keys as understood by the ad platform.
const (
	FieldEmail     = "em"
	FieldPhone     = "ph"
	FieldFirstName = "fn"
	FieldLastName  = "ln"
	FieldCity      = "ct"
	FieldState     = "st"
	FieldCountry   = "country"
	FieldZip       = "zp"

	FieldExternalID = "external_id"
	FieldClickID    = "fbc"
	FieldBrowserID  = "fbp"
	FieldLoginID    = "fb_login_id"

	// Server-only fields, added by the relay from the request context.
	FieldClientIP        = "client_ip_address"
	FieldClientUserAgent = "client_user_agent"
)

// Custom data keys present on every envelope.
const (
	CustomCurrency = "currency"
	CustomValue    = "value"
)

// NotSpecified is substituted for optional business fields the caller omitted.
const NotSpecified = "not_specified"

// HashedUserData maps platform field keys to either a lowercase hex SHA-256
// digest (PII fields) or a clear token (attribution fields).
type HashedUserData map[string]string

// Set stores value under key. Empty values are never stored.
func (h HashedUserData) Set(key, value string) {
	if value == "" {
		return
	}
	h[key] = value
}

// Clone returns an independent copy.
func (h HashedUserData) Clone() HashedUserData {
	out := make(HashedUserData, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// BrowserVisible returns the fields that may be handed to the browser pixel.
// Server-only request metadata is excluded.
func (h HashedUserData) BrowserVisible() HashedUserData {
	out := h.Clone()
	delete(out, FieldClientIP)
	delete(out, FieldClientUserAgent)
	return out
}

// CustomData is the flat mapping of scalar business attributes sent with an
// event. It always carries CustomCurrency and CustomValue.
type CustomData map[string]any

// Clone returns an independent shallow copy.
func (c CustomData) Clone() CustomData {
	out := make(CustomData, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// EventEnvelope is the single description of one business event occurrence.
// Both emitters consume the same envelope, so EventID is the deduplication key.
type EventEnvelope struct {
	EventName  string         `json:"event_name"`
	EventID    string         `json:"event_id"`
	OccurredAt int64          `json:"event_time"`
	UserData   HashedUserData `json:"user_data"`
	CustomData CustomData     `json:"custom_data"`
	SourceURL  string         `json:"event_source_url,omitempty"`

	// BusinessName is the caller's event name prior to platform translation.
	BusinessName string `json:"-"`
}

// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package models

// AttributionContext holds the ad-attribution identifiers known for a visitor.
// An empty string means the identifier is unknown.
type AttributionContext struct {
	// ClickID is the formatted click identifier (fb.1.<unix_ms>.<fbclid>).
	ClickID string `json:"fbc,omitempty"`

	// BrowserID is the first-party browser cookie value.
	BrowserID string `json:"fbp,omitempty"`

	// ExternalID is the stable per-visitor token minted by this system.
	ExternalID string `json:"external_id,omitempty"`

	// LoginID is the platform login user id, only ever set over a secure transport.
	LoginID string `json:"fb_login_id,omitempty"`
}

// Merge returns a copy of a where every non-empty field of preferred wins.
func (a AttributionContext) Merge(preferred AttributionContext) AttributionContext {
	out := a
	if preferred.ClickID != "" {
		out.ClickID = preferred.ClickID
	}
	if preferred.BrowserID != "" {
		out.BrowserID = preferred.BrowserID
	}
	if preferred.ExternalID != "" {
		out.ExternalID = preferred.ExternalID
	}
	if preferred.LoginID != "" {
		out.LoginID = preferred.LoginID
	}
	return out
}

// IsEmpty reports whether no identifier is known.
func (a AttributionContext) IsEmpty() bool {
	return a.ClickID == "" && a.BrowserID == "" && a.ExternalID == "" && a.LoginID == ""
}

// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package models

import "testing"

func TestAttributionContext_Merge(t *testing.T) {
	resolved := AttributionContext{ClickID: "fb.1.1.abc", BrowserID: "fb.1.2.xyz", ExternalID: "resolved"}
	caller := AttributionContext{ExternalID: "caller", LoginID: "42"}

	got := resolved.Merge(caller)

	if got.ClickID != "fb.1.1.abc" {
		t.Errorf("ClickID = %q, want resolved value", got.ClickID)
	}
	if got.ExternalID != "caller" {
		t.Errorf("ExternalID = %q, want caller value", got.ExternalID)
	}
	if got.LoginID != "42" {
		t.Errorf("LoginID = %q, want 42", got.LoginID)
	}
	if resolved.ExternalID != "resolved" {
		t.Error("Merge must not modify the receiver")
	}
}

func TestAttributionContext_IsEmpty(t *testing.T) {
	if !(AttributionContext{}).IsEmpty() {
		t.Error("zero value should be empty")
	}
	if (AttributionContext{BrowserID: "x"}).IsEmpty() {
		t.Error("context with browser id should not be empty")
	}
}

func TestHashedUserData_SetSkipsEmpty(t *testing.T) {
	h := HashedUserData{}
	h.Set(FieldEmail, "")
	h.Set(FieldClickID, "fb.1.1.abc")

	if _, ok := h[FieldEmail]; ok {
		t.Error("empty value should not be stored")
	}
	if h[FieldClickID] != "fb.1.1.abc" {
		t.Errorf("fbc = %q", h[FieldClickID])
	}
}

func TestHashedUserData_BrowserVisible(t *testing.T) {
	h := HashedUserData{
		FieldBrowserID:       "fb.1.2.xyz",
		FieldClientIP:        "203.0.113.7",
		FieldClientUserAgent: "Mozilla/5.0",
	}

	visible := h.BrowserVisible()

	if _, ok := visible[FieldClientIP]; ok {
		t.Error("client IP must not be browser visible")
	}
	if _, ok := visible[FieldClientUserAgent]; ok {
		t.Error("user agent must not be browser visible")
	}
	if visible[FieldBrowserID] != "fb.1.2.xyz" {
		t.Error("attribution fields must stay browser visible")
	}
	if _, ok := h[FieldClientIP]; !ok {
		t.Error("BrowserVisible must not modify the original")
	}
}

func TestFailed(t *testing.T) {
	env := &EventEnvelope{EventName: "Lead", EventID: "evt-1"}
	r := Failed(env, ErrorCodeNotConfigured, "access token missing")

	if r.Success {
		t.Error("Failed result must not be successful")
	}
	if r.EventID != "evt-1" || r.EventName != "Lead" {
		t.Errorf("result identity = %q/%q", r.EventID, r.EventName)
	}
	if r.ErrorCode != ErrorCodeNotConfigured {
		t.Errorf("ErrorCode = %q", r.ErrorCode)
	}
	if r.CompletedAt.IsZero() {
		t.Error("CompletedAt should be set")
	}
}

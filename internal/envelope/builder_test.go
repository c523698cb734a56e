// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package envelope

import (
	"testing"
	"time"

	"github.com/tomtom215/pixelrelay/internal/models"
	"github.com/tomtom215/pixelrelay/internal/pii"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
}

func newTestBuilder() *Builder {
	return NewBuilder(WithClock(fixedClock), WithIDGenerator(func() string { return "generated-id" }))
}

func TestBuild_Defaults(t *testing.T) {
	b := newTestBuilder()

	env := b.Build("whatsapp_click", Payload{}, models.AttributionContext{}, "")

	if env.EventName != PlatformContact {
		t.Errorf("EventName = %q, want %q", env.EventName, PlatformContact)
	}
	if env.BusinessName != "whatsapp_click" {
		t.Errorf("BusinessName = %q", env.BusinessName)
	}
	if env.EventID != "generated-id" {
		t.Errorf("EventID = %q, want generated id", env.EventID)
	}
	if env.OccurredAt != fixedClock().Unix() {
		t.Errorf("OccurredAt = %d", env.OccurredAt)
	}
	if env.CustomData[models.CustomCurrency] != "BDT" {
		t.Errorf("currency = %v, want BDT", env.CustomData[models.CustomCurrency])
	}
	if v, ok := env.CustomData[models.CustomValue].(float64); !ok || v != 0 {
		t.Errorf("value = %v, want 0", env.CustomData[models.CustomValue])
	}
	if len(env.UserData) != 0 {
		t.Errorf("UserData = %v, want empty", env.UserData)
	}
}

func TestBuild_KeepsExplicitEventID(t *testing.T) {
	env := newTestBuilder().Build("lead_captured", Payload{}, models.AttributionContext{}, "caller-id")
	if env.EventID != "caller-id" {
		t.Errorf("EventID = %q, want caller-id", env.EventID)
	}
}

func TestBuild_UnknownNameFallsBackToLead(t *testing.T) {
	env := newTestBuilder().Build("something_new", Payload{}, models.AttributionContext{}, "")
	if env.EventName != PlatformLead {
		t.Errorf("EventName = %q, want Lead", env.EventName)
	}
}

func TestBuild_UserDataAndAttribution(t *testing.T) {
	attr := models.AttributionContext{
		ClickID:    "fb.1.1700000000000.abc",
		BrowserID:  "fb.1.1700000000000.123",
		ExternalID: "ext-1",
	}
	env := newTestBuilder().Build("lead_captured", Payload{
		User: pii.UserInput{Email: " Student@Example.com"},
	}, attr, "")

	if env.UserData[models.FieldEmail] != pii.Hash("student@example.com") {
		t.Errorf("em = %q", env.UserData[models.FieldEmail])
	}
	if env.UserData[models.FieldClickID] != attr.ClickID {
		t.Error("fbc must be sent in clear")
	}
	if env.UserData[models.FieldBrowserID] != attr.BrowserID {
		t.Error("fbp must be sent in clear")
	}
	if env.UserData[models.FieldExternalID] != "ext-1" {
		t.Error("external_id must be sent in clear")
	}
	if _, ok := env.UserData[models.FieldLoginID]; ok {
		t.Error("unknown login id must be absent")
	}
}

func TestBuild_CustomData(t *testing.T) {
	env := NewBuilder(WithCurrency("usd")).Build("service_fee_paid", Payload{
		Value: 5000,
		Custom: map[string]any{
			"service":  "visa",
			"count":    3,
			"value":    "should be ignored",
			"nested":   map[string]any{"x": 1},
			"verified": true,
		},
	}, models.AttributionContext{}, "")

	if env.CustomData["currency"] != "USD" {
		t.Errorf("currency = %v", env.CustomData["currency"])
	}
	if env.CustomData["value"] != float64(5000) {
		t.Errorf("value = %v", env.CustomData["value"])
	}
	if env.CustomData["count"] != float64(3) {
		t.Errorf("count = %v (%T)", env.CustomData["count"], env.CustomData["count"])
	}
	if _, ok := env.CustomData["nested"]; ok {
		t.Error("non-scalar custom values must be dropped")
	}
	if env.CustomData["verified"] != true {
		t.Error("bool custom values must be kept")
	}
}

func TestBuild_PayloadCurrencyOverride(t *testing.T) {
	env := NewBuilder().Build("payment_initiated", Payload{Currency: "eur", Value: 10}, models.AttributionContext{}, "")
	if env.CustomData["currency"] != "EUR" {
		t.Errorf("currency = %v, want EUR", env.CustomData["currency"])
	}
}

func TestNewEventID(t *testing.T) {
	a, b := NewEventID(), NewEventID()
	if a == b {
		t.Error("event ids should be unique")
	}
	if len(a) != 36 {
		t.Errorf("event id length = %d, want 36", len(a))
	}
	if a[14] != '7' {
		t.Errorf("event id %q is not a version 7 UUID", a)
	}
}

func TestCatalogue(t *testing.T) {
	cat := Catalogue()
	if len(cat) != len(taxonomy) {
		t.Fatalf("catalogue has %d rows, want %d", len(cat), len(taxonomy))
	}
	for i := 1; i < len(cat); i++ {
		if cat[i-1].Business >= cat[i].Business {
			t.Fatalf("catalogue not sorted at %d", i)
		}
	}
	if PlatformName("visa_approval") != PlatformPurchase {
		t.Error("visa_approval should map to Purchase")
	}
	if !Mapped("partner_inquiry") || Mapped("nope") {
		t.Error("Mapped reports wrong membership")
	}
}

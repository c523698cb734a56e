// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package api

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/pixelrelay/internal/emitter"
	"github.com/tomtom215/pixelrelay/internal/envelope"
	"github.com/tomtom215/pixelrelay/internal/models"
	"github.com/tomtom215/pixelrelay/internal/pii"
)

func TestTrackEvent_Accepted(t *testing.T) {
	env := newTestEnv(t, emitter.NewCommandPixel("123"), nil)

	rec := env.do(t, http.MethodPost, "/api/v1/events", map[string]any{
		"event":  "consultation_booked",
		"source": "contact_page",
		"data": map[string]any{
			"consultationType": "visa",
			"userData":         map[string]any{"email": " A@Example.com "},
		},
	}, nil)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var data EventResponse
	if err := json.Unmarshal(decodeResponse(t, rec).Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.EventID == "" || data.EventName != envelope.PlatformSchedule {
		t.Errorf("response = %+v", data)
	}
	if len(data.Pixel) != 1 {
		t.Fatalf("pixel commands = %d, want 1", len(data.Pixel))
	}
	cmd := data.Pixel[0]
	if cmd.Options.EventID != data.EventID || cmd.Event != envelope.PlatformSchedule {
		t.Errorf("pixel command = %+v", cmd)
	}
	if cmd.Params[models.FieldEmail] != pii.Hash("a@example.com") {
		t.Errorf("pixel params em = %v, want the email digest", cmd.Params[models.FieldEmail])
	}
	if _, ok := cmd.Params[models.FieldClientIP]; ok {
		t.Error("pixel params must not carry the client IP")
	}

	select {
	case relayed := <-env.relay.envs:
		if relayed.EventID != data.EventID {
			t.Errorf("relay event id %q, response %q", relayed.EventID, data.EventID)
		}
		if relayed.UserData[models.FieldEmail] != pii.Hash("a@example.com") {
			t.Error("relayed user data should carry the normalized email digest")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("relay was not invoked")
	}

	if !strings.Contains(strings.Join(rec.Header().Values("Set-Cookie"), ";"), "pr_external_id=") {
		t.Error("external id cookie should be set")
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Error("API responses must not be cacheable")
	}
}

func TestTrackEvent_CallerEventIDIsShared(t *testing.T) {
	env := newTestEnv(t, emitter.NewCommandPixel("123"), nil)

	rec := env.do(t, http.MethodPost, "/api/v1/events", map[string]any{
		"event":   "whatsapp_click",
		"source":  "floating_widget",
		"eventId": "caller-evt-1",
	}, nil)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}
	var data EventResponse
	if err := json.Unmarshal(decodeResponse(t, rec).Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.EventID != "caller-evt-1" || data.Pixel[0].Options.EventID != "caller-evt-1" {
		t.Errorf("response = %+v", data)
	}
	if relayed := <-env.relay.envs; relayed.EventID != "caller-evt-1" {
		t.Errorf("relay event id = %q", relayed.EventID)
	}
}

func TestTrackEvent_NoPixel(t *testing.T) {
	env := newTestEnv(t, emitter.NoopPixel{}, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/events", map[string]any{"event": "phone_click"}, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"pixel":[]`) {
		t.Errorf("pixel should be an empty list: %s", rec.Body.String())
	}
	<-env.relay.envs
}

func TestTrackEvent_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		body     any
		wantCode string
	}{
		{"unknown event", map[string]any{"event": "not_an_event"}, ErrCodeInvalidEventType},
		{"missing event", map[string]any{"source": "x"}, ErrCodeValidationFailed},
		{"bad event name", map[string]any{"event": "Lead Captured"}, ErrCodeValidationFailed},
		{"bad event id", map[string]any{"event": "lead_captured", "eventId": "has space"}, ErrCodeValidationFailed},
		{"malformed json", `{"event": `, ErrCodeValidationFailed},
		{"not an object", `["lead_captured"]`, ErrCodeValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, emitter.NewCommandPixel("123"), nil)
			rec := env.do(t, http.MethodPost, "/api/v1/events", tt.body, nil)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			resp := decodeResponse(t, rec)
			if resp.Success || resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want code %s", resp.Error, tt.wantCode)
			}
			select {
			case <-env.relay.envs:
				t.Error("relay must not run for rejected events")
			default:
			}
		})
	}
}

func TestEventTypes(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	rec := env.do(t, http.MethodGet, "/api/v1/events/types", nil, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var data EventTypesResponse
	if err := json.Unmarshal(decodeResponse(t, rec).Data, &data); err != nil {
		t.Fatal(err)
	}
	if len(data.Events) != 32 {
		t.Errorf("events = %d, want 32", len(data.Events))
	}
	if data.Fallback != envelope.FallbackPlatformEvent {
		t.Errorf("fallback = %q", data.Fallback)
	}
}

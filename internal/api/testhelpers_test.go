// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/pixelrelay/internal/dispatch"
	"github.com/tomtom215/pixelrelay/internal/emitter"
	"github.com/tomtom215/pixelrelay/internal/envelope"
	"github.com/tomtom215/pixelrelay/internal/identity"
	"github.com/tomtom215/pixelrelay/internal/journal"
	"github.com/tomtom215/pixelrelay/internal/models"
)

const testAdminToken = "0123456789abcdef0123456789abcdef"

// capturingRelay hands every relayed envelope to a channel.
type capturingRelay struct {
	envs chan models.EventEnvelope
}

func (c *capturingRelay) Emit(_ context.Context, env models.EventEnvelope, _ emitter.RequestContext) models.RelayResult {
	c.envs <- env
	return models.RelayResult{Success: true, EventID: env.EventID, EventName: env.EventName}
}

type stubRelayStatus struct {
	configured bool
	state      string
}

func (s stubRelayStatus) Configured() bool     { return s.configured }
func (s stubRelayStatus) BreakerState() string { return s.state }

type memJournal map[string]models.RelayResult

func (m memJournal) Get(_ context.Context, eventID string) (*models.RelayResult, error) {
	r, ok := m[eventID]
	if !ok {
		return nil, journal.ErrNotFound
	}
	return &r, nil
}

type testEnv struct {
	handler *Handler
	router  http.Handler
	relay   *capturingRelay
}

func newTestEnv(t *testing.T, pixel emitter.AdPixelClient, j RelayJournal) *testEnv {
	t.Helper()

	relay := &capturingRelay{envs: make(chan models.EventEnvelope, 16)}
	d := dispatch.New(envelope.NewBuilder(), identity.NewResolver(identity.Config{}), relay, dispatch.Config{
		Browser: emitter.NewClientEmitter(pixel),
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = d.Close(ctx)
	})

	h := NewHandler(d, stubRelayStatus{configured: true, state: "closed"}, j, HandlerConfig{
		Cookies:         identity.CookieConfig{MaxAge: time.Hour},
		PixelConfigured: pixel != nil,
	})
	mw := NewChiMiddleware(&ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{"https://example.com"},
		RateLimitDisabled:  true,
	})
	return &testEnv{handler: h, router: NewRouter(h, mw, testAdminToken).SetupChi(), relay: relay}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

type rawResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) rawResponse {
	t.Helper()
	var resp rawResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
	}
	return resp
}

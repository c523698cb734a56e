// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package identity

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var testNow = time.UnixMilli(1767225600000)

func newTestResolver(opts ...Option) *Resolver {
	base := []Option{
		WithClock(func() time.Time { return testNow }),
		WithTokenGenerator(func() string { return "minted" }),
	}
	return NewResolver(Config{LoginTimeout: 50 * time.Millisecond}, append(base, opts...)...)
}

// fakeLogin is a LoginChecker returning canned values.
type fakeLogin struct {
	id    string
	err   error
	delay time.Duration
	calls int
}

func (f *fakeLogin) CheckLogin(ctx context.Context, _ *http.Request) (string, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.id, f.err
}

func TestResolve_ClickID(t *testing.T) {
	r := newTestResolver()

	req := httptest.NewRequest(http.MethodGet, "/programs?fbclid=IwAR123", nil)
	got := r.Resolve(req, Stores{})
	if got.ClickID != "fb.1.1767225600000.IwAR123" {
		t.Errorf("ClickID = %q", got.ClickID)
	}

	req = httptest.NewRequest(http.MethodGet, "/programs", nil)
	if got := r.Resolve(req, Stores{}); got.ClickID != "" {
		t.Errorf("ClickID without parameter = %q, want empty", got.ClickID)
	}
}

func TestResolve_ClickIDKeepsFirstTimestamp(t *testing.T) {
	now := testNow
	r := newTestResolver(WithClock(func() time.Time { return now }))
	durable := NewMemoryStorage()

	req := httptest.NewRequest(http.MethodGet, "/programs?fbclid=abc", nil)
	first := r.ClickID(req, Stores{Durable: durable})

	now = now.Add(5 * time.Second)
	if second := r.ClickID(req, Stores{Durable: durable}); second != first {
		t.Errorf("second ClickID = %q, want %q", second, first)
	}
	if v, _ := durable.Get(DefaultClickIDCookie); v != first {
		t.Errorf("stored click id = %q, want %q", v, first)
	}

	other := httptest.NewRequest(http.MethodGet, "/programs?fbclid=xyz", nil)
	if got := r.ClickID(other, Stores{Durable: durable}); got != "fb.1.1767225605000.xyz" {
		t.Errorf("new click = %q", got)
	}
	if v, _ := durable.Get(DefaultClickIDCookie); v != "fb.1.1767225605000.xyz" {
		t.Errorf("new click not stored: %q", v)
	}
}

func TestResolve_ClickIDWithoutStores(t *testing.T) {
	// Default clock: nothing but process memory pins the timestamp.
	r := NewResolver(Config{})
	req := httptest.NewRequest(http.MethodGet, "/programs?fbclid=abc", nil)

	first := r.ClickID(req, Stores{})
	time.Sleep(2 * time.Millisecond)
	if second := r.ClickID(req, Stores{}); second != first {
		t.Errorf("ClickID changed between calls: %q then %q", first, second)
	}
}

func TestResolve_ClickIDFromCookie(t *testing.T) {
	r := newTestResolver()

	req := httptest.NewRequest(http.MethodGet, "/programs?fbclid=abc", nil)
	req.AddCookie(&http.Cookie{Name: DefaultClickIDCookie, Value: "fb.1.1700000000000.abc"})
	if got := r.ClickID(req, Stores{}); got != "fb.1.1700000000000.abc" {
		t.Errorf("ClickID = %q, want the recorded cookie", got)
	}

	rec := httptest.NewRecorder()
	stores := NewCookieStores(rec, req, CookieConfig{MaxAge: time.Hour})
	if got := r.ClickID(req, stores); got != "fb.1.1700000000000.abc" {
		t.Errorf("ClickID via cookie stores = %q", got)
	}

	stale := httptest.NewRequest(http.MethodGet, "/programs?fbclid=new", nil)
	stale.AddCookie(&http.Cookie{Name: DefaultClickIDCookie, Value: "fb.1.1700000000000.abc"})
	rec = httptest.NewRecorder()
	if got := r.ClickID(stale, NewCookieStores(rec, stale, CookieConfig{MaxAge: time.Hour})); got != "fb.1.1767225600000.new" {
		t.Errorf("ClickID for a new click = %q", got)
	}
	if !strings.Contains(strings.Join(rec.Header().Values("Set-Cookie"), ";"), DefaultClickIDCookie+"=fb.1.1767225600000.new") {
		t.Errorf("click id cookie not written: %v", rec.Header().Values("Set-Cookie"))
	}
}

func TestResolve_DefaultResolverWithoutStoresIsStable(t *testing.T) {
	r := NewResolver(Config{})
	a := r.Resolve(nil, Stores{})
	b := r.Resolve(nil, Stores{})
	if a != b {
		t.Errorf("attribution differs between calls: %+v vs %+v", a, b)
	}
	if a.ExternalID != "" {
		t.Errorf("ExternalID = %q, want empty without storage", a.ExternalID)
	}
}

func TestFormatClickID_AlreadyFormatted(t *testing.T) {
	if got := FormatClickID("fb.1.1.abc", testNow); got != "fb.1.1.abc" {
		t.Errorf("FormatClickID = %q", got)
	}
}

func TestResolve_BrowserID(t *testing.T) {
	r := newTestResolver()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "_fbp", Value: "fb.1.1700000000000.987654321"})

	if got := r.Resolve(req, Stores{}); got.BrowserID != "fb.1.1700000000000.987654321" {
		t.Errorf("BrowserID = %q", got.BrowserID)
	}
	if got := r.Resolve(nil, Stores{}); got.BrowserID != "" || got.ClickID != "" {
		t.Errorf("nil request should resolve no click or browser id, got %+v", got)
	}
}

func TestExternalID_Precedence(t *testing.T) {
	r := newTestResolver()

	t.Run("durable wins", func(t *testing.T) {
		durable, session := NewMemoryStorage(), NewMemoryStorage()
		durable.Set(DefaultExternalIDKey, "durable-id")
		session.Set(DefaultExternalIDKey, "session-id")

		if got := r.ExternalID(Stores{Durable: durable, Session: session}); got != "durable-id" {
			t.Errorf("ExternalID = %q, want durable-id", got)
		}
	})

	t.Run("session fallback", func(t *testing.T) {
		session := NewMemoryStorage()
		session.Set(DefaultExternalIDKey, "session-id")

		if got := r.ExternalID(Stores{Durable: NewMemoryStorage(), Session: session}); got != "session-id" {
			t.Errorf("ExternalID = %q, want session-id", got)
		}
	})

	t.Run("minted and saved to session", func(t *testing.T) {
		durable, session := NewMemoryStorage(), NewMemoryStorage()

		if got := r.ExternalID(Stores{Durable: durable, Session: session}); got != "minted" {
			t.Errorf("ExternalID = %q, want minted", got)
		}
		if v, _ := session.Get(DefaultExternalIDKey); v != "minted" {
			t.Errorf("session value = %q, want minted", v)
		}
		if _, ok := durable.Get(DefaultExternalIDKey); ok {
			t.Error("durable storage must not be written")
		}
	})

	t.Run("no session storage mints nothing", func(t *testing.T) {
		if got := r.ExternalID(Stores{}); got != "" {
			t.Errorf("ExternalID = %q, want empty", got)
		}
		if got := r.ExternalID(Stores{Durable: NewMemoryStorage()}); got != "" {
			t.Errorf("ExternalID with durable only = %q, want empty", got)
		}
	})
}

func TestResolveLogin_InsecureTransport(t *testing.T) {
	login := &fakeLogin{id: "1234"}
	r := newTestResolver(WithLoginChecker(login))

	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	if id := <-r.ResolveLogin(context.Background(), req); id != "" {
		t.Errorf("login id over http = %q, want empty", id)
	}
	if login.calls != 0 {
		t.Error("checker must not run on insecure transport")
	}
}

func TestResolveLogin_Secure(t *testing.T) {
	login := &fakeLogin{id: "1234"}
	r := newTestResolver(WithLoginChecker(login))

	req := httptest.NewRequest(http.MethodGet, "https://example.com/", nil)
	req.TLS = &tls.ConnectionState{}

	attr := r.ResolveWithLogin(context.Background(), req, Stores{})
	if attr.LoginID != "1234" {
		t.Errorf("LoginID = %q, want 1234", attr.LoginID)
	}
}

func TestResolveLogin_ForwardedProto(t *testing.T) {
	login := &fakeLogin{id: "55"}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")

	untrusted := newTestResolver(WithLoginChecker(login))
	if id := <-untrusted.ResolveLogin(context.Background(), req); id != "" {
		t.Errorf("untrusted forwarded proto resolved %q", id)
	}

	trusted := NewResolver(Config{TrustForwardedProto: true}, WithLoginChecker(login))
	if id := <-trusted.ResolveLogin(context.Background(), req); id != "55" {
		t.Errorf("trusted forwarded proto resolved %q, want 55", id)
	}
}

func TestResolveLogin_TimeoutAndError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "https://example.com/", nil)
	req.TLS = &tls.ConnectionState{}

	slow := newTestResolver(WithLoginChecker(&fakeLogin{id: "late", delay: time.Second}))
	start := time.Now()
	if id := <-slow.ResolveLogin(context.Background(), req); id != "" {
		t.Errorf("timed out check resolved %q", id)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("login check took %v, timeout not applied", elapsed)
	}

	failing := newTestResolver(WithLoginChecker(&fakeLogin{err: errors.New("boom")}))
	if id := <-failing.ResolveLogin(context.Background(), req); id != "" {
		t.Errorf("failing check resolved %q", id)
	}
}

func TestIsSecureRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https, http")
	if !IsSecureRequest(req, true) {
		t.Error("first forwarded proto should be honoured")
	}
	if IsSecureRequest(req, false) {
		t.Error("forwarded proto must be ignored when untrusted")
	}
	if IsSecureRequest(nil, true) {
		t.Error("nil request is not secure")
	}
}

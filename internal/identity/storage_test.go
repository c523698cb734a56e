// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func responseCookies(rec *httptest.ResponseRecorder) []*http.Cookie {
	return (&http.Response{Header: rec.Header()}).Cookies()
}

func TestMemoryStorage_GetOrCreate(t *testing.T) {
	s := NewMemoryStorage()
	calls := 0
	create := func() string { calls++; return "v1" }

	if got := s.GetOrCreate("k", create); got != "v1" {
		t.Errorf("first GetOrCreate = %q", got)
	}
	if got := s.GetOrCreate("k", create); got != "v1" {
		t.Errorf("second GetOrCreate = %q", got)
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}
}

func TestCookieStorage_ReadsRequestCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "pr_external_id", Value: "from-cookie"})

	s := NewCookieStorage(nil, req, CookieOptions{})
	if v, ok := s.Get("pr_external_id"); !ok || v != "from-cookie" {
		t.Errorf("Get = %q, %v", v, ok)
	}
}

func TestCookieStorage_WritesCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	stores := NewCookieStores(rec, req, CookieConfig{Domain: "example.com", MaxAge: 24 * time.Hour, Secure: true})

	got := stores.Session.GetOrCreate("pr_external_id", func() string { return "fresh" })
	if got != "fresh" {
		t.Fatalf("GetOrCreate = %q", got)
	}
	if v, _ := stores.Session.Get("pr_external_id"); v != "fresh" {
		t.Error("written value should be visible for the rest of the exchange")
	}

	cookies := responseCookies(rec)
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	ck := cookies[0]
	if ck.Name != "pr_external_id_session" {
		t.Errorf("cookie name = %q", ck.Name)
	}
	if ck.MaxAge != 0 {
		t.Errorf("session cookie MaxAge = %d, want 0", ck.MaxAge)
	}
	if !ck.Secure || ck.SameSite != http.SameSiteLaxMode {
		t.Error("cookie should be Secure and SameSite=Lax")
	}

	stores.Durable.Set("pr_external_id", "durable")
	cookies = responseCookies(rec)
	if len(cookies) != 2 || cookies[1].Name != "pr_external_id" || cookies[1].MaxAge != 86400 {
		t.Errorf("durable cookie not written as expected: %+v", cookies)
	}
}

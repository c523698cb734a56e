// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

// Package identity resolves the ad-attribution identifiers of a visitor.
//
// Four identifiers are collected, each optional:
//
//   - click id: the fbclid URL parameter, formatted as fb.1.<unix_ms>.<fbclid>
//     and kept in the _fbc cookie so repeat requests for the same click keep
//     the first timestamp
//   - browser id: the first-party _fbp cookie
//   - external id: a token read from durable storage, then session storage,
//     and minted into session storage; never minted without session storage
//   - login id: the platform login user id, only over a secure transport and
//     only on the asynchronous path
//
// Resolution never fails. A missing signal leaves its field empty.
package identity

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/pixelrelay/internal/logging"
	"github.com/tomtom215/pixelrelay/internal/models"
)

// Defaults for Config fields left empty.
const (
	DefaultClickIDParam    = "fbclid"
	DefaultClickIDCookie   = "_fbc"
	DefaultBrowserIDCookie = "_fbp"
	DefaultExternalIDKey   = "pr_external_id"
	DefaultLoginTimeout    = 2 * time.Second
)

// Config configures a Resolver.
type Config struct {
	ClickIDParam    string
	ClickIDCookie   string
	BrowserIDCookie string
	ExternalIDKey   string

	// TrustForwardedProto treats X-Forwarded-Proto: https as a secure transport.
	TrustForwardedProto bool

	// LoginTimeout bounds the asynchronous login check.
	LoginTimeout time.Duration

	// ClickMemorySize bounds how many clicks keep their first-seen time
	// in process. Zero uses DefaultClickMemorySize.
	ClickMemorySize int
}

// Resolver collects an AttributionContext from an HTTP request and the
// visitor's identifier stores.
type Resolver struct {
	cfg      Config
	login    LoginChecker
	now      func() time.Time
	newToken func() string
	clicks   *clickMemory
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLoginChecker sets the checker used by ResolveLogin.
func WithLoginChecker(c LoginChecker) Option {
	return func(r *Resolver) {
		if c != nil {
			r.login = c
		}
	}
}

// WithClock replaces the clock used to timestamp click ids.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithTokenGenerator replaces the external id generator.
func WithTokenGenerator(gen func() string) Option {
	return func(r *Resolver) {
		if gen != nil {
			r.newToken = gen
		}
	}
}

// NewResolver creates a Resolver, filling empty Config fields with defaults.
func NewResolver(cfg Config, opts ...Option) *Resolver {
	if cfg.ClickIDParam == "" {
		cfg.ClickIDParam = DefaultClickIDParam
	}
	if cfg.ClickIDCookie == "" {
		cfg.ClickIDCookie = DefaultClickIDCookie
	}
	if cfg.BrowserIDCookie == "" {
		cfg.BrowserIDCookie = DefaultBrowserIDCookie
	}
	if cfg.ExternalIDKey == "" {
		cfg.ExternalIDKey = DefaultExternalIDKey
	}
	if cfg.LoginTimeout <= 0 {
		cfg.LoginTimeout = DefaultLoginTimeout
	}

	r := &Resolver{
		cfg:      cfg,
		login:    NoopLoginChecker{},
		now:      time.Now,
		newToken: func() string { return uuid.New().String() },
		clicks:   newClickMemory(cfg.ClickMemorySize, DefaultClickMemoryTTL),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the identifiers available synchronously. The login id is
// always empty here; use ResolveWithLogin to include it. req may be nil for
// events that do not originate from a browser request.
func (r *Resolver) Resolve(req *http.Request, st Stores) models.AttributionContext {
	return models.AttributionContext{
		ClickID:    r.ClickID(req, st),
		BrowserID:  r.BrowserID(req),
		ExternalID: r.ExternalID(st),
	}
}

// ResolveWithLogin is Resolve plus the login id, waiting at most the
// configured login timeout.
func (r *Resolver) ResolveWithLogin(ctx context.Context, req *http.Request, st Stores) models.AttributionContext {
	loginCh := r.ResolveLogin(ctx, req)
	attr := r.Resolve(req, st)
	attr.LoginID = <-loginCh
	return attr
}

// ClickID formats the click parameter of the request URL. A click id already
// recorded for the same fbclid in the click id cookie is reused. Otherwise
// the timestamp is the first time this process saw the fbclid, so one click
// keeps one click id. A new click id is saved to durable storage, or session
// storage without one.
func (r *Resolver) ClickID(req *http.Request, st Stores) string {
	if req == nil || req.URL == nil {
		return ""
	}
	raw := strings.TrimSpace(req.URL.Query().Get(r.cfg.ClickIDParam))
	if raw == "" {
		return ""
	}

	store := st.Durable
	if store == nil {
		store = st.Session
	}

	key := r.cfg.ClickIDCookie
	var recorded string
	if store != nil {
		recorded, _ = store.Get(key)
	} else if ck, err := req.Cookie(key); err == nil {
		recorded = ck.Value
	}
	if sameClick(recorded, raw) {
		return recorded
	}

	fbc := FormatClickID(raw, r.clicks.firstSeen(raw, r.now()))
	if store != nil {
		store.Set(key, fbc)
	}
	return fbc
}

// sameClick reports whether the formatted click id fbc records fbclid.
func sameClick(fbc, fbclid string) bool {
	if fbc == "" {
		return false
	}
	if strings.HasPrefix(fbclid, "fb.") {
		return fbc == fbclid
	}
	parts := strings.SplitN(fbc, ".", 4)
	return len(parts) == 4 && parts[0] == "fb" && parts[3] == fbclid
}

// FormatClickID formats a raw click parameter in the platform's click id
// format. Values that are already formatted are returned unchanged.
func FormatClickID(fbclid string, at time.Time) string {
	if strings.HasPrefix(fbclid, "fb.") {
		return fbclid
	}
	return fmt.Sprintf("fb.1.%d.%s", at.UnixMilli(), fbclid)
}

// BrowserID reads the browser id cookie.
func (r *Resolver) BrowserID(req *http.Request) string {
	if req == nil {
		return ""
	}
	ck, err := req.Cookie(r.cfg.BrowserIDCookie)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(ck.Value)
}

// ExternalID reads the external id from durable storage, then session
// storage, and otherwise mints one and saves it to session storage. Without
// session storage a minted id could not be recalled, so none is minted and
// the result is "".
func (r *Resolver) ExternalID(st Stores) string {
	key := r.cfg.ExternalIDKey
	if st.Durable != nil {
		if v, ok := st.Durable.Get(key); ok && v != "" {
			return v
		}
	}
	if st.Session == nil {
		return ""
	}
	return st.Session.GetOrCreate(key, r.newToken)
}

// ResolveLogin starts the login check and returns a channel that receives
// exactly one value (the login id, or "" when unknown) and is then closed.
// Insecure transports resolve to "" without calling the checker.
func (r *Resolver) ResolveLogin(ctx context.Context, req *http.Request) <-chan string {
	out := make(chan string, 1)

	if _, noop := r.login.(NoopLoginChecker); noop || !IsSecureRequest(req, r.cfg.TrustForwardedProto) {
		out <- ""
		close(out)
		return out
	}

	go func() {
		defer close(out)

		ctx, cancel := context.WithTimeout(ctx, r.cfg.LoginTimeout)
		defer cancel()

		res := make(chan string, 1)
		go func() {
			id, err := r.login.CheckLogin(ctx, req)
			if err != nil {
				logging.Ctx(ctx).Debug().Err(err).Msg("Login check failed")
				id = ""
			}
			res <- id
		}()

		select {
		case id := <-res:
			out <- id
		case <-ctx.Done():
			logging.Ctx(ctx).Debug().Dur("timeout", r.cfg.LoginTimeout).Msg("Login check timed out")
			out <- ""
		}
	}()
	return out
}

// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package emitter

import (
	"net"
	"net/http"
	"strings"
)

// RequestContext is the request metadata the relay adds to user data. It is
// always taken from the HTTP exchange, never from the client payload.
type RequestContext struct {
	ClientIP  string
	UserAgent string
}

// RequestContextFromHTTP extracts the client address and user agent. The
// address is r.RemoteAddr, which chi's RealIP middleware has already rewritten
// from trusted proxy headers.
func RequestContextFromHTTP(r *http.Request) RequestContext {
	if r == nil {
		return RequestContext{}
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	if net.ParseIP(addr) == nil {
		addr = ""
	}
	return RequestContext{ClientIP: addr, UserAgent: r.UserAgent()}
}

// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package identity

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

// Signed request errors.
var (
	ErrMalformedSignedRequest = errors.New("malformed signed request")
	ErrUnsupportedAlgorithm   = errors.New("unsupported signed request algorithm")
	ErrInvalidSignature       = errors.New("invalid signed request signature")
)

// LoginChecker looks up the platform login id of the visitor making r.
// An empty id with a nil error means the visitor is not logged in.
type LoginChecker interface {
	CheckLogin(ctx context.Context, r *http.Request) (string, error)
}

// NoopLoginChecker never finds a login.
type NoopLoginChecker struct{}

func (NoopLoginChecker) CheckLogin(context.Context, *http.Request) (string, error) {
	return "", nil
}

// SignedRequest is the decoded payload of the platform's fbsr_ cookie.
type SignedRequest struct {
	Algorithm string `json:"algorithm"`
	UserID    string `json:"user_id"`
	IssuedAt  int64  `json:"issued_at"`
	Code      string `json:"code,omitempty"`
}

// SignedRequestChecker reads the login cookie set by the platform's browser
// SDK (fbsr_<app_id>) and verifies it with the app secret.
type SignedRequestChecker struct {
	appID     string
	appSecret []byte
}

// NewSignedRequestChecker returns a checker for the given app. Without an
// app id or secret no cookie can be verified and a NoopLoginChecker is
// returned instead.
func NewSignedRequestChecker(appID, appSecret string) LoginChecker {
	if appID == "" || appSecret == "" {
		return NoopLoginChecker{}
	}
	return &SignedRequestChecker{appID: appID, appSecret: []byte(appSecret)}
}

// CookieName is the name of the login cookie for this app.
func (c *SignedRequestChecker) CookieName() string {
	return "fbsr_" + c.appID
}

func (c *SignedRequestChecker) CheckLogin(_ context.Context, r *http.Request) (string, error) {
	ck, err := r.Cookie(c.CookieName())
	if errors.Is(err, http.ErrNoCookie) || (err == nil && ck.Value == "") {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read login cookie: %w", err)
	}

	sr, err := ParseSignedRequest(ck.Value, c.appSecret)
	if err != nil {
		return "", err
	}
	return sr.UserID, nil
}

// ParseSignedRequest verifies and decodes "<signature>.<payload>", where both
// parts are base64url encoded and the signature is HMAC-SHA256 of the encoded
// payload keyed by the app secret.
func ParseSignedRequest(value string, secret []byte) (*SignedRequest, error) {
	sigPart, payloadPart, ok := strings.Cut(value, ".")
	if !ok || sigPart == "" || payloadPart == "" {
		return nil, ErrMalformedSignedRequest
	}

	sig, err := decodeSegment(sigPart)
	if err != nil {
		return nil, fmt.Errorf("%w: signature: %v", ErrMalformedSignedRequest, err)
	}
	raw, err := decodeSegment(payloadPart)
	if err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrMalformedSignedRequest, err)
	}

	var sr SignedRequest
	if err := json.Unmarshal(raw, &sr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSignedRequest, err)
	}
	if !strings.EqualFold(sr.Algorithm, "HMAC-SHA256") {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, sr.Algorithm)
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(payloadPart))
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return nil, ErrInvalidSignature
	}
	return &sr, nil
}

func decodeSegment(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}

// IsSecureRequest reports whether r arrived over TLS. With trustForwarded an
// X-Forwarded-Proto of https set by a reverse proxy also counts.
func IsSecureRequest(r *http.Request, trustForwarded bool) bool {
	if r == nil {
		return false
	}
	if r.TLS != nil {
		return true
	}
	if !trustForwarded {
		return false
	}
	proto, _, _ := strings.Cut(r.Header.Get("X-Forwarded-Proto"), ",")
	return strings.EqualFold(strings.TrimSpace(proto), "https")
}

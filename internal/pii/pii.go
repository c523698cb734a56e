// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

// Package pii normalizes and hashes personally identifiable information
// before it leaves the process.
//
// Every PII field is lowercased, trimmed and digested with SHA-256. The
// result is lowercase hex, so a value hashed in the browser and the same value
// hashed here produce the same digest. Attribution identifiers are not PII
// for this purpose and are never passed through Hash.
package pii

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/tomtom215/pixelrelay/internal/models"
)

// Normalize lowercases v and trims surrounding whitespace. Nothing else is
// altered: inner whitespace, punctuation and phone formatting survive.
func Normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// Hash returns the lowercase hex SHA-256 digest of the normalized value.
// An empty (or whitespace-only) input returns "", meaning no field should be
// emitted. Input that is already a 64-character hex digest is returned as-is.
func Hash(v string) string {
	n := Normalize(v)
	if n == "" {
		return ""
	}
	if IsHashed(n) {
		return n
	}
	sum := sha256.Sum256([]byte(n))
	return hex.EncodeToString(sum[:])
}

// IsHashed reports whether s looks like a hex SHA-256 digest.
func IsHashed(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}

// UserInput is raw user data as captured by a form or account record.
type UserInput struct {
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Name      string `json:"name,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Country   string `json:"country,omitempty"`
	Zip       string `json:"zip,omitempty"`
}

// IsZero reports whether no field is set.
func (u UserInput) IsZero() bool {
	return u == UserInput{}
}

// names returns first and last name, splitting the full name on its first
// space when the explicit parts are missing.
func (u UserInput) names() (first, last string) {
	first, last = u.FirstName, u.LastName
	if first != "" || last != "" {
		return first, last
	}
	full := strings.TrimSpace(u.Name)
	if full == "" {
		return "", ""
	}
	if i := strings.IndexByte(full, ' '); i > 0 {
		return full[:i], strings.TrimSpace(full[i+1:])
	}
	return full, ""
}

// HashUserData hashes every PII field of in. Empty fields are omitted, so a
// zero UserInput yields an empty map.
func HashUserData(in UserInput) models.HashedUserData {
	out := models.HashedUserData{}
	first, last := in.names()

	out.Set(models.FieldEmail, Hash(in.Email))
	out.Set(models.FieldPhone, Hash(in.Phone))
	out.Set(models.FieldFirstName, Hash(first))
	out.Set(models.FieldLastName, Hash(last))
	out.Set(models.FieldCity, Hash(in.City))
	out.Set(models.FieldState, Hash(in.State))
	out.Set(models.FieldCountry, Hash(in.Country))
	out.Set(models.FieldZip, Hash(in.Zip))
	return out
}

// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package logging

import (
	"net"
	"strings"
)

// RedactToken keeps the first four characters of a secret or identifier.
//
//	RedactToken("EAAGm0PX4ZCps...") // "EAAG****"
func RedactToken(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}

// RedactIP zeroes the host part of an address: the last octet for IPv4 and
// everything after the /48 prefix for IPv6. Unparseable input is fully masked.
func RedactIP(addr string) string {
	if addr == "" {
		return ""
	}
	ip := net.ParseIP(strings.TrimSpace(addr))
	if ip == nil {
		return "****"
	}
	if v4 := ip.To4(); v4 != nil {
		return net.IPv4(v4[0], v4[1], v4[2], 0).String()
	}
	return ip.Mask(net.CIDRMask(48, 128)).String()
}

// TruncateUserAgent limits a user agent string to 100 bytes for log output.
func TruncateUserAgent(ua string) string {
	const maxLen = 100
	if len(ua) <= maxLen {
		return ua
	}
	return ua[:maxLen-3] + "..."
}

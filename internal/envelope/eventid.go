// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package envelope

import "github.com/google/uuid"

// NewEventID returns a time-ordered identifier: a UUIDv7 carries a 48-bit
// unix millisecond timestamp followed by random bits.
func NewEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does
		return uuid.New().String()
	}
	return id.String()
}

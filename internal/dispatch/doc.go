// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

/*
Package dispatch is the single ingress of the conversion pipeline.

Business events form a closed set of variants implementing Event. Each
variant knows its own payload shape: content category, content name, value
tier and custom fields. Decode is the only place a string event name is
looked up; unknown names fail with ErrInvalidEventType and nothing is
emitted.

Dispatch resolves attribution for the originating request, lets
caller-supplied identifiers win, builds one envelope with one event id and
starts the server relay as a detached Task:

	out, err := d.DispatchRaw(ctx, "visa_approval", data, "visa_tracker", dispatch.RequestInfo{Request: r})
	if errors.Is(err, dispatch.ErrInvalidEventType) {
		// reject
	}
	clientEmitter.Emit(ctx, &out.Envelope) // same event id in the browser
	// out.Relay completes in the background; Wait only in tests

The relay context ignores request cancellation. A panicking relay becomes a
failure result, and Close waits for in-flight relays during shutdown.
*/
package dispatch

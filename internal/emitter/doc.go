// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

/*
Package emitter delivers event envelopes to the ad platform over two
independent paths that share one event id.

ClientEmitter drives the browser pixel through the AdPixelClient capability.
CommandPixel, the production implementation, queues fbq-style commands on a
request-scoped CommandQueue that the HTTP layer hands back to the page.
NoopPixel is selected when no pixel id is configured.

ServerRelay posts the same envelope to the Conversions API together with the
client IP address and user agent of the originating request:

	POST {endpoint}/{api_version}/{pixel_id}/events
	{"data":[{...}],"access_token":"...","test_event_code":"..."}

The relay never retries and never returns an error. Every outcome is a
models.RelayResult; a sony/gobreaker circuit breaker short-circuits calls
while the endpoint is failing and an optional x/time/rate limiter caps the
outbound rate.
*/
package emitter

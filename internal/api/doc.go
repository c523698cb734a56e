// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

/*
Package api provides the HTTP ingress for PixelRelay.

Endpoints:

	POST /api/v1/events            accept one business event (202)
	GET  /api/v1/events/types      business event catalogue
	GET  /api/v1/relays/{eventID}  journaled relay outcome (admin token)
	GET  /api/v1/health/live       liveness probe
	GET  /api/v1/health/ready      readiness probe
	GET  /metrics                  Prometheus exposition

An event request looks like:

	{
	  "event": "consultation_booked",
	  "source": "contact_page",
	  "eventId": "optional-caller-id",
	  "data": {
	    "consultationType": "visa",
	    "userData": {"email": "a@example.com", "phone": "+8801711000000"}
	  }
	}

The response carries the event id, the platform event name and the pixel
commands the page should replay:

	{"success": true, "data": {"event_id": "...", "event_name": "Schedule", "pixel": [...]}}

Identifier cookies (external id, session copy) are written on the same
response. The server relay runs detached from the request and its outcome is
never reflected in the response; with the journal enabled it can be read
back from /api/v1/relays/{eventID}.

Every response uses the APIResponse envelope and is encoded with
goccy/go-json. Middleware: request ids, chi RealIP and Recoverer,
go-chi/cors, go-chi/httprate and Prometheus request metrics.
*/
package api

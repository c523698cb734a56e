// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

/*
Package models defines the data structures shared across the PixelRelay
pipeline.

Key Components:

  - EventEnvelope: the platform-agnostic description of one conversion event,
    shared verbatim by the browser pixel and the server relay
  - HashedUserData: user-data fields keyed by the platform's field names
  - AttributionContext: click, browser, external and login identifiers
  - RelayResult: the outcome of one server relay attempt

The types carry no behaviour beyond small helpers; building, hashing and
emitting live in the envelope, pii and emitter packages.
*/
package models

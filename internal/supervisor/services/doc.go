// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

/*
Package services provides suture.Service wrappers for PixelRelay components.

Each wrapper translates a component's lifecycle into suture's context-aware
Serve method and implements fmt.Stringer so supervisor events name it.

HTTPServerService wraps *http.Server. On cancellation it runs an optional
drain hook, then calls Shutdown with a bounded timeout.

JournalGCService ticks badger value log GC on the relay journal. It logs GC
errors instead of returning them.
*/
package services

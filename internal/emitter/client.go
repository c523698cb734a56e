// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package emitter

import (
	"context"

	"github.com/tomtom215/pixelrelay/internal/logging"
	"github.com/tomtom215/pixelrelay/internal/metrics"
	"github.com/tomtom215/pixelrelay/internal/models"
)

// ClientEmitter sends envelopes through the browser pixel.
type ClientEmitter struct {
	pixel AdPixelClient
}

// NewClientEmitter creates a ClientEmitter. A nil pixel behaves as NoopPixel.
func NewClientEmitter(pixel AdPixelClient) *ClientEmitter {
	if pixel == nil {
		pixel = NoopPixel{}
	}
	return &ClientEmitter{pixel: pixel}
}

// Emit tracks env if the pixel is initialized and is a silent no-op
// otherwise. A panicking pixel client is contained here.
func (c *ClientEmitter) Emit(ctx context.Context, env *models.EventEnvelope) {
	if !c.pixel.Initialized(ctx) {
		logging.Ctx(ctx).Debug().
			Str("event_id", env.EventID).
			Str("event_name", env.EventName).
			Msg("Pixel not initialized, skipping browser emission")
		metrics.RecordPixelCommand(false)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			logging.Ctx(ctx).Error().Interface("panic", r).Str("event_id", env.EventID).Msg("Pixel client panicked")
		}
	}()

	c.pixel.Track(ctx, PixelCommand{
		Method:  PixelMethodTrack,
		Event:   env.EventName,
		Params:  pixelParams(env),
		Options: PixelOptions{EventID: env.EventID},
	})
	metrics.RecordPixelCommand(true)
}

// pixelParams merges custom data with the browser-visible user data.
func pixelParams(env *models.EventEnvelope) map[string]any {
	visible := env.UserData.BrowserVisible()
	params := make(map[string]any, len(env.CustomData)+len(visible))
	for k, v := range env.CustomData {
		params[k] = v
	}
	for k, v := range visible {
		params[k] = v
	}
	return params
}

// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package emitter

import (
	"context"
	"sync"
)

// PixelMethodTrack is the pixel method for standard events.
const PixelMethodTrack = "track"

// PixelCommand is one browser pixel call, the equivalent of
// fbq(method, event, params, options).
type PixelCommand struct {
	Method  string         `json:"method"`
	Event   string         `json:"event"`
	Params  map[string]any `json:"params"`
	Options PixelOptions   `json:"options"`
}

// PixelOptions carries the deduplication key shared with the server relay.
type PixelOptions struct {
	EventID string `json:"eventID"`
}

// AdPixelClient is the capability of sending events through the browser pixel.
type AdPixelClient interface {
	// Initialized reports whether a pixel is available for this context.
	Initialized(ctx context.Context) bool

	// Track sends one command. It must not block.
	Track(ctx context.Context, cmd PixelCommand)
}

// NewPixelClient returns a CommandPixel when a pixel id is configured and a
// NoopPixel otherwise.
func NewPixelClient(pixelID string) AdPixelClient {
	if pixelID == "" {
		return NoopPixel{}
	}
	return NewCommandPixel(pixelID)
}

// NoopPixel is an AdPixelClient that is never initialized.
type NoopPixel struct{}

func (NoopPixel) Initialized(context.Context) bool { return false }
func (NoopPixel) Track(context.Context, PixelCommand) {}

// CommandPixel queues pixel commands on the request's CommandQueue. The HTTP
// layer returns the queue to the browser, which replays it against the pixel
// loaded on the page.
type CommandPixel struct {
	pixelID string
}

// NewCommandPixel creates a CommandPixel for pixelID.
func NewCommandPixel(pixelID string) *CommandPixel {
	return &CommandPixel{pixelID: pixelID}
}

// PixelID returns the configured pixel id.
func (p *CommandPixel) PixelID() string {
	return p.pixelID
}

// Initialized is true only inside a browser-originated request, that is when
// ctx carries a CommandQueue.
func (p *CommandPixel) Initialized(ctx context.Context) bool {
	return p.pixelID != "" && CommandQueueFromContext(ctx) != nil
}

func (p *CommandPixel) Track(ctx context.Context, cmd PixelCommand) {
	if q := CommandQueueFromContext(ctx); q != nil {
		q.push(cmd)
	}
}

// CommandQueue collects the pixel commands produced while serving one request.
type CommandQueue struct {
	mu   sync.Mutex
	cmds []PixelCommand
}

type queueKey struct{}

// WithCommandQueue attaches a fresh CommandQueue to ctx.
func WithCommandQueue(ctx context.Context) (context.Context, *CommandQueue) {
	q := &CommandQueue{}
	return context.WithValue(ctx, queueKey{}, q), q
}

// CommandQueueFromContext returns the queue attached to ctx, or nil.
func CommandQueueFromContext(ctx context.Context) *CommandQueue {
	q, _ := ctx.Value(queueKey{}).(*CommandQueue)
	return q
}

func (q *CommandQueue) push(cmd PixelCommand) {
	q.mu.Lock()
	q.cmds = append(q.cmds, cmd)
	q.mu.Unlock()
}

// Commands returns a copy of the queued commands. Never nil.
func (q *CommandQueue) Commands() []PixelCommand {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]PixelCommand, len(q.cmds))
	copy(out, q.cmds)
	return out
}

// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/tomtom215/pixelrelay/internal/emitter"
	"github.com/tomtom215/pixelrelay/internal/envelope"
	"github.com/tomtom215/pixelrelay/internal/identity"
	"github.com/tomtom215/pixelrelay/internal/logging"
	"github.com/tomtom215/pixelrelay/internal/metrics"
	"github.com/tomtom215/pixelrelay/internal/models"
)

// DefaultMaxInFlight bounds concurrent relay tasks.
const DefaultMaxInFlight = 64

// ErrDispatcherClosed marks relays refused because Close was called.
var ErrDispatcherClosed = errors.New("dispatcher closed")

// Relay is the server-side emission path.
type Relay interface {
	Emit(ctx context.Context, env models.EventEnvelope, rc emitter.RequestContext) models.RelayResult
}

// Browser is the client-side emission path. It is only invoked when ctx
// carries an emitter.CommandQueue.
type Browser interface {
	Emit(ctx context.Context, env *models.EventEnvelope)
}

// RequestInfo describes where an event originated.
type RequestInfo struct {
	// Request is the browser request, nil for backend-originated events.
	Request *http.Request

	// Stores back the external id and click id. Without session storage
	// no external id is minted.
	Stores identity.Stores

	// Client is used for the relay when Request is nil.
	Client emitter.RequestContext

	// AwaitLogin waits (bounded) for the login id before building.
	AwaitLogin bool
}

// Outcome is the result of dispatching one event.
type Outcome struct {
	// Envelope is shared by both emitters.
	Envelope models.EventEnvelope

	// Relay completes when the server relay has finished.
	Relay *Task
}

// Config configures a Dispatcher.
type Config struct {
	MaxInFlight int

	// Browser receives every envelope dispatched with a command queue in
	// its context. Nil disables the client path.
	Browser Browser
}

// Dispatcher routes business events into envelopes and launches the relay.
// It does not deduplicate: dispatching the same event twice relays twice.
type Dispatcher struct {
	builder  *envelope.Builder
	resolver *identity.Resolver
	relay    Relay
	browser  Browser
	sem      chan struct{}

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New creates a Dispatcher.
func New(builder *envelope.Builder, resolver *identity.Resolver, relay Relay, cfg Config) *Dispatcher {
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = DefaultMaxInFlight
	}
	return &Dispatcher{
		builder:  builder,
		resolver: resolver,
		relay:    relay,
		browser:  cfg.Browser,
		sem:      make(chan struct{}, cfg.MaxInFlight),
	}
}

// DispatchRaw decodes a loosely typed event and dispatches it. An unknown
// name returns an error wrapping ErrInvalidEventType and nothing is emitted.
func (d *Dispatcher) DispatchRaw(ctx context.Context, name string, data map[string]any, source string, info RequestInfo) (*Outcome, error) {
	ev, err := Decode(name, data, source)
	if err != nil {
		metrics.RecordInvalidEvent()
		logging.Ctx(ctx).Debug().Str("event", name).Msg("Rejected unknown event type")
		return nil, err
	}
	return d.Dispatch(ctx, ev, info), nil
}

// Dispatch builds the envelope for ev, hands it to the browser emitter when
// ctx carries a command queue and launches the server relay as a detached
// task. It returns without waiting for the relay.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event, info RequestInfo) *Outcome {
	env := d.buildEnvelope(ctx, ev, info)

	metrics.RecordDispatch(ev.Name(), env.EventName)
	logging.Ctx(ctx).Debug().
		Str("event_id", env.EventID).
		Str("business_event", ev.Name()).
		Str("platform_event", env.EventName).
		Msg("Event dispatched")

	if d.browser != nil && emitter.CommandQueueFromContext(ctx) != nil {
		d.browser.Emit(ctx, &env)
	}

	rc := info.Client
	if info.Request != nil {
		rc = emitter.RequestContextFromHTTP(info.Request)
	}
	return &Outcome{Envelope: env, Relay: d.spawn(ctx, env, rc)}
}

func (d *Dispatcher) buildEnvelope(ctx context.Context, ev Event, info RequestInfo) models.EventEnvelope {
	base := ev.Base()

	var attr models.AttributionContext
	if info.AwaitLogin {
		attr = d.resolver.ResolveWithLogin(ctx, info.Request, info.Stores)
	} else {
		attr = d.resolver.Resolve(info.Request, info.Stores)
	}
	attr = attr.Merge(base.Attribution)

	sh := ev.shape()
	custom := make(map[string]any, len(sh.Fields)+4)
	for k, v := range sh.Fields {
		custom[k] = v
	}
	custom["content_category"] = sh.Category
	if sh.ContentName != "" {
		custom["content_name"] = sh.ContentName
	}
	if sh.Destination != "" {
		custom["study_destination"] = sh.Destination
	}
	custom["source"] = orNotSpecified(base.Source)

	sourceURL := base.SourceURL
	if sourceURL == "" && info.Request != nil {
		sourceURL = info.Request.Referer()
	}

	return d.builder.Build(ev.Name(), envelope.Payload{
		User:      base.User,
		Value:     sh.Value,
		Custom:    custom,
		SourceURL: sourceURL,
	}, attr, base.EventID)
}

// spawn runs the relay on a context detached from request cancellation. The
// task waits for an in-flight slot rather than dropping the event.
func (d *Dispatcher) spawn(ctx context.Context, env models.EventEnvelope, rc emitter.RequestContext) *Task {
	task := newTask(env.EventID)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		task.complete(models.Failed(&env, models.ErrorCodeInternal, ErrDispatcherClosed.Error()))
		return task
	}
	d.wg.Add(1)
	d.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	relayLog := logging.LoggerFromContext(detached).With().Str("component", "relay").Logger()
	detached = logging.ContextWithEventID(logging.ContextWithLogger(detached, relayLog), env.EventID)

	go func() {
		defer d.wg.Done()

		d.sem <- struct{}{}
		metrics.TrackRelayInFlight(true)
		defer func() {
			metrics.TrackRelayInFlight(false)
			<-d.sem
		}()

		var result models.RelayResult
		func() {
			defer func() {
				if r := recover(); r != nil {
					logging.Ctx(detached).Error().Interface("panic", r).Msg("Relay task panicked")
					result = models.Failed(&env, models.ErrorCodeInternal, fmt.Sprintf("relay panicked: %v", r))
				}
			}()
			result = d.relay.Emit(detached, env, rc)
		}()
		task.complete(result)
	}()
	return task
}

// Close stops accepting relays and waits for in-flight ones until ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for relay tasks: %w", ctx.Err())
	}
}

// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

// Package envelope builds the platform-agnostic EventEnvelope shared by the
// browser pixel and the server relay.
//
// Build translates the business event name through the taxonomy table, hashes
// user data, attaches attribution identifiers in clear and guarantees that
// custom data carries a currency and a numeric value. Apart from the clock and
// the id generator, both injectable, Build is a pure function of its inputs.
package envelope

import (
	"strings"
	"time"

	"github.com/tomtom215/pixelrelay/internal/models"
	"github.com/tomtom215/pixelrelay/internal/pii"
)

// DefaultCurrency is the ISO-4217 code applied when no currency is given.
const DefaultCurrency = "BDT"

// Payload is the business-level content of an event.
type Payload struct {
	// User is raw user data; it is hashed during Build.
	User pii.UserInput

	// Value is the monetary value of the event. Zero is a valid value.
	Value float64

	// Currency overrides the builder's default currency.
	Currency string

	// Custom carries scalar business attributes. Non-scalar values are dropped.
	Custom map[string]any

	// SourceURL is the page on which the event happened.
	SourceURL string
}

// Builder assembles event envelopes.
type Builder struct {
	currency string
	now      func() time.Time
	newID    func() string
}

// Option configures a Builder.
type Option func(*Builder)

// WithCurrency sets the default currency.
func WithCurrency(code string) Option {
	return func(b *Builder) {
		if code = strings.TrimSpace(code); code != "" {
			b.currency = strings.ToUpper(code)
		}
	}
}

// WithClock replaces the wall clock used for OccurredAt.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// WithIDGenerator replaces the event id generator.
func WithIDGenerator(gen func() string) Option {
	return func(b *Builder) {
		if gen != nil {
			b.newID = gen
		}
	}
}

// NewBuilder creates a Builder with the BDT currency, the wall clock and
// UUIDv7 event ids unless overridden.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		currency: DefaultCurrency,
		now:      time.Now,
		newID:    NewEventID,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Currency returns the builder's default currency code.
func (b *Builder) Currency() string {
	return b.currency
}

// NewEventID generates an event id with the builder's generator.
func (b *Builder) NewEventID() string {
	return b.newID()
}

// Build assembles the envelope for one occurrence of eventName. When eventID is
// empty a fresh one is generated; callers that emit through several paths must
// pass the same id to every Build.
func (b *Builder) Build(eventName string, p Payload, attr models.AttributionContext, eventID string) models.EventEnvelope {
	if eventID == "" {
		eventID = b.newID()
	}

	userData := pii.HashUserData(p.User)
	userData.Set(models.FieldClickID, attr.ClickID)
	userData.Set(models.FieldBrowserID, attr.BrowserID)
	userData.Set(models.FieldExternalID, attr.ExternalID)
	userData.Set(models.FieldLoginID, attr.LoginID)

	custom := make(models.CustomData, len(p.Custom)+2)
	for k, v := range p.Custom {
		if k == models.CustomCurrency || k == models.CustomValue {
			continue
		}
		if s, ok := scalar(v); ok {
			custom[k] = s
		}
	}
	currency := b.currency
	if c := strings.TrimSpace(p.Currency); c != "" {
		currency = strings.ToUpper(c)
	}
	custom[models.CustomCurrency] = currency
	custom[models.CustomValue] = p.Value

	return models.EventEnvelope{
		EventName:    PlatformName(eventName),
		EventID:      eventID,
		OccurredAt:   b.now().Unix(),
		UserData:     userData,
		CustomData:   custom,
		SourceURL:    p.SourceURL,
		BusinessName: eventName,
	}
}

// scalar normalizes v to a JSON scalar. Integers become float64 so the
// serialized value is the same regardless of the caller's numeric type.
func scalar(v any) (any, bool) {
	switch x := v.(type) {
	case string, bool, float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	default:
		return nil, false
	}
}

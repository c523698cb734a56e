// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package emitter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/pixelrelay/internal/logging"
	"github.com/tomtom215/pixelrelay/internal/metrics"
	"github.com/tomtom215/pixelrelay/internal/models"
)

// Relay defaults.
const (
	DefaultEndpoint   = "https://graph.facebook.com"
	DefaultAPIVersion = "v21.0"
	DefaultTimeout    = 30 * time.Second

	// ActionSourceWebsite marks events that happened on the website.
	ActionSourceWebsite = "website"

	breakerName     = "conversions-api"
	maxResponseBody = 4096
)

// errTransient is reported to the circuit breaker for failures that say
// something about the health of the remote endpoint.
var errTransient = errors.New("transient relay failure")

// RelayConfig configures the ServerRelay.
type RelayConfig struct {
	PixelID       string
	AccessToken   string
	TestEventCode string
	APIVersion    string
	Endpoint      string

	// Timeout bounds one Conversions API call.
	Timeout time.Duration

	// RateLimit is the outbound request rate per second; zero disables limiting.
	RateLimit float64
	RateBurst int

	Breaker BreakerConfig
}

// Journal records relay outcomes.
type Journal interface {
	Record(ctx context.Context, result models.RelayResult) error
}

// ServerRelay posts envelopes to the ad platform's Conversions API.
// Failures are returned as results, never as errors or panics, and are never
// retried.
type ServerRelay struct {
	cfg     RelayConfig
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[models.RelayResult]
	limiter *rate.Limiter
	journal Journal
}

// RelayOption configures a ServerRelay.
type RelayOption func(*ServerRelay)

// WithHTTPClient replaces the HTTP client. Its Timeout is left untouched.
func WithHTTPClient(c *http.Client) RelayOption {
	return func(s *ServerRelay) {
		if c != nil {
			s.client = c
		}
	}
}

// WithJournal records every outcome to j.
func WithJournal(j Journal) RelayOption {
	return func(s *ServerRelay) {
		s.journal = j
	}
}

// NewServerRelay creates a ServerRelay. A relay without pixel id or access
// token is valid and fails every Emit with ErrorCodeNotConfigured.
func NewServerRelay(cfg RelayConfig, opts ...RelayOption) *ServerRelay {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	s := &ServerRelay{
		cfg: cfg,
		url: fmt.Sprintf("%s/%s/%s/events",
			strings.TrimRight(cfg.Endpoint, "/"), cfg.APIVersion, url.PathEscape(cfg.PixelID)),
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: newRelayBreaker(breakerName, cfg.Breaker),
		limiter: limiter,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.Configured() {
		logging.Info().
			Str("pixel_id", cfg.PixelID).
			Str("access_token", logging.RedactToken(cfg.AccessToken)).
			Str("api_version", cfg.APIVersion).
			Bool("test_events", cfg.TestEventCode != "").
			Msg("Server relay configured")
	}
	return s
}

// Configured reports whether both pixel id and access token are set.
func (s *ServerRelay) Configured() bool {
	return s.cfg.PixelID != "" && s.cfg.AccessToken != ""
}

// BreakerState returns the circuit breaker state as a string.
func (s *ServerRelay) BreakerState() string {
	return stateToString(s.breaker.State())
}

type conversionRequest struct {
	Data          []serverEvent `json:"data"`
	AccessToken   string        `json:"access_token"`
	TestEventCode string        `json:"test_event_code,omitempty"`
}

type serverEvent struct {
	EventName      string                `json:"event_name"`
	EventTime      int64                 `json:"event_time"`
	EventID        string                `json:"event_id"`
	UserData       models.HashedUserData `json:"user_data"`
	CustomData     models.CustomData     `json:"custom_data"`
	EventSourceURL string                `json:"event_source_url,omitempty"`
	ActionSource   string                `json:"action_source"`
}

type conversionResponse struct {
	EventsReceived int    `json:"events_received"`
	FBTraceID      string `json:"fbtrace_id"`
	Error          *struct {
		Message   string `json:"message"`
		Type      string `json:"type"`
		Code      int    `json:"code"`
		FBTraceID string `json:"fbtrace_id"`
	} `json:"error,omitempty"`
}

// Emit relays env with the client IP and user agent from rc added to its
// user data. The returned result is also journaled and counted.
func (s *ServerRelay) Emit(ctx context.Context, env models.EventEnvelope, rc RequestContext) models.RelayResult {
	start := time.Now()
	result := s.emit(ctx, &env, rc)
	result.Duration = time.Since(start)
	result.CompletedAt = time.Now()

	metrics.RecordRelay(result.Success, result.ErrorCode, result.Duration)

	logger := logging.Ctx(ctx)
	if result.Success {
		logger.Debug().
			Str("event_id", result.EventID).
			Str("event_name", result.EventName).
			Int("events_received", result.EventsReceived).
			Dur("duration", result.Duration).
			Msg("Relay delivered")
	} else {
		logger.Warn().
			Str("event_id", result.EventID).
			Str("event_name", result.EventName).
			Str("error_code", result.ErrorCode).
			Int("status_code", result.StatusCode).
			Str("error", result.Error).
			Str("client_ip", logging.RedactIP(rc.ClientIP)).
			Str("user_agent", logging.TruncateUserAgent(rc.UserAgent)).
			Msg("Relay failed")
	}

	if s.journal != nil {
		if err := s.journal.Record(ctx, result); err != nil {
			logger.Warn().Err(err).Str("event_id", result.EventID).Msg("Failed to journal relay result")
		}
	}
	return result
}

func (s *ServerRelay) emit(ctx context.Context, env *models.EventEnvelope, rc RequestContext) models.RelayResult {
	if !s.Configured() {
		return models.Failed(env, models.ErrorCodeNotConfigured, "pixel id or access token not configured")
	}

	body, err := s.encode(env, rc)
	if err != nil {
		return models.Failed(env, models.ErrorCodeInternal, fmt.Sprintf("failed to marshal payload: %v", err))
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return models.Failed(env, models.ErrorCodeRateLimited, fmt.Sprintf("outbound rate limit: %v", err))
	}

	result, err := s.breaker.Execute(func() (models.RelayResult, error) {
		r, transient := s.post(ctx, env, body)
		if transient {
			return r, errTransient
		}
		return r, nil
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
		return models.Failed(env, models.ErrorCodeCircuitOpen, fmt.Sprintf("circuit breaker rejected request: %v", err))
	case err != nil:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
	}
	return result
}

func (s *ServerRelay) encode(env *models.EventEnvelope, rc RequestContext) ([]byte, error) {
	userData := env.UserData.Clone()
	userData.Set(models.FieldClientIP, rc.ClientIP)
	userData.Set(models.FieldClientUserAgent, rc.UserAgent)

	return json.Marshal(conversionRequest{
		Data: []serverEvent{{
			EventName:      env.EventName,
			EventTime:      env.OccurredAt,
			EventID:        env.EventID,
			UserData:       userData,
			CustomData:     env.CustomData,
			EventSourceURL: env.SourceURL,
			ActionSource:   ActionSourceWebsite,
		}},
		AccessToken:   s.cfg.AccessToken,
		TestEventCode: s.cfg.TestEventCode,
	})
}

// post performs one call and reports whether a failure was transient.
func (s *ServerRelay) post(ctx context.Context, env *models.EventEnvelope, body []byte) (models.RelayResult, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return models.Failed(env, models.ErrorCodeInternal, fmt.Sprintf("failed to create request: %v", err)), false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "PixelRelay/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return models.Failed(env, models.ErrorCodeConnectionFailed, fmt.Sprintf("failed to reach conversions API: %v", err)), true
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		raw = []byte("(failed to read response)")
	}

	var parsed conversionResponse
	_ = json.Unmarshal(raw, &parsed)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return models.RelayResult{
			Success:        true,
			EventID:        env.EventID,
			EventName:      env.EventName,
			StatusCode:     resp.StatusCode,
			EventsReceived: parsed.EventsReceived,
			FBTraceID:      parsed.FBTraceID,
		}, false
	}

	code := classifyStatusCode(resp.StatusCode)
	result := models.Failed(env, code, fmt.Sprintf("conversions API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	result.StatusCode = resp.StatusCode
	if parsed.Error != nil {
		result.FBTraceID = parsed.Error.FBTraceID
	}
	return result, code == models.ErrorCodeServerError || code == models.ErrorCodeRateLimited
}

func classifyStatusCode(status int) string {
	switch {
	case status == http.StatusTooManyRequests:
		return models.ErrorCodeRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return models.ErrorCodeAuthFailed
	case status >= 500:
		return models.ErrorCodeServerError
	default:
		return models.ErrorCodeInvalidRequest
	}
}

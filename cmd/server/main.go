// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/pixelrelay/internal/api"
	"github.com/tomtom215/pixelrelay/internal/config"
	"github.com/tomtom215/pixelrelay/internal/dispatch"
	"github.com/tomtom215/pixelrelay/internal/emitter"
	"github.com/tomtom215/pixelrelay/internal/envelope"
	"github.com/tomtom215/pixelrelay/internal/identity"
	"github.com/tomtom215/pixelrelay/internal/journal"
	"github.com/tomtom215/pixelrelay/internal/logging"
	"github.com/tomtom215/pixelrelay/internal/supervisor"
	"github.com/tomtom215/pixelrelay/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("addr", cfg.Addr()).
		Bool("journal_enabled", cfg.Journal.Enabled).
		Msg("Starting PixelRelay")

	if !cfg.Pixel.BrowserConfigured() {
		logging.Warn().Msg("FB_PIXEL_ID not set: browser pixel commands are disabled")
	}
	if !cfg.Pixel.ServerConfigured() {
		logging.Warn().Msg("FB_ACCESS_TOKEN not set: server relay will report every event as unconfigured")
	}
	if cfg.HasWildcardCORS() {
		logging.Warn().Msg("CORS allows any origin: identifier cookies will not be sent cross-origin")
	}

	// Relay journal (optional)
	var (
		relayJournal *journal.BadgerJournal
		journalAPI   api.RelayJournal
		relayOpts    []emitter.RelayOption
	)
	if cfg.Journal.Enabled {
		relayJournal, err = journal.Open(journal.Config{
			Path:     cfg.Journal.Path,
			InMemory: cfg.Journal.InMemory,
			TTL:      cfg.Journal.TTL,
		})
		if err != nil {
			logging.Fatal().Err(err).Str("path", cfg.Journal.Path).Msg("Failed to open relay journal")
		}
		journalAPI = relayJournal
		relayOpts = append(relayOpts, emitter.WithJournal(relayJournal))
		logging.Info().Str("path", cfg.Journal.Path).Bool("in_memory", cfg.Journal.InMemory).Msg("Relay journal opened")
	}

	relay := emitter.NewServerRelay(emitter.RelayConfig{
		PixelID:       cfg.Pixel.PixelID,
		AccessToken:   cfg.Pixel.AccessToken,
		TestEventCode: cfg.Pixel.TestEventCode,
		APIVersion:    cfg.Pixel.APIVersion,
		Endpoint:      cfg.Pixel.Endpoint,
		Timeout:       cfg.Relay.Timeout,
		RateLimit:     cfg.Relay.RateLimitPerSecond,
		RateBurst:     cfg.Relay.RateLimitBurst,
		Breaker: emitter.BreakerConfig{
			MaxRequests:  cfg.Relay.Breaker.MaxRequests,
			Interval:     cfg.Relay.Breaker.Interval,
			Timeout:      cfg.Relay.Breaker.Timeout,
			MinRequests:  cfg.Relay.Breaker.MinRequests,
			FailureRatio: cfg.Relay.Breaker.FailureRatio,
		},
	}, relayOpts...)

	var resolverOpts []identity.Option
	if cfg.Pixel.AppID != "" {
		resolverOpts = append(resolverOpts, identity.WithLoginChecker(
			identity.NewSignedRequestChecker(cfg.Pixel.AppID, cfg.Pixel.AppSecret)))
	}
	resolver := identity.NewResolver(identity.Config{
		ClickIDParam:        cfg.Tracking.ClickIDParam,
		ClickIDCookie:       cfg.Tracking.ClickIDCookie,
		BrowserIDCookie:     cfg.Tracking.BrowserIDCookie,
		ExternalIDKey:       cfg.Tracking.ExternalIDKey,
		TrustForwardedProto: cfg.Tracking.TrustForwardedProto,
		LoginTimeout:        cfg.Tracking.LoginTimeout,
	}, resolverOpts...)

	builder := envelope.NewBuilder(envelope.WithCurrency(cfg.Tracking.Currency))
	dispatcher := dispatch.New(builder, resolver, relay, dispatch.Config{
		MaxInFlight: cfg.Relay.MaxInFlight,
		Browser:     emitter.NewClientEmitter(emitter.NewPixelClient(cfg.Pixel.PixelID)),
	})

	handler := api.NewHandler(
		dispatcher,
		relay,
		journalAPI,
		api.HandlerConfig{
			Cookies: identity.CookieConfig{
				Domain: cfg.Tracking.CookieDomain,
				MaxAge: cfg.Tracking.CookieMaxAge,
				Secure: cfg.Tracking.CookieSecure,
			},
			AwaitLogin:      cfg.Tracking.AwaitLogin,
			MaxBodyBytes:    cfg.Security.MaxBodyBytes,
			PixelConfigured: cfg.Pixel.BrowserConfigured(),
		},
	)

	mwConfig := api.DefaultChiMiddlewareConfig()
	mwConfig.CORSAllowedOrigins = cfg.Security.CORSOrigins
	mwConfig.RateLimitRequests = cfg.Security.RateLimitReqs
	mwConfig.RateLimitWindow = cfg.Security.RateLimitWindow
	mwConfig.RateLimitDisabled = cfg.Security.RateLimitDisabled
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting disabled (DISABLE_RATE_LIMIT=true)")
	}
	if cfg.Security.AdminToken == "" {
		logging.Info().Msg("ADMIN_TOKEN not set: relay outcome endpoint is not mounted")
	} else {
		logging.Info().Str("admin_token", logging.RedactToken(cfg.Security.AdminToken)).Msg("Relay outcome endpoint enabled")
	}

	router := api.NewRouter(handler, api.NewChiMiddleware(mwConfig), cfg.Security.AdminToken)
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// sutureslog needs slog; NewSlogLogger writes through zerolog.
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if relayJournal != nil && !cfg.Journal.InMemory {
		tree.AddDataService(services.NewJournalGCService(relayJournal, cfg.Journal.GCInterval, cfg.Journal.DiscardRatio))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout,
		services.WithBeforeShutdown(handler.MarkDraining)))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	// Relays still in flight when the HTTP server stops are drained before
	// the journal they write to is closed.
	steps := []supervisor.ShutdownStep{{Name: "drain relays", Run: dispatcher.Close}}
	if relayJournal != nil {
		steps = append(steps, supervisor.ShutdownStep{Name: "close journal", Run: func(context.Context) error {
			return relayJournal.Close()
		}})
	}

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	if err := tree.Run(ctx, steps...); err != nil {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	logging.Info().Msg("PixelRelay stopped")
}

// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

/*
Package supervisor provides process supervision for PixelRelay using suture v4.

The tree isolates the HTTP surface from background maintenance:

	RootSupervisor ("pixelrelay")
	├── DataSupervisor ("data-layer")
	│   └── JournalGCService (if JOURNAL_ENABLED)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Services that return an error are restarted with suture's backoff. A service
that returns suture.ErrDoNotRestart is removed. Supervisor events are logged
through sutureslog into the process slog logger, which itself writes through
zerolog (see logging.NewSlogLogger).

In-flight relays are not supervised services: they are detached tasks owned
by the dispatcher and drained by main after the tree stops.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))
	errCh := tree.ServeBackground(ctx)
*/
package supervisor

// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

/*
Package supervisor provides process supervision for Steamwatch using suture v4.

# Overview

Every long-running component runs under a three-layer tree:

	RootSupervisor ("steamwatch")
	├── PollSupervisor ("poll-layer")
	│   ├── Poller ("steam-poller")
	│   └── config.Watcher ("config-watcher", when a config file exists)
	├── PushSupervisor ("push-layer")
	│   └── WebSocketHubService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A crash in one layer restarts only that layer's services. The poller's
published views live in atomics, so the API keeps serving the last state
while the poller restarts.

Supervisor events (start, stop, failure, backoff) are logged through
sutureslog into the zerolog-backed slog handler from internal/logging.

# Usage Example

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}

	tree.AddPollService(p)
	tree.AddPushService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.Addr(), 10*time.Second))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    logging.Error().Err(err).Msg("supervisor stopped")
	}

# Failure Handling

Each service failure increments a counter that decays over FailureDecay
seconds. Above FailureThreshold the supervisor waits FailureBackoff before
the next restart.

Return behavior of a Service:
  - nil: stopped cleanly, restarted
  - error: crashed, restarted (with backoff when above the threshold)
  - suture.ErrDoNotRestart: removed from the tree
  - after ctx is canceled: shutdown, not restarted

# Debugging Shutdown Issues

	report, _ := tree.UnstoppedServiceReport()
	for _, svc := range report {
	    logging.Warn().Str("service", svc.Name).Msg("service did not stop")
	}
*/
package supervisor

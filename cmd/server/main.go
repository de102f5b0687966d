// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/steamwatch/internal/api"
	"github.com/tomtom215/steamwatch/internal/cache"
	"github.com/tomtom215/steamwatch/internal/config"
	"github.com/tomtom215/steamwatch/internal/logging"
	"github.com/tomtom215/steamwatch/internal/poller"
	"github.com/tomtom215/steamwatch/internal/ratelimit"
	"github.com/tomtom215/steamwatch/internal/steam"
	"github.com/tomtom215/steamwatch/internal/supervisor"
	"github.com/tomtom215/steamwatch/internal/supervisor/services"
	ws "github.com/tomtom215/steamwatch/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// stores holds the optional on-disk caches.
type stores struct {
	artwork cache.ArtworkStore
	mirror  cache.Mirror
	dbs     []*badger.DB
}

func (s *stores) close() {
	for _, db := range s.dbs {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing cache database")
		}
	}
}

// openStores opens the badger databases for the configured directories.
// When the artwork and response caches share a directory they share one
// database; badger holds an exclusive lock on its directory.
func openStores(cfg *config.Config) (*stores, error) {
	s := &stores{}
	opened := make(map[string]*badger.DB)

	open := func(dir string) (*badger.DB, error) {
		if db, ok := opened[dir]; ok {
			return db, nil
		}
		db, err := cache.OpenBadger(dir)
		if err != nil {
			return nil, err
		}
		opened[dir] = db
		s.dbs = append(s.dbs, db)
		return db, nil
	}

	if dir := cfg.Artwork.StoreDir; dir != "" {
		db, err := open(dir)
		if err != nil {
			s.close()
			return nil, err
		}
		store, err := cache.NewBadgerArtworkStore(db)
		if err != nil {
			s.close()
			return nil, err
		}
		s.artwork = store
		logging.Info().Str("dir", dir).Int("entries", store.Len()).Msg("Artwork store opened")
	}

	if dir := cfg.Cache.Dir; dir != "" {
		db, err := open(dir)
		if err != nil {
			s.close()
			return nil, err
		}
		s.mirror = cache.NewBadgerMirror(db)
		logging.Info().Str("dir", dir).Msg("Response mirror opened")
	}

	return s, nil
}

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().Str("version", version).Msg("Starting Steamwatch with supervisor tree")
	logging.Info().
		Str("steam_id", cfg.Steam.SteamID).
		Dur("poll_interval", cfg.Poller.Interval).
		Dur("rate_limit_interval", cfg.RateLimit.Interval).
		Str("artwork_variant", cfg.Artwork.Variant).
		Bool("artwork_fetch_bytes", cfg.Artwork.FetchBytes).
		Msg("Configuration loaded")

	creds := config.NewCredentials(cfg.Steam)

	st, err := openStores(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open cache stores")
	}
	defer st.close()

	limiter := ratelimit.New(ratelimit.Config{Interval: cfg.RateLimit.Interval})
	client := steam.NewClient(steam.ClientConfig{
		BaseURL:     cfg.Steam.BaseURL,
		Timeout:     cfg.Steam.Timeout,
		Credentials: creds,
		Limiter:     limiter,
	})
	fetcher := steam.NewArtworkFetcher(steam.ArtworkConfig{
		CDNBaseURL: cfg.Steam.CDNBaseURL,
		Variant:    cfg.Artwork.Variant,
		FetchBytes: cfg.Artwork.FetchBytes,
		MaxBytes:   cfg.Artwork.MaxBytes,
		Rate:       cfg.Artwork.CDNRate,
		Burst:      cfg.Artwork.CDNBurst,
	})

	p := poller.New(poller.Config{
		Interval:      cfg.Poller.Interval,
		CycleTimeout:  cfg.Poller.CycleTimeout,
		Credentials:   creds,
		Client:        client,
		Artwork:       cache.NewArtwork(st.artwork, nil),
		ArtworkSource: fetcher,
		PlayerCache: cache.NewStale[steam.PlayerSummary](cache.StaleConfig{
			Name: "player", Unavailable: steam.IsPrivacy, Mirror: st.mirror,
		}),
		FriendsCache: cache.NewStale[steam.FriendsSummary](cache.StaleConfig{
			Name: "friends", Unavailable: steam.IsPrivacy, Mirror: st.mirror,
		}),
	})

	wsHub := ws.NewHub(p.TriggerManualRefresh)
	p.AddPublisher(wsHub)

	handler := api.NewHandler(api.HandlerConfig{
		Poller:      p,
		Artwork:     p.Artwork(),
		Breaker:     client,
		Hub:         wsHub,
		CORSOrigins: cfg.Server.CORSOrigins,
		Version:     version,
	})
	router := api.NewRouter(handler, api.NewChiMiddlewareFromConfig(cfg.Server))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Poller.CycleTimeout + 5*time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// === ADD SERVICES TO SUPERVISOR TREE ===

	tree.AddPollService(p)
	if path := config.ConfigFilePath(); path != "" {
		tree.AddPollService(config.NewWatcher(path, creds))
		logging.Info().Str("path", path).Msg("Credential reload enabled")
	}

	tree.AddPushService(services.NewWebSocketHubService(wsHub))

	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// The channel carries exactly one value and is never closed.
	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
		serveErr = <-errCh
	case serveErr = <-errCh:
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

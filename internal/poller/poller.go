// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

/*
Package poller drives the recurring Steam poll cycle and publishes the result.

Every cycle:
 1. FETCHING: player summary and online friends, each through its response
    cache (upstream failures turn into stale or unavailable entries here)
 2. MERGING: both results merged into a models.Snapshot, artwork for the
    current game resolved through the artwork cache
 3. PUBLISHED: views projected and handed to every Publisher
 4. back to IDLE until the next tick or manual trigger

A cycle never aborts on upstream failure: it always reaches PUBLISHED.

Cycles run on a clockwork ticker (Interval, default 30s), once at start, and
on Trigger. A trigger that arrives while a cycle is in flight, or while
another trigger is already pending, is coalesced into that cycle. Refresh
joins the in-flight cycle (or starts one) through singleflight and waits
for its snapshot.

A started cycle runs to completion even during shutdown: it uses a context
detached from the service context and bounded by CycleTimeout. Only waits
for a rate limiter slot are cut short by shutdown.
*/
package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/steamwatch/internal/cache"
	"github.com/tomtom215/steamwatch/internal/config"
	"github.com/tomtom215/steamwatch/internal/logging"
	"github.com/tomtom215/steamwatch/internal/metrics"
	"github.com/tomtom215/steamwatch/internal/models"
	"github.com/tomtom215/steamwatch/internal/projector"
	"github.com/tomtom215/steamwatch/internal/steam"
)

const (
	DefaultInterval     = 30 * time.Second
	DefaultCycleTimeout = 2 * time.Minute

	cycleKey = "cycle"
)

// Upstream is the subset of *steam.Client the poller uses.
type Upstream interface {
	GetPlayerSummary(ctx context.Context, steamID string) (*steam.PlayerSummary, error)
	CountOnlineFriends(ctx context.Context, steamID string) (steam.FriendsSummary, error)
}

// ArtworkSource resolves a game's cover art. Implemented by
// *steam.ArtworkFetcher.
type ArtworkSource interface {
	Fetch(ctx context.Context, gameID string) (steam.Artwork, error)
}

// Publisher receives every published snapshot with its projected views.
// Publish is called on the poll goroutine and must not block.
type Publisher interface {
	Publish(snap *models.Snapshot, nowPlaying models.NowPlayingView, friends models.FriendsView)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(snap *models.Snapshot, nowPlaying models.NowPlayingView, friends models.FriendsView)

func (f PublisherFunc) Publish(snap *models.Snapshot, nowPlaying models.NowPlayingView, friends models.FriendsView) {
	f(snap, nowPlaying, friends)
}

// Service is the interface the entity layer calls into. All methods are
// non-blocking.
type Service interface {
	NowPlayingView() models.NowPlayingView
	FriendsView() models.FriendsView
	TriggerManualRefresh() bool
}

// Config configures a Poller.
type Config struct {
	Interval     time.Duration
	CycleTimeout time.Duration

	Credentials config.CredentialProvider
	Client      Upstream

	// Optional
	Artwork       *cache.Artwork // default: in-memory artwork cache
	ArtworkSource ArtworkSource  // nil: artwork is never fetched
	PlayerCache   *cache.Stale[steam.PlayerSummary]
	FriendsCache  *cache.Stale[steam.FriendsSummary]
	Publishers    []Publisher
	Clock         clockwork.Clock
}

// Stats is a point-in-time view of poller activity.
type Stats struct {
	Running           bool
	State             string
	Cycles            uint64
	Coalesced         uint64
	LastCycleAt       time.Time
	LastCycleDuration time.Duration
	Degraded          bool
	PlayerCache       cache.StaleStats
	FriendsCache      cache.StaleStats
}

// Poller runs poll cycles and holds the last published views.
type Poller struct {
	interval     time.Duration
	cycleTimeout time.Duration
	creds        config.CredentialProvider
	client       Upstream
	artwork      *cache.Artwork
	artSource    ArtworkSource
	players      *cache.Stale[steam.PlayerSummary]
	friends      *cache.Stale[steam.FriendsSummary]
	publishers   []Publisher
	clock        clockwork.Clock

	state    atomic.Int32
	inFlight atomic.Bool
	trigger  chan struct{} // capacity 1: at most one pending manual cycle
	group    singleflight.Group

	snapshot   atomic.Pointer[models.Snapshot]
	nowPlaying atomic.Pointer[models.NowPlayingView]
	friendView atomic.Pointer[models.FriendsView]

	cycles    atomic.Uint64
	coalesced atomic.Uint64
	lastDur   atomic.Int64

	mu      sync.Mutex
	running bool
	runCtx  context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a Poller. Credentials and Client are required.
func New(cfg Config) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.CycleTimeout <= 0 {
		cfg.CycleTimeout = DefaultCycleTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Artwork == nil {
		cfg.Artwork = cache.NewArtwork(nil, cfg.Clock)
	}
	if cfg.PlayerCache == nil {
		cfg.PlayerCache = cache.NewStale[steam.PlayerSummary](cache.StaleConfig{
			Name: "player", Unavailable: steam.IsPrivacy, Clock: cfg.Clock,
		})
	}
	if cfg.FriendsCache == nil {
		cfg.FriendsCache = cache.NewStale[steam.FriendsSummary](cache.StaleConfig{
			Name: "friends", Unavailable: steam.IsPrivacy, Clock: cfg.Clock,
		})
	}

	p := &Poller{
		interval:     cfg.Interval,
		cycleTimeout: cfg.CycleTimeout,
		creds:        cfg.Credentials,
		client:       cfg.Client,
		artwork:      cfg.Artwork,
		artSource:    cfg.ArtworkSource,
		players:      cfg.PlayerCache,
		friends:      cfg.FriendsCache,
		publishers:   cfg.Publishers,
		clock:        cfg.Clock,
		trigger:      make(chan struct{}, 1),
	}

	np, fv := projector.Project(nil, nil)
	p.nowPlaying.Store(&np)
	p.friendView.Store(&fv)
	return p
}

// AddPublisher registers pub for subsequent cycles. Call before Start.
func (p *Poller) AddPublisher(pub Publisher) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.publishers = append(p.publishers, pub)
}

// Start restores mirrored cache entries and begins the poll loop. Calling
// Start on a running poller does nothing.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.runCtx, p.cancel = context.WithCancel(ctx)
	runCtx := p.runCtx
	p.mu.Unlock()

	p.restore()

	logging.Info().
		Dur("interval", p.interval).
		Dur("cycle_timeout", p.cycleTimeout).
		Msg("Starting Steam poller")

	p.wg.Add(1)
	go p.loop(runCtx)
	return nil
}

// Stop ends the poll loop and waits for an in-flight cycle to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.cancel()
	p.mu.Unlock()

	p.wg.Wait()
	logging.Info().Msg("Steam poller stopped")
}

// Serve implements suture.Service.
func (p *Poller) Serve(ctx context.Context) error {
	if err := p.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	p.Stop()
	return ctx.Err()
}

// String implements fmt.Stringer for suture logs.
func (p *Poller) String() string {
	return "steam-poller"
}

// IsRunning reports whether the poll loop is active.
func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// State returns the current cycle state.
func (p *Poller) State() State {
	return State(p.state.Load())
}

func (p *Poller) setState(s State) {
	p.state.Store(int32(s))
	metrics.PollerState.Set(float64(s))
}

// Trigger requests a manual cycle without waiting for it. It returns false
// when the request was coalesced into an in-flight or already pending
// cycle, or when the poller is not running.
func (p *Poller) Trigger() bool {
	if !p.IsRunning() {
		return false
	}
	if p.inFlight.Load() {
		p.markCoalesced("in_flight")
		return false
	}
	select {
	case p.trigger <- struct{}{}:
		return true
	default:
		p.markCoalesced("pending")
		return false
	}
}

func (p *Poller) markCoalesced(reason string) {
	p.coalesced.Add(1)
	metrics.PollTriggersCoalesced.Inc()
	logging.Debug().Str("reason", reason).Msg("Manual refresh coalesced")
}

// TriggerManualRefresh implements Service.
func (p *Poller) TriggerManualRefresh() bool {
	return p.Trigger()
}

// Refresh runs a cycle, or joins the one in flight, and returns its
// snapshot. ctx only bounds the wait: the cycle itself runs to completion.
func (p *Poller) Refresh(ctx context.Context) (*models.Snapshot, error) {
	base := p.baseContext()
	ch := p.group.DoChan(cycleKey, func() (any, error) {
		return p.cycle(base, TriggerManual), nil
	})

	select {
	case res := <-ch:
		return res.Val.(*models.Snapshot), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Poller) baseContext() context.Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.runCtx != nil && p.running {
		return p.runCtx
	}
	return context.Background()
}

// Snapshot returns the last published snapshot, or nil before the first
// cycle completes.
func (p *Poller) Snapshot() *models.Snapshot {
	return p.snapshot.Load()
}

// NowPlayingView implements Service.
func (p *Poller) NowPlayingView() models.NowPlayingView {
	return *p.nowPlaying.Load()
}

// FriendsView implements Service.
func (p *Poller) FriendsView() models.FriendsView {
	return *p.friendView.Load()
}

// Artwork returns the artwork cache.
func (p *Poller) Artwork() *cache.Artwork {
	return p.artwork
}

// Stats returns poller counters.
func (p *Poller) Stats() Stats {
	s := Stats{
		Running:           p.IsRunning(),
		State:             p.State().String(),
		Cycles:            p.cycles.Load(),
		Coalesced:         p.coalesced.Load(),
		LastCycleDuration: time.Duration(p.lastDur.Load()),
		PlayerCache:       p.players.Stats(),
		FriendsCache:      p.friends.Stats(),
	}
	if snap := p.snapshot.Load(); snap != nil {
		s.LastCycleAt = snap.PublishedAt
		s.Degraded = snap.Degraded
	}
	return s
}

func (p *Poller) loop(ctx context.Context) {
	defer p.wg.Done()

	p.runCycle(ctx, TriggerStartup)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			p.runCycle(ctx, TriggerTimer)
		case <-p.trigger:
			p.runCycle(ctx, TriggerManual)
		}
	}
}

// runCycle runs a cycle unless a Refresh-initiated one is in flight, in
// which case it waits for that one.
func (p *Poller) runCycle(ctx context.Context, trigger string) {
	_, _, _ = p.group.Do(cycleKey, func() (any, error) {
		return p.cycle(ctx, trigger), nil
	})
}

// restore seeds both caches from the persistent mirror, if configured.
func (p *Poller) restore() {
	_, steamID := p.creds.Credentials()
	if steamID == "" {
		return
	}
	if ok, err := p.players.Restore(steamID); err != nil {
		logging.Warn().Err(err).Msg("Failed to restore player cache")
	} else if ok {
		logging.Info().Str("steam_id", steamID).Msg("Restored last player summary")
	}
	if ok, err := p.friends.Restore(steamID); err != nil {
		logging.Warn().Err(err).Msg("Failed to restore friends cache")
	} else if ok {
		logging.Info().Str("steam_id", steamID).Msg("Restored last friends count")
	}
}

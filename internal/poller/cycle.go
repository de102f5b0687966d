// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

package poller

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/tomtom215/steamwatch/internal/cache"
	"github.com/tomtom215/steamwatch/internal/logging"
	"github.com/tomtom215/steamwatch/internal/metrics"
	"github.com/tomtom215/steamwatch/internal/models"
	"github.com/tomtom215/steamwatch/internal/projector"
	"github.com/tomtom215/steamwatch/internal/ratelimit"
	"github.com/tomtom215/steamwatch/internal/steam"
)

// cycle runs one full poll cycle and publishes its snapshot. shutdown only
// cancels rate limiter waits; the cycle context is detached from it.
func (p *Poller) cycle(shutdown context.Context, trigger string) *models.Snapshot {
	p.inFlight.Store(true)
	p.absorbPendingTrigger()

	n := p.cycles.Add(1)
	start := p.clock.Now()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(shutdown), p.cycleTimeout)
	defer cancel()
	ctx = ratelimit.WithShutdown(ctx, shutdown)
	ctx = logging.ContextWithNewCorrelationID(ctx)
	log := logging.Ctx(ctx).With().Str("component", "poller").Uint64("cycle", n).Str("trigger", trigger).Logger()

	p.setState(StateFetching)
	_, steamID := p.creds.Credentials()

	player, _ := p.players.GetOrRefresh(ctx, steamID, func(ctx context.Context) (steam.PlayerSummary, error) {
		s, err := p.client.GetPlayerSummary(ctx, steamID)
		if err != nil {
			return steam.PlayerSummary{}, err
		}
		return *s, nil
	})
	friends, _ := p.friends.GetOrRefresh(ctx, steamID, func(ctx context.Context) (steam.FriendsSummary, error) {
		return p.client.CountOnlineFriends(ctx, steamID)
	})

	p.setState(StateMerging)
	snap := &models.Snapshot{
		Player:        playerSnapshot(steamID, player),
		Friends:       friendsSnapshot(friends),
		Cycle:         n,
		Trigger:       trigger,
		CorrelationID: logging.CorrelationIDFromContext(ctx),
	}
	snap.Degraded, snap.DegradedReason = degradation(player.Cause, friends.Cause)
	logFailure(&log, "player", player.Cause, player.Stale)
	logFailure(&log, "friends", friends.Cause, friends.Stale)

	if snap.Player != nil && snap.Player.IsPlaying {
		p.resolveArtwork(ctx, snap.Player.GameID)
	}

	snap.PublishedAt = p.clock.Now()
	nowPlaying, friendsView := projector.Project(snap, p.artwork)

	p.setState(StatePublished)
	p.snapshot.Store(snap)
	p.nowPlaying.Store(&nowPlaying)
	p.friendView.Store(&friendsView)

	p.mu.Lock()
	publishers := p.publishers
	p.mu.Unlock()
	for _, pub := range publishers {
		pub.Publish(snap, nowPlaying, friendsView)
	}

	dur := p.clock.Since(start)
	p.lastDur.Store(int64(dur))
	metrics.RecordPollCycle(trigger, dur, snap.PublishedAt)

	log.Debug().
		Dur("duration", dur).
		Str("now_playing", nowPlaying.Title).
		Str("friends", friendsView.DisplayText).
		Bool("stale", snap.Stale()).
		Bool("degraded", snap.Degraded).
		Msg("Poll cycle published")

	p.inFlight.Store(false)
	p.setState(StateIdle)
	return snap
}

// absorbPendingTrigger drops a manual trigger queued before this cycle
// marked itself in flight. The cycle has not fetched yet, so it serves that
// trigger.
func (p *Poller) absorbPendingTrigger() {
	select {
	case <-p.trigger:
		p.markCoalesced("cycle_starting")
	default:
	}
}

// resolveArtwork makes sure the artwork of gameID is cached. Failures leave
// the placeholder in place and are retried next cycle.
func (p *Poller) resolveArtwork(ctx context.Context, gameID string) {
	if p.artSource == nil || gameID == "" {
		return
	}
	_, err := p.artwork.Get(ctx, gameID, func(ctx context.Context, gameID string) (cache.ArtworkEntry, error) {
		art, err := p.artSource.Fetch(ctx, gameID)
		if err != nil {
			return cache.ArtworkEntry{}, err
		}
		return cache.ArtworkEntry{
			GameID:      art.GameID,
			URL:         art.URL,
			ContentType: art.ContentType,
			Data:        art.Data,
		}, nil
	})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("game_id", gameID).Msg("Artwork fetch failed")
	}
}

func playerSnapshot(steamID string, e cache.Entry[steam.PlayerSummary]) *models.PlayerSnapshot {
	switch {
	case e.Unavailable:
		return &models.PlayerSnapshot{
			PlayerID:      steamID,
			LastFetchedAt: e.FetchedAt,
			Source:        models.SourceUnavailable,
		}
	case e.FetchedAt.IsZero():
		// Nothing ever fetched.
		return nil
	}

	s := e.Value
	snap := &models.PlayerSnapshot{
		PlayerID:         s.SteamID,
		PersonaName:      s.PersonaName,
		PersonaState:     s.PersonaState,
		PersonaStateName: steam.PersonaStateName(s.PersonaState),
		IsPlaying:        s.InGame(),
		GameID:           s.GameID,
		GameName:         s.GameExtraInfo,
		AvatarURL:        s.AvatarFull,
		LastFetchedAt:    e.FetchedAt,
		Source:           models.SourceLive,
	}
	if snap.PlayerID == "" {
		snap.PlayerID = steamID
	}
	if e.Stale {
		snap.Source = models.SourceCached
	}
	return snap
}

func friendsSnapshot(e cache.Entry[steam.FriendsSummary]) *models.FriendsSnapshot {
	switch {
	case e.Unavailable:
		return &models.FriendsSnapshot{LastFetchedAt: e.FetchedAt, Source: models.SourceUnavailable}
	case e.FetchedAt.IsZero():
		return nil
	}

	snap := &models.FriendsSnapshot{
		OnlineCount:   e.Value.Online,
		TotalCount:    e.Value.Total,
		LastFetchedAt: e.FetchedAt,
		Source:        models.SourceLive,
	}
	if e.Stale {
		snap.Source = models.SourceCached
	}
	return snap
}

// degradation reports whether the credentials were rejected this cycle.
func degradation(causes ...error) (bool, string) {
	for _, err := range causes {
		if err == nil || !steam.IsAuth(err) {
			continue
		}
		if errors.Is(err, steam.ErrNoCredentials) {
			return true, "Steam API key not configured"
		}
		return true, "Steam API key rejected"
	}
	return false, ""
}

func logFailure(log *zerolog.Logger, what string, err error, stale bool) {
	if err == nil {
		return
	}
	var ev *zerolog.Event
	switch steam.KindOf(err) {
	case steam.KindPrivacy:
		ev = log.Debug()
	case steam.KindAuth:
		ev = log.Error()
	default:
		ev = log.Warn()
	}
	ev.Err(err).
		Str("data", what).
		Str("kind", steam.KindOf(err).String()).
		Bool("serving_stale", stale).
		Msg("Steam fetch failed")
}

// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/steamwatch/internal/logging"
	"github.com/tomtom215/steamwatch/internal/models"
	"github.com/tomtom215/steamwatch/internal/validation"
)

// NowPlaying returns the current NowPlayingView.
func (h *Handler) NowPlaying(w http.ResponseWriter, r *http.Request) {
	view := h.poller.NowPlayingView()
	respondSuccess(w, http.StatusOK, view, snapshotMeta(h.poller.Snapshot(), view.Stale))
}

// Friends returns the current FriendsView.
func (h *Handler) Friends(w http.ResponseWriter, r *http.Request) {
	view := h.poller.FriendsView()
	respondSuccess(w, http.StatusOK, view, snapshotMeta(h.poller.Snapshot(), view.Stale))
}

// Snapshot returns the last published snapshot, or 503 before the first
// poll cycle completes.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snap := h.poller.Snapshot()
	if snap == nil {
		respondError(w, http.StatusServiceUnavailable, CodeNotReady, ErrNotReady.Error(), nil)
		return
	}
	respondSuccess(w, http.StatusOK, snap, snapshotMeta(snap, snap.Stale()))
}

// Refresh requests a manual poll cycle. It always answers 202: a request
// absorbed by an in-flight or pending cycle is reported as coalesced.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	accepted := h.poller.TriggerManualRefresh()

	logging.Ctx(r.Context()).Debug().Bool("accepted", accepted).Msg("manual refresh requested")

	respondSuccess(w, http.StatusAccepted, models.RefreshResponse{
		Accepted:  accepted,
		Coalesced: !accepted,
	}, models.Metadata{})
}

// Artwork serves the cached cover art of a game.
//
// Cached bytes are served directly. When only the CDN URL is cached the
// client is redirected there. The handler never fetches: artwork is
// resolved by the poller when the game first appears.
func (h *Handler) Artwork(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")
	if !validation.ValidAppID(gameID) {
		respondError(w, http.StatusBadRequest, CodeValidation, "gameID must be a positive integer", nil)
		return
	}

	entry, ok := h.artwork.Lookup(gameID)
	if !ok {
		respondError(w, http.StatusNotFound, CodeNotFound, "No artwork cached for game "+gameID, nil)
		return
	}

	if !entry.HasData() {
		http.Redirect(w, r, entry.URL, http.StatusFound)
		return
	}

	etag := `"` + generateETag(entry.Data) + `"`
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	contentType := entry.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(entry.Data)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("ETag", etag)
	w.Header().Set("Last-Modified", entry.CachedAt.UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(entry.Data); err != nil {
		logging.Error().Err(err).Str("game_id", gameID).Msg("Failed to write artwork")
	}
}

// uptime returns seconds since the handler was created.
func (h *Handler) uptime() float64 {
	return time.Since(h.startTime).Seconds()
}

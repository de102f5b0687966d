// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

package steam

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultCDNBaseURL serves store artwork for every app id.
const DefaultCDNBaseURL = "https://cdn.cloudflare.steamstatic.com"

// Artwork variants available on the CDN.
const (
	VariantLibrary = "library" // 600x900 portrait capsule
	VariantHeader  = "header"  // 460x215 store header
)

var errArtworkTooLarge = errors.New("artwork exceeds size limit")

// Artwork is the result of resolving a game's cover art.
type Artwork struct {
	GameID      string
	URL         string
	ContentType string
	Data        []byte // nil unless byte fetching is enabled
}

// ArtworkConfig configures an ArtworkFetcher.
type ArtworkConfig struct {
	CDNBaseURL string
	Variant    string
	FetchBytes bool
	MaxBytes   int64
	Rate       float64 // CDN requests per second
	Burst      int
	HTTPClient *http.Client
}

// ArtworkFetcher resolves cover art on the Steam CDN.
//
// The CDN is not part of the Web API quota, so it does not share the
// ratelimit.Limiter. A token bucket keeps bursts of new games from hammering
// it all the same.
type ArtworkFetcher struct {
	cdnBase    string
	variant    string
	fetchBytes bool
	maxBytes   int64
	limiter    *rate.Limiter
	httpClient *http.Client
}

// NewArtworkFetcher creates an ArtworkFetcher.
func NewArtworkFetcher(cfg ArtworkConfig) *ArtworkFetcher {
	if cfg.CDNBaseURL == "" {
		cfg.CDNBaseURL = DefaultCDNBaseURL
	}
	if cfg.Variant == "" {
		cfg.Variant = VariantLibrary
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 2 << 20
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &ArtworkFetcher{
		cdnBase:    strings.TrimRight(cfg.CDNBaseURL, "/"),
		variant:    cfg.Variant,
		fetchBytes: cfg.FetchBytes,
		maxBytes:   cfg.MaxBytes,
		limiter:    rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
		httpClient: cfg.HTTPClient,
	}
}

// URL returns the CDN image URL for gameID.
func (f *ArtworkFetcher) URL(gameID string) string {
	file := "library_600x900.jpg"
	if f.variant == VariantHeader {
		file = "header.jpg"
	}
	return fmt.Sprintf("%s/steam/apps/%s/%s", f.cdnBase, gameID, file)
}

// Fetch resolves the artwork of gameID. Without byte fetching this only
// builds the URL and never touches the network.
func (f *ArtworkFetcher) Fetch(ctx context.Context, gameID string) (Artwork, error) {
	art := Artwork{GameID: gameID, URL: f.URL(gameID)}
	if !f.fetchBytes {
		return art, nil
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return Artwork{}, fmt.Errorf("artwork %s: %w", gameID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, art.URL, http.NoBody)
	if err != nil {
		return Artwork{}, fmt.Errorf("artwork %s: create request: %w", gameID, err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return Artwork{}, fmt.Errorf("artwork %s: %w", gameID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Artwork{}, fmt.Errorf("artwork %s: unexpected status: %s", gameID, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return Artwork{}, fmt.Errorf("artwork %s: read body: %w", gameID, err)
	}
	if int64(len(data)) > f.maxBytes {
		return Artwork{}, fmt.Errorf("artwork %s: %w (%d bytes)", gameID, errArtworkTooLarge, f.maxBytes)
	}

	art.Data = data
	art.ContentType = resp.Header.Get("Content-Type")
	if art.ContentType == "" {
		art.ContentType = http.DetectContentType(data)
	}
	return art, nil
}

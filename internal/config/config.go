// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

// Package config loads Steamwatch configuration from defaults, an optional
// YAML file and environment variables using Koanf v2.
//
// Configuration Loading Order:
//  1. Defaults: built-in values from defaultConfig()
//  2. Config File: config.yaml (or the file named by CONFIG_PATH)
//  3. Environment Variables: override any setting
//
// Only the Steam credentials are hot-reloadable (see Credentials and
// Watcher); every other setting is fixed for the life of the process.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
//
// Config is immutable after LoadWithKoanf() and safe for concurrent reads.
type Config struct {
	Steam     SteamConfig     `koanf:"steam"`
	Poller    PollerConfig    `koanf:"poller"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Artwork   ArtworkConfig   `koanf:"artwork"`
	Cache     CacheConfig     `koanf:"cache"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// SteamConfig holds the upstream Web API settings.
//
// Environment Variables:
//   - STEAM_API_KEY: Web API key (required)
//   - STEAM_ID: 64-bit Steam ID of the watched account (required)
//   - STEAM_API_BASE_URL: API base URL (default: https://api.steampowered.com)
//   - STEAM_CDN_BASE_URL: artwork CDN base URL (default: https://cdn.cloudflare.steamstatic.com)
//   - STEAM_HTTP_TIMEOUT: per-request timeout (default: 30s)
type SteamConfig struct {
	APIKey     string        `koanf:"api_key" validate:"required"`
	SteamID    string        `koanf:"steam_id" validate:"required,steamid"`
	BaseURL    string        `koanf:"base_url" validate:"required,url"`
	CDNBaseURL string        `koanf:"cdn_base_url" validate:"required,url"`
	Timeout    time.Duration `koanf:"timeout" validate:"gt=0"`
}

// PollerConfig controls the recurring poll cycle.
//
// Environment Variables:
//   - POLL_INTERVAL: time between cycles (default: 30s)
//   - POLL_CYCLE_TIMEOUT: upper bound for one cycle once started (default: 2m)
type PollerConfig struct {
	Interval     time.Duration `koanf:"interval" validate:"gt=0"`
	CycleTimeout time.Duration `koanf:"cycle_timeout" validate:"gt=0"`
}

// RateLimitConfig controls outbound request spacing toward the Web API.
//
// Environment Variables:
//   - RATE_LIMIT_INTERVAL: minimum spacing between upstream requests (default: 1s)
type RateLimitConfig struct {
	Interval time.Duration `koanf:"interval" validate:"gt=0"`
}

// ArtworkConfig controls the game cover-art cache.
//
// Environment Variables:
//   - ARTWORK_VARIANT: library (600x900 portrait) or header (default: library)
//   - ARTWORK_FETCH_BYTES: download image bytes instead of caching only the URL (default: false)
//   - ARTWORK_MAX_BYTES: size cap for a downloaded image (default: 2 MiB)
//   - ARTWORK_CDN_RATE: CDN requests per second (default: 2)
//   - ARTWORK_CACHE_DIR: Badger directory for persistent artwork (default: in-memory)
type ArtworkConfig struct {
	Variant    string  `koanf:"variant" validate:"oneof=library header"`
	FetchBytes bool    `koanf:"fetch_bytes"`
	MaxBytes   int64   `koanf:"max_bytes" validate:"gt=0"`
	CDNRate    float64 `koanf:"cdn_rate" validate:"gt=0"`
	CDNBurst   int     `koanf:"cdn_burst" validate:"gte=1"`
	StoreDir   string  `koanf:"store_dir"`
}

// CacheConfig controls the response cache mirror.
//
// Environment Variables:
//   - RESPONSE_CACHE_DIR: Badger directory mirroring last-known-good responses (default: disabled)
type CacheConfig struct {
	Dir string `koanf:"dir"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_HOST: bind address (default: 0.0.0.0)
//   - HTTP_PORT: listen port (default: 8737)
//   - HTTP_TIMEOUT: read/write timeout (default: 30s)
//   - CORS_ORIGINS: comma-separated allowed origins (default: *)
//   - API_RATE_LIMIT: requests per window per client IP (default: 120)
//   - API_RATE_LIMIT_WINDOW: rate limit window (default: 1m)
type ServerConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"gte=0"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig holds logging settings.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

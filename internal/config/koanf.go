// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/steamwatch/internal/validation"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/steamwatch/config.yaml",
	"/etc/steamwatch/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with every optional setting populated.
func defaultConfig() *Config {
	return &Config{
		Steam: SteamConfig{
			APIKey:     "",
			SteamID:    "",
			BaseURL:    "https://api.steampowered.com",
			CDNBaseURL: "https://cdn.cloudflare.steamstatic.com",
			Timeout:    30 * time.Second,
		},
		Poller: PollerConfig{
			Interval:     30 * time.Second,
			CycleTimeout: 2 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Interval: time.Second, // Steam Web API ceiling: 1 request/second
		},
		Artwork: ArtworkConfig{
			Variant:    "library",
			FetchBytes: false,
			MaxBytes:   2 << 20,
			CDNRate:    2,
			CDNBurst:   2,
			StoreDir:   "",
		},
		Cache: CacheConfig{
			Dir: "",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8737,
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   120,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration with layered sources:
//  1. Defaults
//  2. Config File (optional)
//  3. Environment Variables
//
// The result is validated before it is returned.
func LoadWithKoanf() (*Config, error) {
	return load(findConfigFile())
}

// LoadFile loads configuration using path as the config file layer. An empty
// path skips the file layer.
func LoadFile(path string) (*Config, error) {
	return load(path)
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// STEAM_API_KEY -> steam.api_key, POLL_INTERVAL -> poller.interval, ...
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	// Accept STEAM_0:x:y and [U:1:n] forms but always hand the client a Steam64 ID.
	sid, err := validation.NormalizeSteamID(cfg.Steam.SteamID)
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	cfg.Steam.SteamID = sid

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "" when none is found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigFilePath returns the config file LoadWithKoanf would read, or "".
func ConfigFilePath() string {
	return findConfigFile()
}

var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields splits comma-separated env values for slice fields.
// Values that came from YAML are already slices and are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

var envMappings = map[string]string{
	"steam_api_key":      "steam.api_key",
	"steam_id":           "steam.steam_id",
	"steam_api_base_url": "steam.base_url",
	"steam_cdn_base_url": "steam.cdn_base_url",
	"steam_http_timeout": "steam.timeout",

	"poll_interval":      "poller.interval",
	"poll_cycle_timeout": "poller.cycle_timeout",

	"rate_limit_interval": "rate_limit.interval",

	"artwork_variant":     "artwork.variant",
	"artwork_fetch_bytes": "artwork.fetch_bytes",
	"artwork_max_bytes":   "artwork.max_bytes",
	"artwork_cdn_rate":    "artwork.cdn_rate",
	"artwork_cdn_burst":   "artwork.cdn_burst",
	"artwork_cache_dir":   "artwork.store_dir",

	"response_cache_dir": "cache.dir",

	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_timeout":          "server.timeout",
	"cors_origins":          "server.cors_origins",
	"api_rate_limit":        "server.rate_limit_reqs",
	"api_rate_limit_window": "server.rate_limit_window",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps environment variable names to koanf paths.
// Unmapped variables return "" and are skipped so unrelated environment
// does not leak into the configuration.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

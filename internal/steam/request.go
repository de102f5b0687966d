// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

/*
request.go - Steam Web API Request Execution

Request flow for every call:
 1. circuit breaker admits the call (open circuit: fail fast, transient)
 2. API key read from the CredentialProvider (missing: auth failure)
 3. rate limiter grants a slot
 4. HTTP GET with key and format=json
 5. HTTP 429: back off (Retry-After or 1s, 2s, 4s) and repeat from step 3
 6. status classified, body decoded with goccy/go-json

Classification:
  - transport error, timeout, 5xx, other non-200, undecodable body: KindTransient
  - 401: auth
  - 403: the endpoint's forbidden Kind (auth or privacy)
*/

//nolint:staticcheck // File documentation, not package doc
package steam

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/steamwatch/internal/logging"
	"github.com/tomtom215/steamwatch/internal/metrics"
)

// maxErrorBodySize caps how much of an error response is kept for logs.
const maxErrorBodySize = 4 * 1024

var (
	errNoFriendsList = errors.New("response has no friendslist (friends list is private)")
	errRateLimited   = errors.New("rate limited (HTTP 429) after retries")
)

func errNoPlayer(steamID string) error {
	return fmt.Errorf("no player returned for %s", steamID)
}

func errPrivateProfile(steamID string) error {
	return fmt.Errorf("profile %s is not public", steamID)
}

type requestConfig struct {
	op        string
	path      string
	query     url.Values
	forbidden Kind // Kind reported for 403
}

// doRequest executes cfg through the breaker and decodes a 200 body into result.
func (c *Client) doRequest(ctx context.Context, cfg requestConfig, result any) error {
	_, err := c.breaker.execute(cfg.op, func() (any, error) {
		return nil, c.doRequestWithRateLimit(ctx, cfg, result)
	})
	return err
}

// doRequestWithRateLimit performs the request, retrying HTTP 429 up to
// maxRetries times. Every attempt re-acquires the limiter.
func (c *Client) doRequestWithRateLimit(ctx context.Context, cfg requestConfig, result any) error {
	apiKey, _ := c.creds.Credentials()
	if apiKey == "" {
		return &Error{Kind: KindAuth, Op: cfg.op, Err: ErrNoCredentials}
	}

	query := url.Values{}
	for k, v := range cfg.query {
		query[k] = v
	}
	query.Set("key", apiKey)
	query.Set("format", "json")
	reqURL := strings.TrimRight(c.baseURL, "/") + cfg.path + "?" + query.Encode()

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Acquire(ctx); err != nil {
			return &Error{Kind: KindTransient, Op: cfg.op, Err: err}
		}

		retryAfter, err := c.attempt(ctx, cfg, reqURL, result)
		if retryAfter == 0 {
			return err
		}

		if attempt == c.maxRetries {
			metrics.RecordUpstreamRequest(cfg.op, KindTransient.String(), 0)
			return &Error{Kind: KindTransient, Op: cfg.op, Status: http.StatusTooManyRequests, Err: errRateLimited}
		}

		delay := c.baseDelay * (1 << attempt)
		if retryAfter > 0 {
			delay = retryAfter
		}
		metrics.UpstreamRetries.WithLabelValues(cfg.op).Inc()
		logging.Ctx(ctx).Warn().
			Str("op", cfg.op).
			Dur("retry_delay", delay).
			Int("attempt", attempt+1).
			Int("max_retries", c.maxRetries).
			Msg("Steam Web API rate limited (HTTP 429), retrying")

		select {
		case <-ctx.Done():
			return &Error{Kind: KindTransient, Op: cfg.op, Err: ctx.Err()}
		case <-c.clock.After(delay):
		}
	}
}

// attempt issues one HTTP request. A non-zero retryAfter means the response
// was HTTP 429: a positive value is the server's Retry-After, -1 means none
// was sent.
func (c *Client) attempt(ctx context.Context, cfg requestConfig, reqURL string, result any) (retryAfter time.Duration, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return 0, &Error{Kind: KindTransient, Op: cfg.op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(cfg.op, KindTransient.String(), time.Since(start))
		return 0, &Error{Kind: KindTransient, Op: cfg.op, Err: fmt.Errorf("execute request: %w", redactKey(err))}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
		return parseRetryAfter(resp.Header.Get("Retry-After")), nil
	}

	if resp.StatusCode != http.StatusOK {
		kind := classifyStatus(resp.StatusCode, cfg.forbidden)
		metrics.RecordUpstreamRequest(cfg.op, kind.String(), time.Since(start))
		body := readBodyForError(resp.Body)
		return 0, &Error{Kind: kind, Op: cfg.op, Status: resp.StatusCode, Err: fmt.Errorf("unexpected status: %s: %s", resp.Status, body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		metrics.RecordUpstreamRequest(cfg.op, KindTransient.String(), time.Since(start))
		return 0, &Error{Kind: KindTransient, Op: cfg.op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	metrics.RecordUpstreamRequest(cfg.op, "success", time.Since(start))
	return 0, nil
}

// parseRetryAfter reads a delay-seconds Retry-After value. HTTP-date values
// are not used by Steam and fall back to exponential backoff.
func parseRetryAfter(v string) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return -1
}

func readBodyForError(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return "(failed to read response body)"
	}
	return strings.TrimSpace(string(body))
}

// redactKey strips the query string from *url.Error so the API key never
// reaches logs.
func redactKey(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		if u, perr := url.Parse(uerr.URL); perr == nil {
			u.RawQuery = ""
			return &url.Error{Op: uerr.Op, URL: u.String(), Err: uerr.Err}
		}
	}
	return err
}

func joinIDs(ids []string) string {
	return strings.Join(ids, ",")
}

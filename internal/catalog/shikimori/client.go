// Package shikimori provides a rate-limited client for the Shikimori GraphQL
// catalog, the remote source behind the anime metadata cache.
package shikimori

import (
	"bytes"
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sekaibot/sekai-server/internal/config"
	"github.com/sekaibot/sekai-server/internal/ratelimit"
)

const (
	// Rate limit defaults: Shikimori allows 5 rps per client.
	defaultRPS   = 5.0
	defaultBurst = 5

	// HTTP client settings.
	defaultTimeout = 10 * time.Second

	// API settings.
	defaultLimit = 10
	maxLimit     = 50

	// browsePageSize is the upstream page size for filter browsing; large
	// pages reduce the number of round trips inside the request budget.
	browsePageSize = 50
)

// Rate limiter keys, one bucket per query shape.
const (
	keySearch = "search"
	keyByID   = "byid"
	keyBrowse = "browse"
)

// Client is a rate-limited Shikimori GraphQL client.
type Client struct {
	http      *http.Client
	limiter   *ratelimit.KeyedRateLimiter
	logger    *slog.Logger
	url       string
	userAgent string

	browseMaxRequests int
	browseMaxPage     int
}

// New creates a new Shikimori client from configuration.
func New(cfg config.ShikimoriConfig, logger *slog.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRPS
	}
	maxRequests := cfg.BrowseMaxRequests
	if maxRequests <= 0 {
		maxRequests = 10
	}
	maxPage := cfg.BrowseMaxPage
	if maxPage <= 0 {
		maxPage = 10
	}

	return &Client{
		http: &http.Client{
			Timeout: timeout,
		},
		limiter:           ratelimit.New(rps, defaultBurst),
		logger:            logger,
		url:               cfg.GraphQLURL,
		userAgent:         cfg.UserAgent,
		browseMaxRequests: maxRequests,
		browseMaxPage:     maxPage,
	}
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// gqlRequest is the GraphQL POST body.
type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// doQuery executes a GraphQL query with rate limiting and decodes the data
// envelope into out.
func (c *Client) doQuery(ctx context.Context, key, query string, variables map[string]any, out any) error {
	// Wait for rate limit.
	if err := c.limiter.Wait(ctx, key); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	payload, err := json.Marshal(gqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("shikimori request",
		"key", key,
		"variables", variables,
	)

	resp, err := c.http.Do(req)
	if err != nil {
		// Timeouts count as transport failures, not retryable hangs. The
		// underlying error stays in the message so timeouts and DNS
		// failures are distinguishable in logs.
		return fmt.Errorf("execute request: %v: %w", err, ErrUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// Fall through to decode.
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode >= 500:
		return ErrServer
	default:
		return fmt.Errorf("unexpected status %d: %w", resp.StatusCode, ErrBadStatus)
	}

	var envelope struct {
		Data jsontext.Value `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("parse envelope: %w", ErrDecode)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("parse data: %w", ErrDecode)
	}

	return nil
}

// clampLimit bounds a requested result count to the API window.
func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the church backend.
//
// The client decorates every outgoing request with the bearer credential
// (except for configured public paths), classifies failures into the
// taxonomy in errors.go, and reports successful authenticated calls as
// session activity.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DefaultTimeout is the default per-request client timeout.
	DefaultTimeout = 15 * time.Second

	// MaxResponseSize caps response bodies to keep a misbehaving server
	// from exhausting memory.
	MaxResponseSize = 10 * 1024 * 1024

	userAgent = "steward/1.0"
)

// CredentialSource supplies the bearer credential and receives activity
// evidence. The auth controller implements this; tests use stubs.
type CredentialSource interface {
	// Credential returns the bearer token, or "" when unauthenticated.
	Credential() string

	// TouchActivity records that a live authenticated request succeeded,
	// which counts as user activity for the inactivity window.
	TouchActivity()
}

// StaticCredential is a CredentialSource with a fixed token and no
// activity tracking. Useful for tests and one-off scripts.
type StaticCredential string

// Credential returns the fixed token.
func (s StaticCredential) Credential() string { return string(s) }

// TouchActivity is a no-op.
func (s StaticCredential) TouchActivity() {}

// Client is the HTTP client wrapper for the church backend.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	creds       CredentialSource
	publicPaths []string
	logger      zerolog.Logger
	cache       *responseCache

	// onUnauthorized is invoked synchronously when any response reports
	// 401, before the error is returned to the caller. The auth
	// controller uses it to force logout ahead of any per-screen handling.
	onUnauthorized func()
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithPublicPaths sets the path prefixes exempt from credential attachment.
func WithPublicPaths(prefixes []string) Option {
	return func(c *Client) { c.publicPaths = prefixes }
}

// WithLogger sets the client logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// OnUnauthorized registers the forced-logout hook for 401 responses.
func OnUnauthorized(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// NewClient creates a backend client rooted at baseURL.
func NewClient(baseURL string, creds CredentialSource, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		creds:      creds,
		logger:     zerolog.Nop(),
		cache:      newResponseCache(defaultCacheTTL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClearCache drops all cached responses. Called on login and logout so no
// identity ever sees data fetched under another authentication state.
func (c *Client) ClearCache() {
	c.cache.clear()
}

// isPublic reports whether the request path matches a public prefix.
func (c *Client) isPublic(path string) bool {
	for _, prefix := range c.publicPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// do executes one request and returns the raw response body.
//
// contentType is set verbatim when non-empty; multipart callers pass the
// writer's boundary-bearing content type, JSON helpers pass
// "application/json". An empty contentType leaves the header unset so the
// transport can infer it.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	return c.doTouch(ctx, method, path, body, contentType, true)
}

// doTouch is do with control over activity reporting. The heartbeat is
// machinery rather than user activity and must not feed the idle clock.
func (c *Client) doTouch(ctx context.Context, method, path string, body io.Reader, contentType string, touch bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	authenticated := false
	public := c.isPublic(path)
	if public {
		// Public paths must never carry the credential, even if one exists.
		req.Header.Del("Authorization")
	} else if token := c.creds.Credential(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
		authenticated = true
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classifyTransportError(err)
	}
	defer resp.Body.Close()

	respBody, err := readLimited(resp.Body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("api request")

	if resp.StatusCode >= 400 {
		return nil, c.classifyResponseError(resp, respBody, public)
	}

	// A live authenticated round trip is itself evidence of activity.
	if authenticated && touch {
		c.creds.TouchActivity()
	}

	return respBody, nil
}

// classifyTransportError maps transport-level failures onto the taxonomy.
// Timeouts are classified independently of generic connectivity failures.
// A caller's own cancellation passes through untouched; an aborted
// request is not a connectivity problem and must never read like one.
func (c *Client) classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return context.Canceled
	}

	var urlErr *url.Error
	timeout := errors.Is(err, context.DeadlineExceeded)
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		timeout = true
	}

	if timeout {
		c.logger.Warn().Err(err).Msg("request timed out")
		return &Error{Kind: KindTimeout, Message: timeoutErrorMessage}
	}

	c.logger.Warn().Err(err).Msg("network failure")
	return &Error{Kind: KindNetwork, Message: networkErrorMessage}
}

// errorBody is the error payload shape used by the backend.
type errorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// classifyResponseError maps HTTP error responses onto the taxonomy.
func (c *Client) classifyResponseError(resp *http.Response, body []byte, public bool) error {
	var payload errorBody
	_ = json.Unmarshal(body, &payload) // best effort; missing fields stay empty

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		if public {
			// A rejected login attempt is not an expired session.
			msg := payload.Message
			if msg == "" {
				msg = "Invalid credentials."
			}
			return &Error{Kind: KindServer, Status: resp.StatusCode, Message: msg}
		}
		// Forced logout runs before any caller sees the error payload.
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return &Error{
			Kind:    KindAuthExpired,
			Status:  resp.StatusCode,
			Message: "Your session has expired. Please log in again.",
		}

	case http.StatusTooManyRequests:
		retryAfter := time.Duration(0)
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			retryAfter = time.Duration(secs) * time.Second
		}
		msg := payload.Message
		if msg == "" {
			msg = "Too many attempts. Please try again later."
		}
		return &Error{
			Kind:       KindRateLimited,
			Status:     resp.StatusCode,
			Message:    msg,
			RetryAfter: retryAfter,
		}

	case http.StatusUnprocessableEntity:
		msg := payload.Message
		if msg == "" {
			msg = "The given data was invalid."
		}
		return &Error{
			Kind:    KindValidation,
			Status:  resp.StatusCode,
			Message: msg,
			Fields:  payload.Errors,
		}

	default:
		msg := payload.Message
		if msg == "" {
			msg = fmt.Sprintf("The server returned an unexpected error (HTTP %d).", resp.StatusCode)
		}
		return &Error{Kind: KindServer, Status: resp.StatusCode, Message: msg}
	}
}

// readLimited reads a response body under the size cap.
func readLimited(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, MaxResponseSize))
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: networkErrorMessage}
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, &Error{Kind: KindServer, Message: "The server response was too large."}
	}
	return body, nil
}

// =============================================================================
// JSON AND MULTIPART HELPERS
// =============================================================================

// getJSON performs a GET, consulting the response cache first.
func (c *Client) getJSON(ctx context.Context, path string) ([]byte, error) {
	if body, ok := c.cache.get(path); ok {
		return body, nil
	}
	body, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	c.cache.put(path, body)
	return body, nil
}

// postJSON performs a POST with a JSON body. Mutations invalidate the cache.
func (c *Client) postJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	return c.sendJSON(ctx, http.MethodPost, path, payload)
}

// putJSON performs a PUT with a JSON body. Mutations invalidate the cache.
func (c *Client) putJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	return c.sendJSON(ctx, http.MethodPut, path, payload)
}

// deleteJSON performs a DELETE. Mutations invalidate the cache.
func (c *Client) deleteJSON(ctx context.Context, path string) ([]byte, error) {
	c.cache.clear()
	return c.do(ctx, http.MethodDelete, path, nil, "")
}

func (c *Client) sendJSON(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}
	c.cache.clear()
	return c.do(ctx, method, path, body, "application/json")
}

// postMultipart performs a POST with an already-encoded multipart body.
// The caller supplies the writer's content type, which carries the
// boundary; the client never overrides it.
func (c *Client) postMultipart(ctx context.Context, path string, body io.Reader, contentType string) ([]byte, error) {
	c.cache.clear()
	return c.do(ctx, http.MethodPost, path, body, contentType)
}

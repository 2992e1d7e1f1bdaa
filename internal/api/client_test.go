// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trackingCredential records TouchActivity calls.
type trackingCredential struct {
	token   string
	mu      sync.Mutex
	touches int
}

func (c *trackingCredential) Credential() string {
	return c.token
}

func (c *trackingCredential) TouchActivity() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touches++
}

func (c *trackingCredential) Touches() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.touches
}

func TestBearerAttachedToProtectedPaths(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	creds := &trackingCredential{token: "tok-123"}
	c := NewClient(srv.URL, creds)

	_, err := c.ListMembers(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, 1, creds.Touches())
}

func TestPublicPathsNeverCarryCredential(t *testing.T) {
	var gotAuth string
	var hasAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, hasAuth = r.Header["Authorization"]
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	creds := &trackingCredential{token: "tok-123"}
	c := NewClient(srv.URL, creds,
		WithPublicPaths([]string{"/login", "/public-events"}))

	_, err := c.ListPublicEvents(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.False(t, hasAuth, "public request carried Authorization: %q", gotAuth)
	assert.Equal(t, 0, creds.Touches(), "public requests are not session activity")
}

func TestUnauthorizedTriggersHookBeforeReturn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Unauthenticated."}`))
	}))
	defer srv.Close()

	var hookCalls atomic.Int32
	c := NewClient(srv.URL, &trackingCredential{token: "stale"},
		OnUnauthorized(func() { hookCalls.Add(1) }))

	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.True(t, IsAuthExpired(err), "got %v", err)
	assert.Equal(t, int32(1), hookCalls.Load())
}

func TestUnauthorizedOnPublicPathIsNotSessionExpiry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Invalid credentials."}`))
	}))
	defer srv.Close()

	var hookCalls atomic.Int32
	c := NewClient(srv.URL, &trackingCredential{},
		WithPublicPaths([]string{"/login"}),
		OnUnauthorized(func() { hookCalls.Add(1) }))

	_, err := c.Login(context.Background(), "a@b.c", "wrong")
	require.Error(t, err)
	assert.False(t, IsAuthExpired(err), "failed login must not read as session expiry")
	assert.Equal(t, int32(0), hookCalls.Load())

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid credentials.", apiErr.Message)
}

func TestRateLimitedCarriesRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message":"Too many attempts."}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, &trackingCredential{token: "tok"})

	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 2*time.Minute, apiErr.RetryAfter)
}

func TestValidationCarriesFieldErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"The given data was invalid.","errors":{"email":["The email field is required."]}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, &trackingCredential{token: "tok"})

	_, err := c.CreateMember(context.Background(), Member{})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "The email field is required.", apiErr.FieldError("email"))
	assert.Empty(t, apiErr.FieldError("name"))
}

func TestHeartbeatIsNotSessionActivity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()

	creds := &trackingCredential{token: "tok"}
	c := NewClient(srv.URL, creds)

	require.NoError(t, c.Heartbeat(context.Background()))
	assert.Equal(t, 0, creds.Touches(), "heartbeat must not feed the idle clock")
}

func TestTimeoutClassifiedSeparatelyFromNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, &trackingCredential{token: "tok"},
		WithTimeout(20*time.Millisecond))

	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.True(t, IsTimeout(err), "got %v", err)
	assert.False(t, IsNetwork(err))
}

func TestUnreachableServerIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	c := NewClient(srv.URL, &trackingCredential{token: "tok"})

	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.True(t, IsNetwork(err), "got %v", err)
}

func TestGetUsesCacheUntilMutation(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			hits.Add(1)
			w.Write([]byte(`{"data":[]}`))
			return
		}
		w.Write([]byte(`{"data":{"id":1,"name":"A","email":"a@b.c"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, &trackingCredential{token: "tok"})
	ctx := context.Background()

	_, err := c.ListMembers(ctx, ListOptions{})
	require.NoError(t, err)
	_, err = c.ListMembers(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load(), "second read should come from cache")

	_, err = c.CreateMember(ctx, Member{Name: "A", Email: "a@b.c"})
	require.NoError(t, err)

	_, err = c.ListMembers(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load(), "mutation should have invalidated the cache")
}

func TestMultipartKeepsCallerContentType(t *testing.T) {
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`{"data":{"id":1,"title":"Picnic"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, &trackingCredential{token: "tok"})

	image := strings.NewReader("fake image bytes")
	_, err := c.CreateEvent(context.Background(), Event{Title: "Picnic"},
		image, "picnic.jpg")
	require.NoError(t, err)
	assert.Contains(t, gotContentType, "multipart/form-data; boundary=")
}

func TestCallerCancellationIsNotANetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, &trackingCredential{token: "tok"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListMembers(ctx, ListOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsNetwork(err), "an aborted request must not surface connectivity copy")
	assert.False(t, IsTimeout(err))
}

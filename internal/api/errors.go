// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the church backend.
//
// This file defines the error taxonomy every caller relies on. Transport
// failures are normalized at this boundary into a single typed error with
// a stable user-facing message; raw transport errors never escape.
package api

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a request failure.
type Kind int

const (
	// KindNetwork means no response reached the client at all.
	KindNetwork Kind = iota
	// KindTimeout means the client-side deadline was exceeded.
	KindTimeout
	// KindAuthExpired means the server answered 401.
	KindAuthExpired
	// KindRateLimited means the server answered 429.
	KindRateLimited
	// KindValidation means the server answered 422 with field errors.
	KindValidation
	// KindServer covers every other 4xx/5xx response.
	KindServer
)

// String returns a short name for the kind, used in logs.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindAuthExpired:
		return "auth_expired"
	case KindRateLimited:
		return "rate_limited"
	case KindValidation:
		return "validation"
	default:
		return "server"
	}
}

// User-facing copy for transport failures. Network and timeout failures
// carry distinct messages per the error-handling design.
const (
	networkErrorMessage = "Network error. Please check your internet connection."
	timeoutErrorMessage = "The request timed out. Please try again."
	genericErrorMessage = "Something went wrong. Please try again."
)

// Error is the normalized request failure surfaced to callers.
type Error struct {
	// Kind classifies the failure.
	Kind Kind

	// Status is the HTTP status code, or 0 when no response was received.
	Status int

	// Message is a stable, user-presentable description.
	Message string

	// Fields holds per-field validation messages for KindValidation.
	Fields map[string][]string

	// RetryAfter is the server-provided cooldown for KindRateLimited.
	// Zero when the server did not provide one.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("api: %s (HTTP %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("api: %s: %s", e.Kind, e.Message)
}

// UserMessage returns presentable copy for this failure. A failure with
// no message gets a generic line rather than leaking internals.
func (e *Error) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return genericErrorMessage
}

// FieldError returns the first validation message for the given field,
// or an empty string.
func (e *Error) FieldError(field string) string {
	if msgs, ok := e.Fields[field]; ok && len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// asError extracts an *Error from err, if it is one.
func asError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsNetwork reports whether err is a connectivity failure (no response).
func IsNetwork(err error) bool {
	e, ok := asError(err)
	return ok && e.Kind == KindNetwork
}

// IsTimeout reports whether err is a client-side timeout.
func IsTimeout(err error) bool {
	e, ok := asError(err)
	return ok && e.Kind == KindTimeout
}

// IsAuthExpired reports whether err is a 401 from the server.
func IsAuthExpired(err error) bool {
	e, ok := asError(err)
	return ok && e.Kind == KindAuthExpired
}

// IsRateLimited reports whether err is a 429 from the server.
func IsRateLimited(err error) bool {
	e, ok := asError(err)
	return ok && e.Kind == KindRateLimited
}

// IsValidation reports whether err is a 422 with field errors.
func IsValidation(err error) bool {
	e, ok := asError(err)
	return ok && e.Kind == KindValidation
}

// UserMessage returns presentable copy for any request failure. Unknown
// error shapes get a generic message rather than leaking internals.
func UserMessage(err error) string {
	if e, ok := asError(err); ok {
		return e.UserMessage()
	}
	return genericErrorMessage
}

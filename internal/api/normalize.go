// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the church backend.
//
// The backend is inconsistent about response shaping: some endpoints
// return a bare JSON array, others a {"data": ...} envelope, paginated
// lists add a "meta" object. This file normalizes every response into one
// canonical container so no caller ever branches on shape.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Meta describes pagination for list responses. Zero values mean the
// endpoint was not paginated.
type Meta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

// Page is the canonical list container returned by every list endpoint.
type Page[T any] struct {
	Items []T
	Meta  Meta
}

// HasMore reports whether further pages exist.
func (p Page[T]) HasMore() bool {
	return p.Meta.LastPage > p.Meta.CurrentPage
}

// envelope mirrors the backend's {"data": ..., "meta": ..., "message": ...}
// wrapper. Data is kept raw so the same struct covers item and list shapes.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Meta    *Meta           `json:"meta"`
	Message string          `json:"message"`
	Token   string          `json:"token"`
}

// unmarshalEnvelope decodes the outer wrapper, tolerating bodies that are
// not wrapped at all.
func unmarshalEnvelope(body []byte, env *envelope) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	if err := json.Unmarshal(trimmed, env); err != nil {
		return fmt.Errorf("failed to decode envelope: %w", err)
	}
	return nil
}

// decodeList normalizes a list response body. Accepted shapes:
//
//	[ ... ]
//	{"data": [ ... ]}
//	{"data": [ ... ], "meta": { ... }}
func decodeList[T any](body []byte) (Page[T], error) {
	var page Page[T]

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &page.Items); err != nil {
			return page, fmt.Errorf("failed to decode list body: %w", err)
		}
		return page, nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return page, fmt.Errorf("failed to decode list envelope: %w", err)
	}
	if env.Data != nil {
		if err := json.Unmarshal(env.Data, &page.Items); err != nil {
			return page, fmt.Errorf("failed to decode list data: %w", err)
		}
	}
	if env.Meta != nil {
		page.Meta = *env.Meta
	}
	return page, nil
}

// decodeItem normalizes a single-item response body. Accepted shapes:
//
//	{ ... }
//	{"data": { ... }}
func decodeItem[T any](body []byte) (T, error) {
	var out T

	var env envelope
	if err := json.Unmarshal(bytes.TrimSpace(body), &env); err != nil {
		return out, fmt.Errorf("failed to decode item envelope: %w", err)
	}
	raw := env.Data
	if raw == nil {
		raw = bytes.TrimSpace(body)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to decode item data: %w", err)
	}
	return out, nil
}

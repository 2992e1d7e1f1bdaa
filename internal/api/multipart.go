// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the church backend.
package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
)

// encodeEventForm encodes an event plus its image as a multipart form.
// Returns the body and the writer's content type, which carries the
// boundary the server needs to parse the form.
func encodeEventForm(e Event, image io.Reader, imageName string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"title":       e.Title,
		"description": e.Description,
		"date":        e.Date,
		"location":    e.Location,
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("failed to write form field %s: %w", name, err)
		}
	}

	part, err := w.CreateFormFile("image", imageName)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create image part: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, "", fmt.Errorf("failed to copy image data: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

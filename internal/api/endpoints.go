// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the church backend.
//
// This file holds the typed endpoint surface. Auth endpoints are used by
// the session controller; the resource endpoints exist for the console's
// data screens and all flow through the same request path, so they share
// credential handling, error classification and response normalization.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/jeranaias/steward-tui/internal/model"
)

// =============================================================================
// AUTH ENDPOINTS
// =============================================================================

// LoginResult is the outcome of a successful login call.
type LoginResult struct {
	Identity model.Identity
	Token    string
	Message  string
}

// Login authenticates with the backend. The /login path is public, so no
// stale credential is ever attached to the attempt.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	body, err := c.postJSON(ctx, "/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return LoginResult{}, err
	}

	var env envelope
	identity, err := decodeItem[model.Identity](body)
	if err != nil {
		return LoginResult{}, err
	}
	if err := unmarshalEnvelope(body, &env); err != nil {
		return LoginResult{}, err
	}
	if env.Token == "" {
		return LoginResult{}, &Error{Kind: KindServer, Message: "The server did not return a credential."}
	}
	return LoginResult{Identity: identity, Token: env.Token, Message: env.Message}, nil
}

// Logout notifies the server that the session ended. Best effort by
// contract: the controller ignores failures here.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.postJSON(ctx, "/logout", nil)
	return err
}

// Heartbeat reports presence while a session is active. The ping is
// machinery, not user input, so it never counts as session activity.
func (c *Client) Heartbeat(ctx context.Context) error {
	_, err := c.doTouch(ctx, http.MethodPost, "/heartbeat", nil, "application/json", false)
	return err
}

// Me fetches the authenticated identity from the backend.
func (c *Client) Me(ctx context.Context) (model.Identity, error) {
	body, err := c.getJSON(ctx, "/me")
	if err != nil {
		return model.Identity{}, err
	}
	return decodeItem[model.Identity](body)
}

// ChangePassword updates the authenticated user's password.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	_, err := c.postJSON(ctx, "/change-password", map[string]string{
		"current_password": current,
		"password":         next,
	})
	return err
}

// =============================================================================
// RESOURCE TYPES
// =============================================================================

// Member is a church member record.
type Member struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	BirthDate string `json:"birth_date"`
	JoinedAt  string `json:"joined_at"`
}

// Event is a church event record.
type Event struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Location    string `json:"location"`
	ImageURL    string `json:"image_url"`
}

// Testimonial is a member testimonial record.
type Testimonial struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Message  string `json:"message"`
	ImageURL string `json:"image_url"`
}

// ListOptions controls pagination and search for list endpoints.
type ListOptions struct {
	Page   int
	Search string
}

func (o ListOptions) query() string {
	q := url.Values{}
	if o.Page > 1 {
		q.Set("page", fmt.Sprint(o.Page))
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// =============================================================================
// RESOURCE ENDPOINTS
// =============================================================================

// listResource fetches and normalizes a paginated collection.
func listResource[T any](ctx context.Context, c *Client, path string, opts ListOptions) (Page[T], error) {
	body, err := c.getJSON(ctx, path+opts.query())
	if err != nil {
		return Page[T]{}, err
	}
	return decodeList[T](body)
}

// getResource fetches and normalizes a single record.
func getResource[T any](ctx context.Context, c *Client, path string) (T, error) {
	body, err := c.getJSON(ctx, path)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeItem[T](body)
}

// createResource posts a new record and returns the stored version.
func createResource[T any](ctx context.Context, c *Client, path string, payload any) (T, error) {
	body, err := c.postJSON(ctx, path, payload)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeItem[T](body)
}

// updateResource puts an updated record and returns the stored version.
func updateResource[T any](ctx context.Context, c *Client, path string, payload any) (T, error) {
	body, err := c.putJSON(ctx, path, payload)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeItem[T](body)
}

// Members

// ListMembers returns a page of members.
func (c *Client) ListMembers(ctx context.Context, opts ListOptions) (Page[Member], error) {
	return listResource[Member](ctx, c, "/members", opts)
}

// GetMember returns one member.
func (c *Client) GetMember(ctx context.Context, id int64) (Member, error) {
	return getResource[Member](ctx, c, fmt.Sprintf("/members/%d", id))
}

// CreateMember stores a new member.
func (c *Client) CreateMember(ctx context.Context, m Member) (Member, error) {
	return createResource[Member](ctx, c, "/members", m)
}

// UpdateMember updates an existing member.
func (c *Client) UpdateMember(ctx context.Context, m Member) (Member, error) {
	return updateResource[Member](ctx, c, fmt.Sprintf("/members/%d", m.ID), m)
}

// DeleteMember removes a member.
func (c *Client) DeleteMember(ctx context.Context, id int64) error {
	_, err := c.deleteJSON(ctx, fmt.Sprintf("/members/%d", id))
	return err
}

// SubmitPublicMember submits the public signup form. The path is public,
// so the call carries no credential even while logged in.
func (c *Client) SubmitPublicMember(ctx context.Context, m Member) (Member, error) {
	return createResource[Member](ctx, c, "/members/public", m)
}

// Admins

// ListAdmins returns a page of admin identities.
func (c *Client) ListAdmins(ctx context.Context, opts ListOptions) (Page[model.Identity], error) {
	return listResource[model.Identity](ctx, c, "/admins", opts)
}

// CreateAdmin stores a new admin identity.
func (c *Client) CreateAdmin(ctx context.Context, a model.Identity) (model.Identity, error) {
	return createResource[model.Identity](ctx, c, "/admins", a)
}

// DeleteAdmin removes an admin identity.
func (c *Client) DeleteAdmin(ctx context.Context, id int64) error {
	_, err := c.deleteJSON(ctx, fmt.Sprintf("/admins/%d", id))
	return err
}

// Events

// ListEvents returns a page of events.
func (c *Client) ListEvents(ctx context.Context, opts ListOptions) (Page[Event], error) {
	return listResource[Event](ctx, c, "/events", opts)
}

// ListPublicEvents returns the public events listing without a credential.
func (c *Client) ListPublicEvents(ctx context.Context, opts ListOptions) (Page[Event], error) {
	return listResource[Event](ctx, c, "/public-events", opts)
}

// CreateEvent stores a new event. A non-nil image is uploaded as a
// multipart form; the multipart writer's own content type is preserved.
func (c *Client) CreateEvent(ctx context.Context, e Event, image io.Reader, imageName string) (Event, error) {
	if image == nil {
		return createResource[Event](ctx, c, "/events", e)
	}

	body, contentType, err := encodeEventForm(e, image, imageName)
	if err != nil {
		return Event{}, err
	}
	respBody, err := c.postMultipart(ctx, "/events", body, contentType)
	if err != nil {
		return Event{}, err
	}
	return decodeItem[Event](respBody)
}

// UpdateEvent updates an existing event.
func (c *Client) UpdateEvent(ctx context.Context, e Event) (Event, error) {
	return updateResource[Event](ctx, c, fmt.Sprintf("/events/%d", e.ID), e)
}

// DeleteEvent removes an event.
func (c *Client) DeleteEvent(ctx context.Context, id int64) error {
	_, err := c.deleteJSON(ctx, fmt.Sprintf("/events/%d", id))
	return err
}

// Testimonials

// ListTestimonials returns a page of testimonials.
func (c *Client) ListTestimonials(ctx context.Context, opts ListOptions) (Page[Testimonial], error) {
	return listResource[Testimonial](ctx, c, "/testimonials", opts)
}

// ListPublicTestimonials returns the public testimonials listing without
// a credential.
func (c *Client) ListPublicTestimonials(ctx context.Context, opts ListOptions) (Page[Testimonial], error) {
	return listResource[Testimonial](ctx, c, "/public-testimonials", opts)
}

// CreateTestimonial stores a new testimonial.
func (c *Client) CreateTestimonial(ctx context.Context, t Testimonial) (Testimonial, error) {
	return createResource[Testimonial](ctx, c, "/testimonials", t)
}

// DeleteTestimonial removes a testimonial.
func (c *Client) DeleteTestimonial(ctx context.Context, id int64) error {
	_, err := c.deleteJSON(ctx, fmt.Sprintf("/testimonials/%d", id))
	return err
}

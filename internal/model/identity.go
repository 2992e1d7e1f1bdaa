// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model defines the core data types shared across steward.
package model

import (
	"time"
)

// Role is the backend-assigned role of an authenticated identity.
type Role string

// Known roles. The backend may introduce others; unknown roles are carried
// through verbatim and treated as unprivileged.
const (
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// IsPrivileged returns true for roles that may enter the admin console.
func (r Role) IsPrivileged() bool {
	return r == RoleAdmin || r == RoleSuperadmin
}

// Identity is the authenticated user's profile record. It is immutable
// once fetched; profile updates replace the whole value.
type Identity struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	Email string `json:"email"`
}

// Valid reports whether the identity carries the fields required to
// represent a logged-in user.
func (i Identity) Valid() bool {
	return i.ID != 0 && i.Name != ""
}

// Session is the client-side authenticated session: who is logged in,
// the bearer credential proving it, and the last observed activity.
type Session struct {
	Identity     Identity
	Credential   string
	LastActivity time.Time
}

// WarningState is the transient countdown state shown before forced
// logout. It is derived from the session timer each tick.
type WarningState struct {
	Visible          bool
	SecondsRemaining int
}

// LogoutReason distinguishes user-initiated logout from forced logout.
type LogoutReason string

const (
	// LogoutUser is an explicit logout requested by the user.
	LogoutUser LogoutReason = "user"

	// LogoutTimeout is a forced logout after the inactivity window elapsed.
	LogoutTimeout LogoutReason = "timeout"

	// LogoutUnauthorized is a forced logout triggered by a 401 response.
	LogoutUnauthorized LogoutReason = "unauthorized"

	// LogoutExternal is a logout observed from another steward instance
	// sharing the same session record.
	LogoutExternal LogoutReason = "external"
)

// Copyright (c) 2026 Cliply. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the user identity and session management layer.

It defines the core domain entity (Account) and logic for registration,
authentication, and the access/refresh token lifecycle.

# Architecture

This layer is the "Truth" of the system. The entity defined here has no
external dependencies and encapsulates all business rules related to user
identity. The single stored refresh token per account is the only server-side
session state; everything else rides inside the signed tokens.
*/
package auth

import (
	"time"
)

// # Domain Entities

// Account represents a registered member of the Cliply platform.
//
// # Session Model
//
// RefreshToken holds at most one valid refresh token (single active session).
// nil means "logged out". If non-nil it must equal the refresh token most
// recently issued to this account — that equality is what enables rotation
// and reuse detection.
type Account struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name"`
	AvatarURL     string    `json:"avatar_url"`
	CoverImageURL string    `json:"cover_image_url,omitempty"`
	PasswordHash  string    `json:"-"` // Explicitly omitted from JSON for security.
	RefreshToken  *string   `json:"-"` // Current session token. Omitted for security.
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Sanitized returns a copy of the account with credential and session fields
// zeroed. This is the only projection that may leave the service layer or be
// attached to a request context.
func (account *Account) Sanitized() *Account {
	sanitized := *account
	sanitized.PasswordHash = ""
	sanitized.RefreshToken = nil
	return &sanitized
}

// # Field Identifiers

// Global field names for validation and identity mapping in the auth domain.
const (
	FieldUsername     = "username"
	FieldFullName     = "fullName"
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldIdentifier   = "identifier"
	FieldAvatar       = "avatar"
	FieldCoverImage   = "coverImage"
	FieldAccessToken  = "accessToken"
	FieldRefreshToken = "refreshToken"
	FieldUser         = "user"
)

// # Constraints

const (
	// MinPasswordLength is enforced before hashing; bcrypt never sees
	// anything shorter.
	MinPasswordLength = 8

	// MaxUsernameLength bounds the unique handle.
	MaxUsernameLength = 30
)

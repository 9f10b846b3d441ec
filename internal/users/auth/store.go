// Copyright (c) 2026 Cliply. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
)

// # Account Data Access

// AccountRepository defines the data access contract for user accounts.
type AccountRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Account: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByID(context context.Context, id string) (*Account, error)

	/*
		FindByLogin returns the account whose username OR email equals the
		given identifier (exact match against the stored, lowercased value).

		Parameters:
		  - context: context.Context
		  - identifier: string

		Returns:
		  - *Account: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByLogin(context context.Context, identifier string) (*Account, error)

	/*
		Create persists a brand-new account. Case-insensitive uniqueness of
		username and email is enforced by storage; violations surface as
		apperr.Conflict.

		Parameters:
		  - context: context.Context
		  - account: *Account

		Returns:
		  - error: Conflict or persistence failures
	*/
	Create(context context.Context, account *Account) error

	/*
		UpdateRefreshToken overwrites only the session field. nil represents
		"logged out". No other validation runs on this write — the password
		hash in particular is untouched.

		Parameters:
		  - context: context.Context
		  - accountID: string
		  - token: *string (nil clears the session)

		Returns:
		  - error: Persistence failures
	*/
	UpdateRefreshToken(context context.Context, accountID string, token *string) error

	/*
		RotateRefreshToken atomically replaces the stored refresh token with
		next, but only if the stored value still equals presented
		(compare-and-swap). Of two refreshes racing with the same presented
		token, at most one observes rotated == true.

		Parameters:
		  - context: context.Context
		  - accountID: string
		  - presented: string (token the client handed in)
		  - next: string (freshly issued replacement)

		Returns:
		  - bool: Whether the swap happened
		  - error: Persistence failures
	*/
	RotateRefreshToken(context context.Context, accountID, presented, next string) (bool, error)

	/*
		UpdatePassword replaces only the account's password hash.

		Parameters:
		  - context: context.Context
		  - accountID: string
		  - newHash: string

		Returns:
		  - error: Persistence failures
	*/
	UpdatePassword(context context.Context, accountID, newHash string) error

	/*
		UpdateAvatarURL replaces the account's avatar media URL.

		Parameters:
		  - context: context.Context
		  - accountID: string
		  - url: string

		Returns:
		  - error: Persistence failures
	*/
	UpdateAvatarURL(context context.Context, accountID, url string) error

	/*
		UpdateCoverImageURL replaces the account's cover image media URL.

		Parameters:
		  - context: context.Context
		  - accountID: string
		  - url: string

		Returns:
		  - error: Persistence failures
	*/
	UpdateCoverImageURL(context context.Context, accountID, url string) error
}

// # Volatile Data Access

// AccountCache defines the contract for the sanitized-account read cache
// consulted by the request guard.
//
// A cache miss is a normal outcome (nil, nil), never an error. Entries are
// invalidated on every account mutation; the TTL bounds staleness when an
// invalidation is missed.
type AccountCache interface {

	/*
		Get returns the cached sanitized account, or (nil, nil) on a miss.

		Parameters:
		  - context: context.Context
		  - accountID: string

		Returns:
		  - *Account: Sanitized projection, nil on miss
		  - error: Connectivity failures only
	*/
	Get(context context.Context, accountID string) (*Account, error)

	/*
		Set stores the sanitized projection of the account under its ID.

		Parameters:
		  - context: context.Context
		  - account: *Account

		Returns:
		  - error: Persistence failures
	*/
	Set(context context.Context, account *Account) error

	/*
		Invalidate removes the cached projection for the account.

		Parameters:
		  - context: context.Context
		  - accountID: string

		Returns:
		  - error: Deletion failures
	*/
	Invalidate(context context.Context, accountID string) error
}

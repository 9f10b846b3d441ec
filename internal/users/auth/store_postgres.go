// Copyright (c) 2026 Cliply. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/cliply/internal/platform/apperr"
	"github.com/taibuivan/cliply/internal/platform/dberr"
)

// accountColumns is the shared SELECT list for hydrating an [Account].
const accountColumns = `
	id, username, email, fullname, passwordhash, avatarurl, coverimageurl,
	refreshtoken, createdat, updatedat`

// duplicateAccountMessage is the client-safe message for unique violations
// on username or email.
const duplicateAccountMessage = "User with email or username already exists"

// PostgresAccountRepository implements the AccountRepository interface using pgx.
//
// # Error Mapping
//
// Storage-specific errors (pgx.ErrNoRows, SQLSTATE 23505) are mapped to
// domain-friendly [apperr.AppError] values so no storage detail leaks upward.
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new PostgreSQL implementation of the AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

/*
Create persists a new account record into the users.account table.

Description: Deep-persists account identity, credential hash, and media URLs,
initializing timestamps when absent. The case-insensitive unique indexes on
username and email surface duplicates as apperr.Conflict.

Parameters:
  - context: context.Context
  - account: *Account (Entity to persist)

Returns:
  - error: apperr.Conflict, or connectivity errors
*/
func (repository *PostgresAccountRepository) Create(context context.Context, account *Account) error {
	const query = `
		INSERT INTO users.account (
			id, username, email, fullname, passwordhash, avatarurl, coverimageurl,
			refreshtoken, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		account.ID,
		account.Username,
		account.Email,
		account.FullName,
		account.PasswordHash,
		account.AvatarURL,
		account.CoverImageURL,
		account.RefreshToken,
		account.CreatedAt,
		account.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(err, duplicateAccountMessage)
	}

	return nil
}

/*
FindByLogin retrieves an account whose username OR email matches the identifier.

Description: Single round-trip lookup used by Login. Both columns store
lowercased values, so callers normalize the identifier before calling.

Parameters:
  - context: context.Context
  - identifier: string

Returns:
  - *Account: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresAccountRepository) FindByLogin(context context.Context, identifier string) (*Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM users.account
		WHERE username = $1 OR email = $1`

	account, err := repository.scanOne(context, query, identifier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Account does not exist")
		}
		return nil, fmt.Errorf("postgres_account_repo_find_by_login_failed: %w", err)
	}

	return account, nil
}

/*
FindByID retrieves an account by its unique ID.

Description: Primary key resolution, used by the request guard and refresh flow.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *Account: Hydrated account entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresAccountRepository) FindByID(context context.Context, id string) (*Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM users.account
		WHERE id = $1`

	account, err := repository.scanOne(context, query, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Account no longer exists")
		}
		return nil, fmt.Errorf("postgres_account_repo_find_by_id_failed: %w", err)
	}

	return account, nil
}

/*
UpdateRefreshToken overwrites only the session field of the account.

Description: Writes the freshly issued refresh token (login) or NULL (logout).
No other column changes; the password hash is never re-written here.

Parameters:
  - context: context.Context
  - accountID: string
  - token: *string (nil clears the session)

Returns:
  - error: Execution errors
*/
func (repository *PostgresAccountRepository) UpdateRefreshToken(context context.Context, accountID string, token *string) error {
	const query = `
		UPDATE users.account
		SET refreshtoken = $2, updatedat = $3
		WHERE id = $1`

	_, err := repository.pool.Exec(context, query, accountID, token, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_account_repo_update_refresh_token_failed: %w", err)
	}

	return nil
}

/*
RotateRefreshToken atomically swaps the stored refresh token.

Description: Single-statement compare-and-swap — the WHERE clause requires the
stored token to still equal the presented one, so two refreshes racing with
the same stale token can never both rotate. Postgres row-level locking
serializes the read-compare-write.

Parameters:
  - context: context.Context
  - accountID: string
  - presented: string
  - next: string

Returns:
  - bool: true when exactly this call performed the swap
  - error: Execution errors
*/
func (repository *PostgresAccountRepository) RotateRefreshToken(context context.Context, accountID, presented, next string) (bool, error) {
	const query = `
		UPDATE users.account
		SET refreshtoken = $3, updatedat = $4
		WHERE id = $1 AND refreshtoken = $2`

	commandTag, err := repository.pool.Exec(context, query, accountID, presented, next, time.Now())
	if err != nil {
		return false, fmt.Errorf("postgres_account_repo_rotate_refresh_token_failed: %w", err)
	}

	return commandTag.RowsAffected() == 1, nil
}

/*
UpdatePassword updates only the password hash for a specific account.

Parameters:
  - context: context.Context
  - accountID: string
  - newHash: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresAccountRepository) UpdatePassword(context context.Context, accountID, newHash string) error {
	const query = `
		UPDATE users.account
		SET passwordhash = $2, updatedat = $3
		WHERE id = $1`

	_, err := repository.pool.Exec(context, query, accountID, newHash, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_account_repo_update_password_failed: %w", err)
	}

	return nil
}

/*
UpdateAvatarURL replaces the avatar media URL.

Parameters:
  - context: context.Context
  - accountID: string
  - url: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresAccountRepository) UpdateAvatarURL(context context.Context, accountID, url string) error {
	const query = `
		UPDATE users.account
		SET avatarurl = $2, updatedat = $3
		WHERE id = $1`

	_, err := repository.pool.Exec(context, query, accountID, url, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_account_repo_update_avatar_failed: %w", err)
	}

	return nil
}

/*
UpdateCoverImageURL replaces the cover image media URL.

Parameters:
  - context: context.Context
  - accountID: string
  - url: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresAccountRepository) UpdateCoverImageURL(context context.Context, accountID, url string) error {
	const query = `
		UPDATE users.account
		SET coverimageurl = $2, updatedat = $3
		WHERE id = $1`

	_, err := repository.pool.Exec(context, query, accountID, url, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_account_repo_update_cover_failed: %w", err)
	}

	return nil
}

// scanOne executes a single-row query and hydrates an [Account].
func (repository *PostgresAccountRepository) scanOne(context context.Context, query string, args ...any) (*Account, error) {
	account := &Account{}
	err := repository.pool.QueryRow(context, query, args...).Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.FullName,
		&account.PasswordHash,
		&account.AvatarURL,
		&account.CoverImageURL,
		&account.RefreshToken,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Copyright (c) 2026 Cliply. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/taibuivan/cliply/internal/media"
	"github.com/taibuivan/cliply/internal/platform/apperr"
	"github.com/taibuivan/cliply/internal/platform/ctxutil"
	"github.com/taibuivan/cliply/internal/platform/sec"
	"github.com/taibuivan/cliply/internal/platform/validate"
	"github.com/taibuivan/cliply/pkg/uuid"
)

// # Collaborator Contracts

// PasswordHasher is the credential hashing contract consumed by the service.
// sec.Hasher satisfies it.
type PasswordHasher interface {
	Hash(plainTextPassword string) (string, error)
	Verify(plainTextPassword, existingHash string) bool
}

// TokenProvider issues and verifies the two token classes of a session.
// sec.TokenIssuer satisfies it.
type TokenProvider interface {
	IssueAccessToken(accountID, email, username, fullName string) (string, error)
	IssueRefreshToken(accountID string) (string, error)
	VerifyAccessToken(tokenString string) (*sec.AccessClaims, error)
	VerifyRefreshToken(tokenString string) (*sec.RefreshClaims, error)
}

// # Inputs and Outputs

// RegisterInput carries the validated-later registration payload. Avatar and
// cover image are local paths of files already spooled to disk by the
// transport layer.
type RegisterInput struct {
	Username       string
	Email          string
	FullName       string
	Password       string
	AvatarPath     string
	CoverImagePath string
}

// LoginInput carries the credential payload. Identifier matches either
// username or email.
type LoginInput struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// ChangePasswordInput carries the old and replacement passwords.
type ChangePasswordInput struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// TokenPair bundles the two tokens minted for a session.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// # Service

// Service implements the account lifecycle use cases: registration, login,
// logout, session refresh, and password change.
//
// # Session Invariants
//
//   - Login always overwrites the stored refresh token, so a login on a new
//     device invalidates the previous device's session.
//   - RefreshSession rotates via compare-and-swap; a presented token that no
//     longer matches storage is treated as expired or already used.
//   - A token-issuance failure is always terminal for the operation. The
//     service never "partially" establishes a session.
type Service struct {
	accounts AccountRepository
	cache    AccountCache
	hasher   PasswordHasher
	tokens   TokenProvider
	uploader media.Uploader
}

// NewService creates a new auth Service. cache may be nil, in which case the
// service operates without the read cache.
func NewService(
	accounts AccountRepository,
	cache AccountCache,
	hasher PasswordHasher,
	tokens TokenProvider,
	uploader media.Uploader,
) *Service {
	return &Service{
		accounts: accounts,
		cache:    cache,
		hasher:   hasher,
		tokens:   tokens,
		uploader: uploader,
	}
}

/*
Register creates a new account with its media, hashed credential, and no
active session.

Description: The flow is ordered so that no partially-registered account can
ever exist: field validation and duplicate checks run before any upload, and
the database insert is the LAST step. An avatar upload failure aborts the
registration; a cover image upload failure only degrades it (the account is
created without a cover image). Spooled files not yet handed to the uploader
are removed on every early-return path.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *Account: Sanitized created account
  - error: apperr.ValidationError, apperr.Conflict, or apperr.Internal
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*Account, error) {
	input.Username = strings.ToLower(strings.TrimSpace(input.Username))
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.FullName = strings.TrimSpace(input.FullName)

	validator := &validate.Validator{}
	err := validator.
		Required(FieldFullName, input.FullName).
		Required(FieldUsername, input.Username).
		MaxLen(FieldUsername, input.Username, MaxUsernameLength).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, MinPasswordLength).
		Custom(FieldAvatar, input.AvatarPath == "", "Avatar image is required").
		Err()
	if err != nil {
		service.discardSpooled(input.AvatarPath, input.CoverImagePath)
		return nil, err
	}

	// Cheap duplicate pre-check so the common conflict case never reaches
	// object storage. The unique indexes still catch the race at Create.
	for _, identifier := range []string{input.Username, input.Email} {
		_, err := service.accounts.FindByLogin(context, identifier)
		if err == nil {
			service.discardSpooled(input.AvatarPath, input.CoverImagePath)
			return nil, apperr.Conflict(duplicateAccountMessage)
		}
		if appError := apperr.As(err); appError == nil || appError.HTTPStatus != http.StatusNotFound {
			service.discardSpooled(input.AvatarPath, input.CoverImagePath)
			return nil, fmt.Errorf("auth_service_register_duplicate_check_failed: %w", err)
		}
	}

	// The uploader owns each file from here on and removes it on both the
	// success and the failure path.
	avatarURL, err := service.uploader.Upload(context, input.AvatarPath)
	if err != nil {
		service.discardSpooled(input.CoverImagePath)
		return nil, apperr.Internal(fmt.Errorf("auth_service_avatar_upload_failed: %w", err))
	}

	coverImageURL, err := service.uploader.Upload(context, input.CoverImagePath)
	if err != nil {
		ctxutil.GetLogger(context).Warn("cover image upload failed, continuing without",
			"username", input.Username, "error", err)
		coverImageURL = ""
	}

	passwordHash, err := service.hasher.Hash(input.Password)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_password_hash_failed: %w", err))
	}

	account := &Account{
		ID:            uuid.New(),
		Username:      input.Username,
		Email:         input.Email,
		FullName:      input.FullName,
		AvatarURL:     avatarURL,
		CoverImageURL: coverImageURL,
		PasswordHash:  passwordHash,
	}

	if err := service.accounts.Create(context, account); err != nil {
		return nil, err
	}

	return account.Sanitized(), nil
}

/*
Login verifies credentials and establishes a new session.

Description: The identifier is matched against username or email. A missing
account and a wrong password are reported as DIFFERENT errors (NotFound vs
Unauthorized), mirroring the registration flow's ability to distinguish "no
such user" from "bad credential". The freshly issued refresh token replaces
whatever session was stored before.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *Account: Sanitized account
  - *TokenPair: Newly minted access and refresh tokens
  - error: Validation, NotFound, Unauthorized, or Internal errors
*/
func (service *Service) Login(context context.Context, input LoginInput) (*Account, *TokenPair, error) {
	input.Identifier = strings.ToLower(strings.TrimSpace(input.Identifier))

	validator := &validate.Validator{}
	err := validator.
		Required(FieldIdentifier, input.Identifier).
		Required(FieldPassword, input.Password).
		Err()
	if err != nil {
		return nil, nil, err
	}

	account, err := service.accounts.FindByLogin(context, input.Identifier)
	if err != nil {
		return nil, nil, err
	}

	if !service.hasher.Verify(input.Password, account.PasswordHash) {
		return nil, nil, apperr.Unauthorized("Invalid credentials")
	}

	pair, err := service.issueSession(context, account)
	if err != nil {
		return nil, nil, err
	}

	service.cacheSet(context, account)

	return account.Sanitized(), pair, nil
}

/*
Logout clears the stored session for the account.

Description: Sets the stored refresh token to nil so every outstanding refresh
token for this account is dead. Idempotent — logging out twice is not an
error.

Parameters:
  - context: context.Context
  - accountID: string

Returns:
  - error: Persistence failures
*/
func (service *Service) Logout(context context.Context, accountID string) error {
	if err := service.accounts.UpdateRefreshToken(context, accountID, nil); err != nil {
		return err
	}

	service.cacheInvalidate(context, accountID)

	return nil
}

/*
RefreshSession exchanges a valid refresh token for a fresh token pair.

Description: Rotation happens through a compare-and-swap against storage —
the presented token must still be the stored one. A token that fails the swap
(already rotated, logged out, or never valid for this account) is rejected as
expired or reused. Of two refreshes racing with the same presented token,
exactly one wins.

Parameters:
  - context: context.Context
  - presentedToken: string (raw refresh token from cookie or body)

Returns:
  - *Account: Sanitized account
  - *TokenPair: Replacement access and refresh tokens
  - error: Unauthorized, NotFound, or Internal errors
*/
func (service *Service) RefreshSession(context context.Context, presentedToken string) (*Account, *TokenPair, error) {
	if strings.TrimSpace(presentedToken) == "" {
		return nil, nil, apperr.Unauthorized("Refresh token is required")
	}

	claims, err := service.tokens.VerifyRefreshToken(presentedToken)
	if err != nil {
		return nil, nil, apperr.Unauthorized("Invalid refresh token")
	}

	account, err := service.accounts.FindByID(context, claims.AccountID)
	if err != nil {
		return nil, nil, err
	}

	nextRefreshToken, err := service.tokens.IssueRefreshToken(account.ID)
	if err != nil {
		return nil, nil, apperr.Internal(fmt.Errorf("auth_service_refresh_token_issue_failed: %w", err))
	}

	rotated, err := service.accounts.RotateRefreshToken(context, account.ID, presentedToken, nextRefreshToken)
	if err != nil {
		return nil, nil, fmt.Errorf("auth_service_rotate_failed: %w", err)
	}
	if !rotated {
		return nil, nil, apperr.Unauthorized("Refresh token expired or already used")
	}

	accessToken, err := service.tokens.IssueAccessToken(account.ID, account.Email, account.Username, account.FullName)
	if err != nil {
		return nil, nil, apperr.Internal(fmt.Errorf("auth_service_access_token_issue_failed: %w", err))
	}

	service.cacheSet(context, account)

	return account.Sanitized(), &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: nextRefreshToken,
	}, nil
}

/*
ChangePassword verifies the old password and stores a hash of the new one.

Description: The stored refresh token is cleared as part of the change, so a
session established under the old credential cannot be extended — any other
holder of the account must log in again with the new password.

Parameters:
  - context: context.Context
  - accountID: string
  - input: ChangePasswordInput

Returns:
  - error: Validation, NotFound, or Internal errors
*/
func (service *Service) ChangePassword(context context.Context, accountID string, input ChangePasswordInput) error {
	validator := &validate.Validator{}
	err := validator.
		Required("oldPassword", input.OldPassword).
		Required("newPassword", input.NewPassword).
		MinLen("newPassword", input.NewPassword, MinPasswordLength).
		Err()
	if err != nil {
		return err
	}

	account, err := service.accounts.FindByID(context, accountID)
	if err != nil {
		return err
	}

	if !service.hasher.Verify(input.OldPassword, account.PasswordHash) {
		return apperr.ValidationError("Invalid old password")
	}

	newHash, err := service.hasher.Hash(input.NewPassword)
	if err != nil {
		return apperr.Internal(fmt.Errorf("auth_service_password_hash_failed: %w", err))
	}

	if err := service.accounts.UpdatePassword(context, accountID, newHash); err != nil {
		return err
	}

	// Kill the active session so the old credential's refresh token is dead.
	if err := service.accounts.UpdateRefreshToken(context, accountID, nil); err != nil {
		return err
	}

	service.cacheInvalidate(context, accountID)

	return nil
}

// # Internal Helpers

// issueSession mints a fresh token pair and persists the refresh half as the
// account's single active session.
func (service *Service) issueSession(context context.Context, account *Account) (*TokenPair, error) {
	accessToken, err := service.tokens.IssueAccessToken(account.ID, account.Email, account.Username, account.FullName)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_access_token_issue_failed: %w", err))
	}

	refreshToken, err := service.tokens.IssueRefreshToken(account.ID)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_refresh_token_issue_failed: %w", err))
	}

	if err := service.accounts.UpdateRefreshToken(context, account.ID, &refreshToken); err != nil {
		return nil, err
	}
	account.RefreshToken = &refreshToken

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// discardSpooled removes temp files that were never handed to the uploader.
func (service *Service) discardSpooled(paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		_ = os.Remove(path)
	}
}

// cacheSet is best-effort: a cache failure never fails the request.
func (service *Service) cacheSet(context context.Context, account *Account) {
	if service.cache == nil {
		return
	}
	if err := service.cache.Set(context, account); err != nil {
		ctxutil.GetLogger(context).Warn("account cache set failed", "account_id", account.ID, "error", err)
	}
}

// cacheInvalidate is best-effort, same as cacheSet.
func (service *Service) cacheInvalidate(context context.Context, accountID string) {
	if service.cache == nil {
		return
	}
	if err := service.cache.Invalidate(context, accountID); err != nil {
		ctxutil.GetLogger(context).Warn("account cache invalidate failed", "account_id", accountID, "error", err)
	}
}

// Copyright (c) 2026 Cliply. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account implements the profile surface of an authenticated member:
reading the own profile and replacing its media.

Architecture:

  - Service: Orchestrates storage, cache invalidation, and media uploads.
  - Handler: Guarded HTTP endpoints under /me.

All operations act on the CALLER's account only — there is no path to
mutate someone else's profile through this package.
*/
package account

import (
	"context"
	"fmt"

	"github.com/taibuivan/cliply/internal/media"
	"github.com/taibuivan/cliply/internal/platform/apperr"
	"github.com/taibuivan/cliply/internal/platform/ctxutil"
	"github.com/taibuivan/cliply/internal/users/auth"
)

// Service implements the profile use cases.
type Service struct {
	accounts auth.AccountRepository
	cache    auth.AccountCache
	uploader media.Uploader
}

// NewService creates a profile Service. cache may be nil.
func NewService(accounts auth.AccountRepository, cache auth.AccountCache, uploader media.Uploader) *Service {
	return &Service{
		accounts: accounts,
		cache:    cache,
		uploader: uploader,
	}
}

/*
GetProfile returns the sanitized account for the given ID.

Parameters:
  - context: context.Context
  - accountID: string

Returns:
  - *auth.Account: Sanitized projection
  - error: apperr.NotFound or storage failures
*/
func (service *Service) GetProfile(context context.Context, accountID string) (*auth.Account, error) {
	account, err := service.accounts.FindByID(context, accountID)
	if err != nil {
		return nil, err
	}
	return account.Sanitized(), nil
}

/*
UpdateAvatar uploads a replacement avatar and stores its URL.

Description: The spooled file at localPath is handed to the uploader, which
removes it on both outcomes. An upload failure aborts the operation before
storage is touched, so the profile never points at a missing object.

Parameters:
  - context: context.Context
  - accountID: string
  - localPath: string (spooled temporary file)

Returns:
  - *auth.Account: Updated sanitized account
  - error: apperr.Internal on upload failure, otherwise storage errors
*/
func (service *Service) UpdateAvatar(context context.Context, accountID, localPath string) (*auth.Account, error) {
	url, err := service.uploader.Upload(context, localPath)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("account_service_avatar_upload_failed: %w", err))
	}

	if err := service.accounts.UpdateAvatarURL(context, accountID, url); err != nil {
		return nil, err
	}

	service.invalidate(context, accountID)

	return service.GetProfile(context, accountID)
}

/*
UpdateCoverImage uploads a replacement cover image and stores its URL.

Parameters:
  - context: context.Context
  - accountID: string
  - localPath: string (spooled temporary file)

Returns:
  - *auth.Account: Updated sanitized account
  - error: apperr.Internal on upload failure, otherwise storage errors
*/
func (service *Service) UpdateCoverImage(context context.Context, accountID, localPath string) (*auth.Account, error) {
	url, err := service.uploader.Upload(context, localPath)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("account_service_cover_upload_failed: %w", err))
	}

	if err := service.accounts.UpdateCoverImageURL(context, accountID, url); err != nil {
		return nil, err
	}

	service.invalidate(context, accountID)

	return service.GetProfile(context, accountID)
}

// invalidate is best-effort cache removal after a mutation.
func (service *Service) invalidate(context context.Context, accountID string) {
	if service.cache == nil {
		return
	}
	if err := service.cache.Invalidate(context, accountID); err != nil {
		ctxutil.GetLogger(context).Warn("account cache invalidate failed", "account_id", accountID, "error", err)
	}
}

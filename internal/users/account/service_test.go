// Copyright (c) 2026 Cliply. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/cliply/internal/platform/apperr"
	"github.com/taibuivan/cliply/internal/users/account"
	"github.com/taibuivan/cliply/internal/users/auth"
)

// profileRepository is a minimal in-memory AccountRepository for the profile
// use cases.
type profileRepository struct {
	mu       sync.Mutex
	accounts map[string]*auth.Account
}

func newProfileRepository(seed ...*auth.Account) *profileRepository {
	repository := &profileRepository{accounts: make(map[string]*auth.Account)}
	for _, account := range seed {
		copied := *account
		repository.accounts[account.ID] = &copied
	}
	return repository
}

func (repository *profileRepository) FindByID(_ context.Context, id string) (*auth.Account, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	stored, ok := repository.accounts[id]
	if !ok {
		return nil, apperr.NotFound("Account no longer exists")
	}
	copied := *stored
	return &copied, nil
}

func (repository *profileRepository) FindByLogin(_ context.Context, _ string) (*auth.Account, error) {
	return nil, apperr.NotFound("Account does not exist")
}

func (repository *profileRepository) Create(_ context.Context, _ *auth.Account) error {
	return fmt.Errorf("not supported")
}

func (repository *profileRepository) UpdateRefreshToken(_ context.Context, _ string, _ *string) error {
	return fmt.Errorf("not supported")
}

func (repository *profileRepository) RotateRefreshToken(_ context.Context, _, _, _ string) (bool, error) {
	return false, fmt.Errorf("not supported")
}

func (repository *profileRepository) UpdatePassword(_ context.Context, _, _ string) error {
	return fmt.Errorf("not supported")
}

func (repository *profileRepository) UpdateAvatarURL(_ context.Context, accountID, url string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	stored, ok := repository.accounts[accountID]
	if !ok {
		return apperr.NotFound("Account no longer exists")
	}
	stored.AvatarURL = url
	return nil
}

func (repository *profileRepository) UpdateCoverImageURL(_ context.Context, accountID, url string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	stored, ok := repository.accounts[accountID]
	if !ok {
		return apperr.NotFound("Account no longer exists")
	}
	stored.CoverImageURL = url
	return nil
}

// stubUploader removes the local file and returns a deterministic URL, or
// fails when broken.
type stubUploader struct {
	broken bool
}

func (uploader *stubUploader) Upload(_ context.Context, localPath string) (string, error) {
	if localPath == "" {
		return "", nil
	}
	defer os.Remove(localPath)
	if uploader.broken {
		return "", fmt.Errorf("object storage unavailable")
	}
	return "https://cdn.test/" + filepath.Base(localPath), nil
}

func seedAccount() *auth.Account {
	return &auth.Account{
		ID:           "0198d2f0-0000-7000-8000-000000000001",
		Username:     "chitoge",
		Email:        "chitoge@example.com",
		FullName:     "Chitoge Kirisaki",
		AvatarURL:    "https://cdn.test/old-avatar.png",
		PasswordHash: "$2a$10$secret",
	}
}

func spoolFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("fake image bytes"), 0o600))
	return path
}

/*
TestService_GetProfile verifies that the profile is returned sanitized.
*/
func TestService_GetProfile(t *testing.T) {
	seed := seedAccount()
	service := account.NewService(newProfileRepository(seed), nil, &stubUploader{})

	profile, err := service.GetProfile(context.Background(), seed.ID)
	require.NoError(t, err)

	assert.Equal(t, seed.Username, profile.Username)
	assert.Empty(t, profile.PasswordHash)
	assert.Nil(t, profile.RefreshToken)
}

/*
TestService_GetProfile_Missing verifies the NotFound path.
*/
func TestService_GetProfile_Missing(t *testing.T) {
	service := account.NewService(newProfileRepository(), nil, &stubUploader{})

	_, err := service.GetProfile(context.Background(), "nobody")
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusNotFound, appError.HTTPStatus)
}

/*
TestService_UpdateAvatar verifies upload, persistence, and temp file removal.
*/
func TestService_UpdateAvatar(t *testing.T) {
	seed := seedAccount()
	repository := newProfileRepository(seed)
	service := account.NewService(repository, nil, &stubUploader{})

	localPath := spoolFile(t, "new-avatar.png")

	profile, err := service.UpdateAvatar(context.Background(), seed.ID, localPath)
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.test/new-avatar.png", profile.AvatarURL)
	assert.NoFileExists(t, localPath)

	stored, err := repository.FindByID(context.Background(), seed.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/new-avatar.png", stored.AvatarURL)
}

/*
TestService_UpdateCoverImage verifies the cover image path.
*/
func TestService_UpdateCoverImage(t *testing.T) {
	seed := seedAccount()
	repository := newProfileRepository(seed)
	service := account.NewService(repository, nil, &stubUploader{})

	localPath := spoolFile(t, "cover.jpg")

	profile, err := service.UpdateCoverImage(context.Background(), seed.ID, localPath)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/cover.jpg", profile.CoverImageURL)
}

/*
TestService_UpdateAvatar_UploadFailure verifies that an upload failure leaves
the stored profile untouched.
*/
func TestService_UpdateAvatar_UploadFailure(t *testing.T) {
	seed := seedAccount()
	repository := newProfileRepository(seed)
	service := account.NewService(repository, nil, &stubUploader{broken: true})

	localPath := spoolFile(t, "new-avatar.png")

	_, err := service.UpdateAvatar(context.Background(), seed.ID, localPath)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusInternalServerError, appError.HTTPStatus)

	stored, err := repository.FindByID(context.Background(), seed.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/old-avatar.png", stored.AvatarURL)
	assert.NoFileExists(t, localPath)
}

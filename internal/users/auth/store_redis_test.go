// Copyright (c) 2026 Cliply. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/cliply/internal/users/auth"
)

func newTestCache(t *testing.T) (*auth.RedisAccountCache, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return auth.NewAccountCache(client), server
}

/*
TestAccountCache_RoundTrip verifies Set/Get and that secret fields never
reach Redis, even when the caller passes an unsanitized entity.
*/
func TestAccountCache_RoundTrip(t *testing.T) {
	cache, server := newTestCache(t)

	refreshToken := "live-refresh-token"
	account := &auth.Account{
		ID:           "0198d2f0-0000-7000-8000-000000000001",
		Username:     "chitoge",
		Email:        "chitoge@example.com",
		FullName:     "Chitoge Kirisaki",
		PasswordHash: "$2a$10$secret",
		RefreshToken: &refreshToken,
	}

	require.NoError(t, cache.Set(context.Background(), account))

	cached, err := cache.Get(context.Background(), account.ID)
	require.NoError(t, err)
	require.NotNil(t, cached)

	// 1. Identity fields survive the round trip
	assert.Equal(t, account.ID, cached.ID)
	assert.Equal(t, "chitoge", cached.Username)

	// 2. Secret fields were stripped before encoding
	assert.Empty(t, cached.PasswordHash)
	assert.Nil(t, cached.RefreshToken)

	// 3. The raw Redis value contains no trace of the secrets either
	raw, err := server.Get("users:account:" + account.ID)
	require.NoError(t, err)
	assert.NotContains(t, raw, "secret")
	assert.NotContains(t, raw, refreshToken)
}

/*
TestAccountCache_Miss verifies that a miss is (nil, nil), not an error.
*/
func TestAccountCache_Miss(t *testing.T) {
	cache, _ := newTestCache(t)

	cached, err := cache.Get(context.Background(), "missing-id")
	assert.NoError(t, err)
	assert.Nil(t, cached)
}

/*
TestAccountCache_Invalidate verifies that invalidation removes the entry and
is idempotent.
*/
func TestAccountCache_Invalidate(t *testing.T) {
	cache, _ := newTestCache(t)

	account := &auth.Account{ID: "0198d2f0-0000-7000-8000-000000000001", Username: "chitoge"}
	require.NoError(t, cache.Set(context.Background(), account))

	require.NoError(t, cache.Invalidate(context.Background(), account.ID))

	cached, err := cache.Get(context.Background(), account.ID)
	assert.NoError(t, err)
	assert.Nil(t, cached)

	// Deleting an absent key is not an error
	assert.NoError(t, cache.Invalidate(context.Background(), account.ID))
}

/*
TestAccountCache_TTL verifies that entries expire on their own.
*/
func TestAccountCache_TTL(t *testing.T) {
	cache, server := newTestCache(t)

	account := &auth.Account{ID: "0198d2f0-0000-7000-8000-000000000001", Username: "chitoge"}
	require.NoError(t, cache.Set(context.Background(), account))

	server.FastForward(6 * time.Minute)

	cached, err := cache.Get(context.Background(), account.ID)
	assert.NoError(t, err)
	assert.Nil(t, cached)
}

// Copyright (c) 2026 Cliply. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/cliply/internal/platform/constants"
)

// accountCacheTTL bounds staleness of the sanitized projection served to the
// request guard. Writes through the service invalidate eagerly, so the TTL
// only covers out-of-band mutations.
const accountCacheTTL = 5 * time.Minute

// RedisAccountCache caches sanitized account projections keyed by account ID.
//
// Only the sanitized form is ever stored: the cached value never contains the
// password hash or the refresh token, so a cache dump cannot leak credentials.
type RedisAccountCache struct {
	client *redis.Client
}

// NewAccountCache creates a Redis-backed AccountCache.
func NewAccountCache(client *redis.Client) *RedisAccountCache {
	return &RedisAccountCache{client: client}
}

/*
Get retrieves a sanitized account from the cache.

Parameters:
  - context: context.Context
  - accountID: string

Returns:
  - *Account: Cached sanitized entity, nil on a miss
  - error: Connectivity or decoding errors
*/
func (cache *RedisAccountCache) Get(context context.Context, accountID string) (*Account, error) {
	payload, err := cache.client.Get(context, cache.key(accountID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis_account_cache_get_failed: %w", err)
	}

	account := &Account{}
	if err := json.Unmarshal(payload, account); err != nil {
		return nil, fmt.Errorf("redis_account_cache_decode_failed: %w", err)
	}

	return account, nil
}

/*
Set stores a sanitized copy of the account.

Description: The entity is sanitized before encoding regardless of what the
caller passes, so secret columns can never reach Redis.

Parameters:
  - context: context.Context
  - account: *Account

Returns:
  - error: Encoding or connectivity errors
*/
func (cache *RedisAccountCache) Set(context context.Context, account *Account) error {
	sanitized := account.Sanitized()

	payload, err := json.Marshal(sanitized)
	if err != nil {
		return fmt.Errorf("redis_account_cache_encode_failed: %w", err)
	}

	if err := cache.client.Set(context, cache.key(account.ID), payload, accountCacheTTL).Err(); err != nil {
		return fmt.Errorf("redis_account_cache_set_failed: %w", err)
	}

	return nil
}

/*
Invalidate removes a cached account after a mutation.

Parameters:
  - context: context.Context
  - accountID: string

Returns:
  - error: Connectivity errors
*/
func (cache *RedisAccountCache) Invalidate(context context.Context, accountID string) error {
	if err := cache.client.Del(context, cache.key(accountID)).Err(); err != nil {
		return fmt.Errorf("redis_account_cache_invalidate_failed: %w", err)
	}
	return nil
}

func (cache *RedisAccountCache) key(accountID string) string {
	return constants.RedisPrefixAccount + accountID
}

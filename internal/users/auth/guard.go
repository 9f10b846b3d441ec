// Copyright (c) 2026 Cliply. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/taibuivan/cliply/internal/platform/apperr"
	"github.com/taibuivan/cliply/internal/platform/constants"
	"github.com/taibuivan/cliply/internal/platform/ctxkey"
	"github.com/taibuivan/cliply/internal/platform/ctxutil"
	"github.com/taibuivan/cliply/internal/platform/respond"
)

// # Request Guard

// Guard authenticates requests by verifying the access token and resolving
// the sanitized account behind it.
//
// # Token Extraction
//
// The access token is read from the accessToken cookie first, then from the
// Authorization header ("Bearer <token>"). Cookie-carrying browser clients
// and header-carrying API clients share the same guard.
type Guard struct {
	tokens   TokenProvider
	accounts AccountRepository
	cache    AccountCache
}

// NewGuard creates a request guard. cache may be nil.
func NewGuard(tokens TokenProvider, accounts AccountRepository, cache AccountCache) *Guard {
	return &Guard{
		tokens:   tokens,
		accounts: accounts,
		cache:    cache,
	}
}

/*
RequireAccount is middleware that rejects unauthenticated requests.

Description: Verifies the access token signature and expiry, resolves the
account (read-through cache, then storage), and attaches ONLY the sanitized
projection to the request context. A valid token whose account has since been
deleted is rejected — possession of a token is not proof the account still
exists.

Returns:
  - func(http.Handler) http.Handler: Middleware rejecting with 401 on failure
*/
func (guard *Guard) RequireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		tokenString := extractAccessToken(request)
		if tokenString == "" {
			respond.Error(writer, request, apperr.Unauthorized("Unauthorized request"))
			return
		}

		claims, err := guard.tokens.VerifyAccessToken(tokenString)
		if err != nil {
			respond.Error(writer, request, apperr.Unauthorized("Invalid access token"))
			return
		}

		// A valid token whose referent is gone surfaces as NotFound, not as a
		// signature failure: the token was fine, the account is not.
		account, err := guard.resolveAccount(request.Context(), claims.AccountID)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		requestContext := WithAccount(request.Context(), account)
		requestContext = ctxutil.WithAccountID(requestContext, account.ID)

		next.ServeHTTP(writer, request.WithContext(requestContext))
	})
}

// resolveAccount reads through the cache to storage. Cache failures degrade
// to a storage read, never to a request failure.
func (guard *Guard) resolveAccount(requestContext context.Context, accountID string) (*Account, error) {
	if guard.cache != nil {
		cached, err := guard.cache.Get(requestContext, accountID)
		if err != nil {
			ctxutil.GetLogger(requestContext).Warn("account cache get failed", "account_id", accountID, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	account, err := guard.accounts.FindByID(requestContext, accountID)
	if err != nil {
		return nil, err
	}

	sanitized := account.Sanitized()

	if guard.cache != nil {
		if err := guard.cache.Set(requestContext, sanitized); err != nil {
			ctxutil.GetLogger(requestContext).Warn("account cache set failed", "account_id", accountID, "error", err)
		}
	}

	return sanitized, nil
}

// extractAccessToken pulls the token from the cookie, falling back to the
// Authorization header.
func extractAccessToken(request *http.Request) string {
	if cookie, err := request.Cookie(constants.AccessTokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authorization := request.Header.Get("Authorization")
	if token, found := strings.CutPrefix(authorization, "Bearer "); found {
		return strings.TrimSpace(token)
	}

	return ""
}

// # Context Accessors

// WithAccount stores the sanitized account on the context.
func WithAccount(parent context.Context, account *Account) context.Context {
	return context.WithValue(parent, ctxkey.KeyAccount, account)
}

// AccountFromContext returns the sanitized account the guard attached, or nil
// if the request never passed through the guard.
func AccountFromContext(requestContext context.Context) *Account {
	account, _ := requestContext.Value(ctxkey.KeyAccount).(*Account)
	return account
}

// RequiredAccount returns the guard-attached account or an Unauthorized
// error. Handlers behind the guard use this instead of re-checking nil.
func RequiredAccount(requestContext context.Context) (*Account, error) {
	account := AccountFromContext(requestContext)
	if account == nil {
		return nil, apperr.Unauthorized("Unauthorized request")
	}
	return account, nil
}

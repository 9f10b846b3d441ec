// Copyright (c) 2026 Cliply. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/cliply/internal/platform/sec"
)

func newTestIssuer(t *testing.T) *sec.TokenIssuer {
	t.Helper()
	issuer, err := sec.NewTokenIssuer("access-secret", "refresh-secret", 15*time.Minute, 720*time.Hour, "cliply.test")
	require.NoError(t, err)
	return issuer
}

/*
TestNewTokenIssuer_MissingSecret ensures a missing secret is a constructor-time
failure, never a per-request one.
*/
func TestNewTokenIssuer_MissingSecret(t *testing.T) {
	tests := []struct {
		name          string
		accessSecret  string
		refreshSecret string
	}{
		{"missing_access", "", "refresh-secret"},
		{"missing_refresh", "access-secret", ""},
		{"missing_both", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sec.NewTokenIssuer(tt.accessSecret, tt.refreshSecret, time.Minute, time.Hour, "cliply.test")
			assert.Error(t, err)
		})
	}
}

/*
TestTokenIssuer_AccessRoundTrip verifies access token claims survive
issue-then-verify.
*/
func TestTokenIssuer_AccessRoundTrip(t *testing.T) {
	issuer := newTestIssuer(t)

	token, err := issuer.IssueAccessToken("account-1", "alice@x.com", "alice", "Alice Liddell")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := issuer.VerifyAccessToken(token)
	require.NoError(t, err)

	assert.Equal(t, "account-1", claims.AccountID)
	assert.Equal(t, "alice@x.com", claims.Email)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "Alice Liddell", claims.FullName)
	assert.Equal(t, "cliply.test", claims.Issuer)
}

/*
TestTokenIssuer_RefreshRoundTrip verifies refresh tokens carry the account ID only.
*/
func TestTokenIssuer_RefreshRoundTrip(t *testing.T) {
	issuer := newTestIssuer(t)

	token, err := issuer.IssueRefreshToken("account-1")
	require.NoError(t, err)

	claims, err := issuer.VerifyRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, "account-1", claims.AccountID)
}

/*
TestTokenIssuer_ClassSeparation ensures a refresh token never verifies as an
access token and vice versa (distinct secrets per class).
*/
func TestTokenIssuer_ClassSeparation(t *testing.T) {
	issuer := newTestIssuer(t)

	refreshToken, err := issuer.IssueRefreshToken("account-1")
	require.NoError(t, err)
	_, err = issuer.VerifyAccessToken(refreshToken)
	assert.Error(t, err)

	accessToken, err := issuer.IssueAccessToken("account-1", "alice@x.com", "alice", "Alice Liddell")
	require.NoError(t, err)
	_, err = issuer.VerifyRefreshToken(accessToken)
	assert.Error(t, err)
}

/*
TestTokenIssuer_ForeignSecret ensures tokens signed elsewhere are rejected.
*/
func TestTokenIssuer_ForeignSecret(t *testing.T) {
	issuer := newTestIssuer(t)

	foreign, err := sec.NewTokenIssuer("other-access", "other-refresh", 15*time.Minute, time.Hour, "cliply.test")
	require.NoError(t, err)

	token, err := foreign.IssueAccessToken("account-1", "alice@x.com", "alice", "Alice Liddell")
	require.NoError(t, err)

	_, err = issuer.VerifyAccessToken(token)
	assert.Error(t, err)
}

/*
TestTokenIssuer_Expired ensures an expired token fails verification.
*/
func TestTokenIssuer_Expired(t *testing.T) {
	// TTL below one nanosecond is rejected, so use the smallest positive value
	// and wait it out.
	issuer, err := sec.NewTokenIssuer("access-secret", "refresh-secret", time.Nanosecond, time.Nanosecond, "cliply.test")
	require.NoError(t, err)

	token, err := issuer.IssueAccessToken("account-1", "alice@x.com", "alice", "Alice Liddell")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = issuer.VerifyAccessToken(token)
	assert.Error(t, err)
}

/*
TestTokenIssuer_NotIdempotent ensures re-issuing produces a different token for
identical input, even within the same second (unique jti per token).
*/
func TestTokenIssuer_NotIdempotent(t *testing.T) {
	issuer := newTestIssuer(t)

	first, err := issuer.IssueRefreshToken("account-1")
	require.NoError(t, err)

	second, err := issuer.IssueRefreshToken("account-1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

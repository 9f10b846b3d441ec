// Copyright (c) 2026 Cliply. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer via the auth package's TokenProvider interface.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taibuivan/cliply/pkg/uuid"
)

// AccessClaims represents the payload embedded inside a JWT Access Token.
//
// # Why custom claims?
//
// By embedding the account's identity directly inside the JWT, the request
// guard can establish WHO is calling without touching session state in the
// database — only the account projection itself is loaded. Claim names are
// abbreviated to keep the JWT payload small.
type AccessClaims struct {
	jwt.RegisteredClaims

	AccountID string `json:"uid"`
	Email     string `json:"eml"`
	Username  string `json:"unm"`
	FullName  string `json:"fnm"`
}

// RefreshClaims represents the payload embedded inside a JWT Refresh Token.
// It carries the account ID only; validity additionally requires equality
// with the refresh token stored on the account record.
type RefreshClaims struct {
	jwt.RegisteredClaims

	AccountID string `json:"uid"`
}

// TokenIssuer mints and verifies the two token classes using HS256.
//
// Each class is signed with its own server-held secret so a leaked access
// secret cannot forge refresh tokens (and vice versa).
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
}

// NewTokenIssuer creates a TokenIssuer.
//
// A missing secret is a fatal configuration error — the constructor fails and
// startup aborts; signing never fails per-request for configuration reasons.
func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, issuer string) (*TokenIssuer, error) {
	if accessSecret == "" {
		return nil, errors.New("sec: access token secret is not configured")
	}
	if refreshSecret == "" {
		return nil, errors.New("sec: refresh token secret is not configured")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("sec: token TTLs must be positive")
	}

	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		issuer:        issuer,
	}, nil
}

// AccessTokenTTL returns the configured lifetime of access tokens.
func (issuer *TokenIssuer) AccessTokenTTL() time.Duration { return issuer.accessTTL }

// RefreshTokenTTL returns the configured lifetime of refresh tokens.
func (issuer *TokenIssuer) RefreshTokenTTL() time.Duration { return issuer.refreshTTL }

// IssueAccessToken creates a signed, short-lived access token carrying the
// account's public identity.
//
// Tokens are not idempotent artifacts: the embedded issue time makes every
// call produce a different string even for identical input.
func (issuer *TokenIssuer) IssueAccessToken(accountID, email, username, fullName string) (string, error) {
	currentTime := time.Now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New(),
			Subject:   accountID,
			Issuer:    issuer.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(issuer.accessTTL)),
		},
		AccountID: accountID,
		Email:     email,
		Username:  username,
		FullName:  fullName,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(issuer.accessSecret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign access token: %w", err)
	}

	return signedToken, nil
}

// IssueRefreshToken creates a signed, long-lived refresh token carrying the
// account ID only.
func (issuer *TokenIssuer) IssueRefreshToken(accountID string) (string, error) {
	currentTime := time.Now()
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			// JWT timestamps have second precision; the unique jti guarantees
			// every rotation produces a distinct token string even within the
			// same second, which reuse detection depends on.
			ID:        uuid.New(),
			Subject:   accountID,
			Issuer:    issuer.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(issuer.refreshTTL)),
		},
		AccountID: accountID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(issuer.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign refresh token: %w", err)
	}

	return signedToken, nil
}

// VerifyAccessToken checks the signature and validity of an access token string.
func (issuer *TokenIssuer) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, issuer.keyFunc(issuer.accessSecret))
	if err != nil {
		return nil, fmt.Errorf("sec: invalid access token: %w", err)
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, errors.New("sec: invalid access token claims")
	}

	return claims, nil
}

// VerifyRefreshToken checks the signature and validity of a refresh token string.
func (issuer *TokenIssuer) VerifyRefreshToken(tokenString string) (*RefreshClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &RefreshClaims{}, issuer.keyFunc(issuer.refreshSecret))
	if err != nil {
		return nil, fmt.Errorf("sec: invalid refresh token: %w", err)
	}

	claims, ok := token.Claims.(*RefreshClaims)
	if !ok || !token.Valid {
		return nil, errors.New("sec: invalid refresh token claims")
	}

	return claims, nil
}

// keyFunc returns a jwt.Keyfunc that rejects any non-HMAC signing method
// before handing out the secret.
func (issuer *TokenIssuer) keyFunc(secret []byte) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}
}

// Copyright (c) 2026 Cliply. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/cliply/internal/platform/ctxkey"
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if not found.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}

// # Identity & Access

// WithAccountID returns a new context with the authenticated account's ID attached.
//
// The full sanitized account entity is stored under [ctxkey.KeyAccount] by the
// request guard; the plain string ID lives here so that logging middleware can
// enrich entries without a domain import.
func WithAccountID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyAccountID, id)
}

// GetAccountID retrieves the authenticated account ID from the context.
// Returns an empty string for anonymous requests.
func GetAccountID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyAccountID).(string)
	return id
}

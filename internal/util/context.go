package util

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey int

const (
	// CTXKeyLogger request-scoped logger
	CTXKeyLogger contextKey = iota
	// CTXKeyWalletID wallet subject resolved from the session token
	CTXKeyWalletID
)

// WithLogger returns a context carrying the given logger.
func WithLogger(ctx context.Context, l zerolog.Logger) context.Context {
	return context.WithValue(ctx, CTXKeyLogger, l)
}

// LogFromContext returns the request-scoped logger, falling back to the global one.
func LogFromContext(ctx context.Context) *zerolog.Logger {
	if l, ok := ctx.Value(CTXKeyLogger).(zerolog.Logger); ok {
		return &l
	}
	return &log.Logger
}

// WalletIDFromContext returns the wallet subject of the validated session token.
func WalletIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(CTXKeyWalletID).(string); ok {
		return id
	}
	return ""
}

// WithWalletID returns a context carrying the session subject.
func WithWalletID(ctx context.Context, walletID string) context.Context {
	return context.WithValue(ctx, CTXKeyWalletID, walletID)
}

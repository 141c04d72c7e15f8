// File: xdplog/xdplog.go
// Package xdplog is the structured-logging façade used throughout this
// module. Where the teacher reaches for bare log.Printf at a handful of
// warning sites, a socket lifecycle has enough moving parts (syscalls,
// ring state, filter attachment) that structured key/value fields pay for
// themselves; log/slog is stdlib's own answer to that rather than a
// third-party import, so it's used directly instead of being wrapped in
// yet another interface.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package xdplog

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

var base atomic.Pointer[slog.Logger]

func init() {
	base.Store(slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

// SetDefault replaces the package-wide logger, e.g. to redirect to JSON
// output or attach a different level filter.
func SetDefault(l *slog.Logger) {
	base.Store(l)
}

// Default returns the package-wide logger.
func Default() *slog.Logger {
	return base.Load()
}

// With returns the default logger annotated with the given key/value pairs,
// for call sites that want a sub-logger scoped to one socket or interface.
func With(args ...any) *slog.Logger {
	return base.Load().With(args...)
}

// Debug, Info, Warn, and Error log at the respective levels against the
// package-wide logger, mirroring slog's own top-level helpers but bound to
// this module's configured logger instead of slog's global default.
func Debug(msg string, args ...any) { base.Load().Debug(msg, args...) }
func Info(msg string, args ...any)  { base.Load().Info(msg, args...) }
func Warn(msg string, args ...any)  { base.Load().Warn(msg, args...) }
func Error(msg string, args ...any) { base.Load().Error(msg, args...) }

// ErrorContext logs an error with a bound context, for call sites already
// carrying one (e.g. a cancellable poll loop).
func ErrorContext(ctx context.Context, msg string, args ...any) {
	base.Load().ErrorContext(ctx, msg, args...)
}

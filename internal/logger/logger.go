// Package logger provides context-scoped structured logging built on
// logrus. Fields attached to a context via WithFields travel with it
// through the retrieval pipeline and the sync engine without every call
// site having to thread a logger value by hand.
package logger

import (
	"context"

	"github.com/sirupsen/logrus"
)

type ctxKey struct{}

var base = logrus.New()

func init() {
	base.SetFormatter(&logrus.JSONFormatter{})
}

// SetLevel adjusts the base logger's verbosity.
func SetLevel(level logrus.Level) {
	base.SetLevel(level)
}

// WithFields returns a derived context carrying the given fields merged
// with any fields already attached to ctx.
func WithFields(ctx context.Context, fields logrus.Fields) context.Context {
	entry := entryFrom(ctx).WithFields(fields)
	return context.WithValue(ctx, ctxKey{}, entry)
}

// GetLogger returns the logrus entry scoped to ctx, creating a bare one
// rooted at the base logger if none has been attached yet.
func GetLogger(ctx context.Context) *logrus.Entry {
	return entryFrom(ctx)
}

func entryFrom(ctx context.Context) *logrus.Entry {
	if ctx != nil {
		if entry, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok {
			return entry
		}
	}
	return logrus.NewEntry(base)
}

// Infof logs at info level scoped to ctx.
func Infof(ctx context.Context, format string, args ...interface{}) {
	GetLogger(ctx).Infof(format, args...)
}

// Warnf logs at warn level scoped to ctx.
func Warnf(ctx context.Context, format string, args ...interface{}) {
	GetLogger(ctx).Warnf(format, args...)
}

// Errorf logs at error level scoped to ctx.
func Errorf(ctx context.Context, format string, args ...interface{}) {
	GetLogger(ctx).Errorf(format, args...)
}

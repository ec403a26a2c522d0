// Package logger provides the process-wide zap logger.
package logger

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	lg   *zap.Logger
	once sync.Once
)

// RequestIDKey is used to store a request identifier on the context.
type RequestIDKey struct{}

// New builds the singleton logger. Production uses JSON output with ISO8601
// timestamps; every other environment gets a colored console encoder.
func New(production bool, level string) (*zap.Logger, error) {
	var err error
	once.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if !production {
			cfg = zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}

		if level != "" {
			var lvl zapcore.Level
			if err = lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
				return
			}
			cfg.Level = zap.NewAtomicLevelAt(lvl)
		}

		lg, err = cfg.Build()
	})
	return lg, err
}

// L returns the configured logger, or a no-op logger before New ran.
func L() *zap.Logger {
	if lg == nil {
		return zap.NewNop()
	}
	return lg
}

// WithContext attaches request scoped fields to the logger.
func WithContext(ctx context.Context) *zap.Logger {
	l := L()
	if ctx == nil {
		return l
	}
	if id, ok := ctx.Value(RequestIDKey{}).(string); ok && id != "" {
		return l.With(zap.String("request_id", id))
	}
	return l
}

// MaskEmail keeps the first character of the local part and the domain.
// Example: alice@example.com -> a***@example.com
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}

package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const messageKey = "message"

// Options holds logger build options.
type Options struct {
	level       string
	outputPaths []string
	development bool
}

// Option mutates Options.
type Option func(*Options)

// WithLevel sets the minimum level (debug, info, warn, error). Unknown
// values fall back to info.
func WithLevel(level string) Option {
	return func(o *Options) { o.level = level }
}

// WithOutputPaths sets zap sink paths; "stdout" and "stderr" are special.
func WithOutputPaths(paths ...string) Option {
	return func(o *Options) { o.outputPaths = paths }
}

// WithDevelopment switches to the console encoder.
func WithDevelopment() Option {
	return func(o *Options) { o.development = true }
}

// New builds a zap logger from the production config.
func New(opts ...Option) (*zap.Logger, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}

	cfg := zap.NewProductionConfig()
	if o.development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(o.level))
	if len(o.outputPaths) > 0 {
		cfg.OutputPaths = o.outputPaths
	}
	cfg.EncoderConfig.MessageKey = messageKey
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// ParseLevel maps a level name to a zap level.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// OrNop returns logger, or a no-op logger when nil.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// Package logger builds the process logger. Code logs through *slog.Logger;
// zap does the encoding and level filtering underneath.
package logger

import (
	"log/slog"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// Logger bundles the slog front end with the zap core so main can flush it.
type Logger struct {
	*slog.Logger
	Base  *zap.Logger
	Level zap.AtomicLevel
}

// New builds a logger for the given level ("debug", "info", ...) and env
// ("prod" selects JSON output, anything else the console encoder).
func New(level, env string) (*Logger, error) {
	lvl := zap.NewAtomicLevel()
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		lvl = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	var cfg zap.Config
	if strings.EqualFold(env, "prod") {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = lvl
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	base, err := cfg.Build(zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		return nil, err
	}
	return FromZap(base, lvl), nil
}

// FromZap wraps an existing zap logger, e.g. zaptest loggers in tests.
func FromZap(base *zap.Logger, lvl zap.AtomicLevel) *Logger {
	handler := zapslog.NewHandler(base.Core(), zapslog.WithCaller(true))
	return &Logger{
		Logger: slog.New(handler).With("service", "oncofeliz"),
		Base:   base,
		Level:  lvl,
	}
}

// Sync flushes buffered entries.
func (l *Logger) Sync() {
	_ = l.Base.Sync()
}

package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultLevel = "info"

// Log is the process-wide sugared logger. It is a no-op until Init is called,
// so packages can log freely from tests.
var Log = zap.NewNop().Sugar()

var base = zap.NewNop()

// Init builds the JSON logger for the given level and installs it as Log.
func Init(level string) error {
	atomic := zap.NewAtomicLevel()
	if err := atomic.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		_ = atomic.UnmarshalText([]byte(defaultLevel))
	}

	cfg := zap.Config{
		Level:    atomic,
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:    "message",
			TimeKey:       "timestamp",
			LevelKey:      "severity",
			CallerKey:     "caller",
			StacktraceKey: "stacktrace",
			EncodeTime:    zapcore.RFC3339NanoTimeEncoder,
			EncodeCaller:  zapcore.ShortCallerEncoder,
			EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
				enc.AppendString(strings.ToUpper(l.String()))
			},
		},
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: true,
	}

	built, err := cfg.Build()
	if err != nil {
		return err
	}
	base = built
	Log = built.Sugar()
	return nil
}

// Base returns the structured logger behind Log.
func Base() *zap.Logger {
	return base
}

// Sync flushes buffered log entries.
func Sync() {
	_ = base.Sync()
}

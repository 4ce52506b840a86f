package logging

import (
	"os"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Fields is a set of structured key/value pairs attached to a log entry
type Fields map[string]any

// Level is the minimum severity a logger emits
type Level int8

const (
	DebugLevel Level = iota - 1
	InfoLevel
	WarnLevel
	ErrorLevel
)

// Logger is the structured logger used across the analyzer
type Logger interface {
	Debug(msg string, fields ...Fields)
	Info(msg string, fields ...Fields)
	Warn(msg string, fields ...Fields)
	Error(err error, msg string, fields ...Fields)
	WithFields(fields Fields) Logger
}

type zapLogger struct {
	base *zap.Logger
}

var (
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	defaultMu     sync.RWMutex
	defaultLogger Logger
)

// NewDefaultLogger creates a console logger writing to stderr at the global level
func NewDefaultLogger() Logger {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(os.Stderr),
		level,
	)

	return &zapLogger{base: zap.New(core)}
}

// NewJSONLogger creates a JSON logger writing to stderr at the global level
func NewJSONLogger() Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.Lock(os.Stderr),
		level,
	)

	return &zapLogger{base: zap.New(core)}
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() Logger {
	return &zapLogger{base: zap.NewNop()}
}

// FromZap wraps an existing zap logger
func FromZap(l *zap.Logger) Logger {
	if l == nil {
		return NewNopLogger()
	}
	return &zapLogger{base: l}
}

func (l *zapLogger) Debug(msg string, fields ...Fields) {
	l.base.Debug(msg, toZap(fields)...)
}

func (l *zapLogger) Info(msg string, fields ...Fields) {
	l.base.Info(msg, toZap(fields)...)
}

func (l *zapLogger) Warn(msg string, fields ...Fields) {
	l.base.Warn(msg, toZap(fields)...)
}

func (l *zapLogger) Error(err error, msg string, fields ...Fields) {
	zf := toZap(fields)
	if err != nil {
		zf = append(zf, zap.Error(err))
	}
	l.base.Error(msg, zf...)
}

func (l *zapLogger) WithFields(fields Fields) Logger {
	return &zapLogger{base: l.base.With(toZap([]Fields{fields})...)}
}

// toZap flattens the field sets in key order so output is stable
func toZap(sets []Fields) []zap.Field {
	if len(sets) == 0 {
		return nil
	}

	var out []zap.Field
	for _, set := range sets {
		keys := make([]string, 0, len(set))
		for k := range set {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, zap.Any(k, set[k]))
		}
	}
	return out
}

// SetLevel changes the level of every logger created by this package
func SetLevel(l Level) {
	level.SetLevel(zapcore.Level(l))
}

// ParseLevel maps a config string to a Level, defaulting to info
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// SetDefault replaces the package-level logger
func SetDefault(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// Default returns the package-level logger
func Default() Logger {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()
	if l != nil {
		return l
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewDefaultLogger()
	}
	return defaultLogger
}

// WithFields derives a logger from the package-level logger
func WithFields(fields Fields) Logger {
	return Default().WithFields(fields)
}

func Debug(msg string, fields ...Fields) { Default().Debug(msg, fields...) }
func Info(msg string, fields ...Fields)  { Default().Info(msg, fields...) }
func Warn(msg string, fields ...Fields)  { Default().Warn(msg, fields...) }

func Error(err error, msg string, fields ...Fields) {
	Default().Error(err, msg, fields...)
}

package logging

import (
	"os"
	"sort"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Fields map[string]interface{}

var (
	level  = zap.NewAtomicLevelAt(zap.InfoLevel)
	logger atomic.Pointer[zap.Logger]
)

func init() {
	logger.Store(newLogger(os.Stdout))
}

func newLogger(out zapcore.WriteSyncer) *zap.Logger {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.LevelKey = "level"
	enc.MessageKey = "msg"
	enc.EncodeTime = zapcore.RFC3339TimeEncoder
	enc.StacktraceKey = ""
	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.Lock(out), level)
	return zap.New(core)
}

// SetOutput redirects log lines, mainly for tests.
func SetOutput(out zapcore.WriteSyncer) {
	logger.Store(newLogger(out))
}

// SetLevel changes the minimum level. Unknown names leave it unchanged and
// return the parse error.
func SetLevel(name string) error {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(name)))); err != nil {
		return err
	}
	level.SetLevel(l)
	return nil
}

// Sync flushes buffered entries; call it before the process exits.
func Sync() {
	_ = logger.Load().Sync()
}

func toZap(fields Fields) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}

// Debug logs a verbose message with optional fields.
func Debug(msg string, fields Fields) {
	logger.Load().Debug(msg, toZap(fields)...)
}

// Info logs an informational message with optional fields.
func Info(msg string, fields Fields) {
	logger.Load().Info(msg, toZap(fields)...)
}

// Warn logs a recoverable problem, including the error text when present.
func Warn(msg string, err error, fields Fields) {
	zf := toZap(fields)
	if err != nil {
		zf = append(zf, zap.String("error", err.Error()))
	}
	logger.Load().Warn(msg, zf...)
}

// Error logs an error message and includes the error text in the fields.
func Error(msg string, err error, fields Fields) {
	zf := toZap(fields)
	if err != nil {
		zf = append(zf, zap.String("error", err.Error()))
	}
	logger.Load().Error(msg, zf...)
}

// Fatal logs a fatal error and exits the process.
func Fatal(msg string, err error, fields Fields) {
	zf := toZap(fields)
	if err != nil {
		zf = append(zf, zap.String("error", err.Error()))
	}
	// zap's Fatal calls os.Exit(1) after writing
	logger.Load().Fatal(msg, zf...)
}

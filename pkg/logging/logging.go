package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Levels accepted by InitForCLI.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// redactedKeys are attribute keys whose values never reach the output.
var redactedKeys = map[string]bool{
	"password":      true,
	"access_token":  true,
	"code":          true,
	"code_verifier": true,
}

const redacted = "[REDACTED]"

var (
	level  = new(slog.LevelVar)
	logger = newLogger(os.Stderr)
)

// InitForCLI sends log records at or above lvl to w as plain text without
// timestamps. A nil w means stderr.
func InitForCLI(lvl slog.Level, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	level.Set(lvl)
	logger = newLogger(w)
	slog.SetDefault(logger)
}

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			if redactedKeys[strings.ToLower(a.Key)] {
				return slog.String(a.Key, redacted)
			}
			return a
		},
	}))
}

// Logger returns the CLI logger.
func Logger() *slog.Logger {
	return logger
}

func log(lvl slog.Level, subsystem string, err error, messageFmt string, args ...interface{}) {
	ctx := context.Background()
	if !logger.Enabled(ctx, lvl) {
		return
	}

	msg := messageFmt
	if len(args) > 0 {
		msg = fmt.Sprintf(messageFmt, args...)
	}

	attrs := []slog.Attr{slog.String("subsystem", subsystem)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	logger.LogAttrs(ctx, lvl, msg, attrs...)
}

// Debug logs a debug message.
func Debug(subsystem string, messageFmt string, args ...interface{}) {
	log(LevelDebug, subsystem, nil, messageFmt, args...)
}

// Info logs an informational message.
func Info(subsystem string, messageFmt string, args ...interface{}) {
	log(LevelInfo, subsystem, nil, messageFmt, args...)
}

// Warn logs a warning.
func Warn(subsystem string, messageFmt string, args ...interface{}) {
	log(LevelWarn, subsystem, nil, messageFmt, args...)
}

// Error logs err with a message.
func Error(subsystem string, err error, messageFmt string, args ...interface{}) {
	log(LevelError, subsystem, err, messageFmt, args...)
}

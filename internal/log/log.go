package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/lmittmann/tint"
	"github.com/paularlott/logger"
	logslog "github.com/paularlott/logger/slog"
	"golang.org/x/term"
)

// LevelTrace sits below debug for very chatty output
const LevelTrace = logslog.LevelTrace

type holder struct {
	logger logger.Logger
}

var current atomic.Pointer[holder]

func init() {
	Configure("info", "console")
}

// Configure replaces the package logger. Format is "console" or "json".
func Configure(level, format string) {
	ConfigureWriter(os.Stderr, level, format)
}

// ConfigureWriter is Configure with an explicit destination
func ConfigureWriter(w io.Writer, level, format string) {
	current.Store(&holder{logger: New(w, level, format)})
}

// New builds a logger writing to w. JSON output comes from the logger/slog
// package; console output goes through tint, uncoloured when w is not a terminal.
func New(w io.Writer, level, format string) logger.Logger {
	if strings.EqualFold(format, "json") {
		return logslog.New(logslog.Config{
			Level:  strings.TrimSpace(level),
			Format: "json",
			Writer: w,
		})
	}

	handler := tint.NewHandler(w, &tint.Options{
		Level:       ParseLevel(level),
		TimeFormat:  time.DateTime,
		NoColor:     !isTerminal(w),
		ReplaceAttr: renameTrace,
	})
	return &slogLogger{logger: slog.New(handler)}
}

// ParseLevel maps a level name to its slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func renameTrace(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey && len(groups) == 0 {
		if lvl, ok := a.Value.Any().(slog.Level); ok && lvl <= LevelTrace {
			a.Value = slog.StringValue("TRACE")
		}
	}
	return a
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// GetLogger returns the configured logger, for components that take a logger.Logger
func GetLogger() logger.Logger {
	return current.Load().logger
}

func Trace(msg string, keysAndValues ...any) { GetLogger().Trace(msg, keysAndValues...) }
func Debug(msg string, keysAndValues ...any) { GetLogger().Debug(msg, keysAndValues...) }
func Info(msg string, keysAndValues ...any)  { GetLogger().Info(msg, keysAndValues...) }
func Warn(msg string, keysAndValues ...any)  { GetLogger().Warn(msg, keysAndValues...) }
func Error(msg string, keysAndValues ...any) { GetLogger().Error(msg, keysAndValues...) }

func With(key string, value any) logger.Logger {
	return GetLogger().With(key, value)
}

func WithError(err error) logger.Logger {
	return GetLogger().WithError(err)
}

// slogLogger adapts a *slog.Logger to logger.Logger
type slogLogger struct {
	logger *slog.Logger
}

func (l *slogLogger) log(level slog.Level, msg string, keysAndValues ...any) {
	l.logger.Log(context.Background(), level, msg, keysAndValues...)
}

func (l *slogLogger) Trace(msg string, keysAndValues ...any) {
	l.log(LevelTrace, msg, keysAndValues...)
}

func (l *slogLogger) Debug(msg string, keysAndValues ...any) {
	l.log(slog.LevelDebug, msg, keysAndValues...)
}

func (l *slogLogger) Info(msg string, keysAndValues ...any) {
	l.log(slog.LevelInfo, msg, keysAndValues...)
}

func (l *slogLogger) Warn(msg string, keysAndValues ...any) {
	l.log(slog.LevelWarn, msg, keysAndValues...)
}

func (l *slogLogger) Error(msg string, keysAndValues ...any) {
	l.log(slog.LevelError, msg, keysAndValues...)
}

func (l *slogLogger) Fatal(msg string, keysAndValues ...any) {
	l.log(logslog.LevelFatal, msg, keysAndValues...)
	os.Exit(1)
}

func (l *slogLogger) With(key string, value any) logger.Logger {
	return &slogLogger{logger: l.logger.With(key, value)}
}

func (l *slogLogger) WithError(err error) logger.Logger {
	return &slogLogger{logger: l.logger.With("error", err)}
}

func (l *slogLogger) WithGroup(group string) logger.Logger {
	return &slogLogger{logger: l.logger.WithGroup(group)}
}

package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/sophialabs/redirectlint/internal/infrastructure/ports"
)

var _ ports.Logger = (*SlogLogger)(nil)

// SlogLogger wraps slog to implement ports.Logger.
type SlogLogger struct {
	logger *slog.Logger
}

// New creates a new SlogLogger from an slog.Logger.
func New(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{logger: logger}
}

// NewText creates a text-handler logger writing to w at the named level.
func NewText(w io.Writer, level string) *SlogLogger {
	return New(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})))
}

func (l *SlogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *SlogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *SlogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }
func (l *SlogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }

// ParseLevel maps a level name to a slog level. Unknown names map to warn.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// Package logging configures the process-wide zerolog logger and bridges it
// to log/slog for libraries that speak slog (the suture event hook).
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokaycavdar/go-trustguard/pkg/config"
)

// New builds the root logger from configuration.
func New(cfg config.LoggingConfig) zerolog.Logger {
	var out io.Writer = os.Stderr
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Slog wraps a zerolog logger in a *slog.Logger.
func Slog(logger zerolog.Logger) *slog.Logger {
	return slog.New(&slogHandler{logger: logger})
}

// slogHandler forwards slog records to zerolog.
type slogHandler struct {
	logger zerolog.Logger
	group  string
}

func (h *slogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return zerologLevel(level) >= h.logger.GetLevel()
}

func (h *slogHandler) Handle(_ context.Context, record slog.Record) error {
	event := h.logger.WithLevel(zerologLevel(record.Level))
	record.Attrs(func(attr slog.Attr) bool {
		event = event.Interface(h.key(attr.Key), attr.Value.Any())
		return true
	})
	event.Msg(record.Message)
	return nil
}

func (h *slogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	ctx := h.logger.With()
	for _, attr := range attrs {
		ctx = ctx.Interface(h.key(attr.Key), attr.Value.Any())
	}
	return &slogHandler{logger: ctx.Logger(), group: h.group}
}

func (h *slogHandler) WithGroup(name string) slog.Handler {
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}
	return &slogHandler{logger: h.logger, group: group}
}

func (h *slogHandler) key(k string) string {
	if h.group == "" {
		return k
	}
	return h.group + "." + k
}

func zerologLevel(level slog.Level) zerolog.Level {
	switch {
	case level >= slog.LevelError:
		return zerolog.ErrorLevel
	case level >= slog.LevelWarn:
		return zerolog.WarnLevel
	case level >= slog.LevelInfo:
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}

// Package logging provides structured logging configuration using log/slog.
//
// This package integrates with chi's RequestID middleware to propagate
// request IDs through structured log entries, so every line written while
// an upload is processed can be correlated.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/JonMunkholm/sheetnorm/internal/config"
)

// Setup configures the global slog logger from cfg and returns the
// underlying output so main can close it on shutdown.
//
// Logs go to stdout unless cfg.File is set, in which case they are written
// to that file and rotated by lumberjack once it reaches cfg.MaxSizeMB.
//
// Use "json" format in production for machine parsing.
// Use "text" format in development for human readability.
func Setup(cfg config.LoggingConfig) io.Closer {
	out := Output(cfg)
	slog.SetDefault(New(out, cfg.Level, cfg.Format))
	return out
}

// Output returns the writer logs should go to for cfg.
func Output(cfg config.LoggingConfig) io.WriteCloser {
	if cfg.File == "" {
		return nopCloser{os.Stdout}
	}
	return &lumberjack.Logger{
		Filename:   filepath.Clean(cfg.File),
		MaxSize:    cfg.MaxSizeMB, // megabytes
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays, // days
		LocalTime:  true,
	}
}

// New builds a logger writing to w.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// FromContext returns a logger enriched with request context.
//
// When called with a request context that contains a chi RequestID,
// the returned logger includes request_id in all log entries.
//
// Usage:
//
//	func handleUpload(w http.ResponseWriter, r *http.Request) {
//	    logger := logging.FromContext(r.Context())
//	    logger.Info("workbook received", "file", header.Filename)
//	}
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}

	return logger
}

// WithFields returns a logger with additional structured fields.
//
// Usage:
//
//	uploadLogger := logging.WithFields(ctx,
//	    "upload_id", res.UploadID,
//	    "file", res.FileName,
//	)
//	uploadLogger.Info("upload normalized", "rows", len(res.Rows))
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}

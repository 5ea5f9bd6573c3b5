// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package telemetry sets up logging, tracing and metrics. This file builds
// the slog handler: Cloud Logging JSON on stdout and in a rotated file, or a
// colored console in text mode, always with trace correlation fields.
package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	slogmulti "github.com/samber/slog-multi"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jaycherian/gcp-go-cineprompt/internal/cloud"
)

// spanContextLogHandler adds the Cloud Logging trace fields of the span in
// the record's context, so log lines correlate with Cloud Trace.
type spanContextLogHandler struct {
	slog.Handler
}

func handlerWithSpanContext(handler slog.Handler) *spanContextLogHandler {
	return &spanContextLogHandler{Handler: handler}
}

// Handle implements slog.Handler.
// See https://cloud.google.com/logging/docs/structured-logging#special-payload-fields
func (t *spanContextLogHandler) Handle(ctx context.Context, record slog.Record) error {
	if s := trace.SpanContextFromContext(ctx); s.IsValid() {
		record.AddAttrs(
			slog.Any("logging.googleapis.com/trace", s.TraceID()),
			slog.Any("logging.googleapis.com/spanId", s.SpanID()),
			slog.Bool("logging.googleapis.com/trace_sampled", s.TraceFlags().IsSampled()),
		)
	}
	return t.Handler.Handle(ctx, record)
}

// WithAttrs keeps the span wrapping on derived loggers.
func (t *spanContextLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return handlerWithSpanContext(t.Handler.WithAttrs(attrs))
}

// WithGroup keeps the span wrapping on derived loggers.
func (t *spanContextLogHandler) WithGroup(name string) slog.Handler {
	return handlerWithSpanContext(t.Handler.WithGroup(name))
}

// replacer renames the top level slog keys to the ones Cloud Logging reads:
// severity, timestamp and message. WARN becomes WARNING.
func replacer(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.LevelKey:
		a.Key = "severity"
		if level, ok := a.Value.Any().(slog.Level); ok && level == slog.LevelWarn {
			a.Value = slog.StringValue("WARNING")
		}
	case slog.TimeKey:
		a.Key = "timestamp"
	case slog.MessageKey:
		a.Key = "message"
	}
	return a
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ParseLevel maps a configured level name onto a slog.Level, falling back to
// Info for empty or unknown names.
func ParseLevel(in string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(in))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NewLogHandler builds the slog handler described by the logging configuration.
// The rotated file, when configured, always receives Cloud Logging JSON. The
// console receives JSON as well unless the format is "text", in which case a
// colored tint handler is used.
//
// Inputs:
//   - console: Where console output goes (usually os.Stdout).
//   - cfg: The logging section of the application configuration.
//
// Returns:
//   - The handler, wrapped so that trace context is injected.
//   - An io.Closer for the rotated log file (a no-op closer when no file is used).
func NewLogHandler(console io.Writer, cfg cloud.Logging) (slog.Handler, io.Closer) {
	level := ParseLevel(cfg.Level)
	jsonOpts := &slog.HandlerOptions{Level: level, ReplaceAttr: replacer}

	var closer io.Closer = nopCloser{}
	var fileWriter io.Writer
	if cfg.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		fileWriter = rotated
		closer = rotated
	}

	var handler slog.Handler
	switch {
	case cfg.Format == "text" && fileWriter != nil:
		handler = slogmulti.Fanout(
			tint.NewHandler(console, &tint.Options{Level: level, TimeFormat: time.Kitchen}),
			slog.NewJSONHandler(fileWriter, jsonOpts),
		)
	case cfg.Format == "text":
		handler = tint.NewHandler(console, &tint.Options{Level: level, TimeFormat: time.Kitchen})
	case fileWriter != nil:
		handler = slog.NewJSONHandler(io.MultiWriter(console, fileWriter), jsonOpts)
	default:
		handler = slog.NewJSONHandler(console, jsonOpts)
	}
	return handlerWithSpanContext(handler), closer
}

// SetupLogging initializes the logging system for the entire application.
// It configures both the standard `log` package and the structured `slog` package
// from the logging configuration and enables the automatic injection of trace context.
// The returned closer flushes and closes the rotated log file.
func SetupLogging(cfg cloud.Logging) io.Closer {
	handler, closer := NewLogHandler(os.Stdout, cfg)

	// Set this fully configured handler as the global default for the slog package.
	// Any call to slog.Info, slog.Error, etc., will now use this handler, and the
	// standard `log` package is routed through it as well.
	slog.SetDefault(slog.New(handler))
	return closer
}

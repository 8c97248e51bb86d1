// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package logger carries a [slog] logger in a context.
//
// A [Logger] writes to any number of handlers, which can be attached after
// it was created and after loggers were derived from it with [With].
package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/lmittmann/tint"
)

type ctxKey struct{}

// sink is the set of handlers shared by a logger and everything derived from
// it.
type sink struct {
	mu       sync.RWMutex
	handlers []slog.Handler
}

// fanout is a slog.Handler sending each record to all handlers of a sink.
// Attributes and groups are applied when a record is handled, so they reach
// handlers attached later.
type fanout struct {
	sink *sink
	ops  []func(slog.Handler) slog.Handler
}

func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	f.sink.mu.RLock()
	defer f.sink.mu.RUnlock()
	return slices.ContainsFunc(f.sink.handlers, func(h slog.Handler) bool {
		return h.Enabled(ctx, level)
	})
}

func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
	f.sink.mu.RLock()
	defer f.sink.mu.RUnlock()
	var errs []error
	for _, h := range f.sink.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		for _, op := range f.ops {
			h = op(h)
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.with(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f *fanout) WithGroup(name string) slog.Handler {
	return f.with(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f *fanout) with(op func(slog.Handler) slog.Handler) slog.Handler {
	return &fanout{sink: f.sink, ops: append(slices.Clip(f.ops), op)}
}

// Logger is a [slog.Logger] whose handlers can be attached at run time.
type Logger struct {
	*slog.Logger
	// Level is the minimum level of handlers made by NewConsoleHandler.
	Level *slog.LevelVar

	sink *sink
}

// New returns a Logger without handlers. If level is nil, the level is
// Info.
func New(level *slog.LevelVar) *Logger {
	if level == nil {
		level = new(slog.LevelVar)
	}
	s := new(sink)
	return &Logger{
		Logger: slog.New(&fanout{sink: s}),
		Level:  level,
		sink:   s,
	}
}

// Attach adds h to l and to every logger derived from it.
func (l *Logger) Attach(h slog.Handler) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.handlers = append(l.sink.handlers, h)
}

// NewConsoleHandler returns a handler writing short human-readable lines to
// w at the level of l, colored if color is true.
func (l *Logger) NewConsoleHandler(w io.Writer, color bool) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      l.Level,
		TimeFormat: time.TimeOnly,
		NoColor:    !color,
	})
}

var discard = New(nil)

// Put returns a copy of ctx carrying l.
func Put(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// Get returns the Logger carried by ctx. Without one, it returns a Logger
// that discards everything.
func Get(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return discard
}

// With returns a copy of ctx whose Logger adds attrs to every message.
func With(ctx context.Context, attrs ...slog.Attr) context.Context {
	l := Get(ctx)
	return Put(ctx, &Logger{
		Logger: slog.New(l.Handler().WithAttrs(attrs)),
		Level:  l.Level,
		sink:   l.sink,
	})
}

// Debug logs at [slog.LevelDebug].
func Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	Get(ctx).LogAttrs(ctx, slog.LevelDebug, msg, attrs...)
}

// Info logs at [slog.LevelInfo].
func Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	Get(ctx).LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

// Warn logs at [slog.LevelWarn].
func Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	Get(ctx).LogAttrs(ctx, slog.LevelWarn, msg, attrs...)
}

// Error logs at [slog.LevelError].
func Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	Get(ctx).LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

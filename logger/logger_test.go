// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"go.astrophena.name/copyright/testutil"
)

func TestDefaultDiscards(t *testing.T) {
	ctx := context.Background()
	testutil.AssertEqual(t, Get(ctx), discard)
	testutil.AssertEqual(t, Get(ctx).Enabled(ctx, slog.LevelError), false)
	// Must not panic without handlers.
	Info(ctx, "nobody hears this")
	Info(With(ctx, slog.String("buffer", "x")), "nor this")
}

func TestLevels(t *testing.T) {
	l := New(nil)
	var buf bytes.Buffer
	l.Attach(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: l.Level}))
	ctx := Put(context.Background(), l)

	Debug(ctx, "hidden")
	Info(ctx, "shown", slog.String("file", "main.go"))
	testutil.AssertEqual(t, strings.Contains(buf.String(), "hidden"), false)
	testutil.AssertEqual(t, strings.Contains(buf.String(), "msg=shown file=main.go"), true)

	l.Level.Set(slog.LevelDebug)
	Debug(ctx, "now visible")
	testutil.AssertEqual(t, strings.Contains(buf.String(), "now visible"), true)
}

func TestFanOut(t *testing.T) {
	l := New(nil)
	var all, errs bytes.Buffer
	l.Attach(slog.NewTextHandler(&all, nil))
	l.Attach(slog.NewTextHandler(&errs, &slog.HandlerOptions{Level: slog.LevelError}))
	ctx := Put(context.Background(), l)

	Warn(ctx, "careful")
	Error(ctx, "broken")

	testutil.AssertEqual(t, strings.Contains(all.String(), "careful"), true)
	testutil.AssertEqual(t, strings.Contains(all.String(), "broken"), true)
	testutil.AssertEqual(t, strings.Contains(errs.String(), "careful"), false)
	testutil.AssertEqual(t, strings.Contains(errs.String(), "msg=broken"), true)
}

func TestWith(t *testing.T) {
	l := New(nil)
	ctx := With(Put(context.Background(), l), slog.String("buffer", "main.go"))
	ctx = With(ctx, slog.Int("line", 1))

	// Handlers attached after deriving still get the attributes.
	var buf bytes.Buffer
	l.Attach(slog.NewTextHandler(&buf, nil))

	Info(ctx, "updated copyright notice")
	Info(Put(context.Background(), l), "plain")

	out := buf.String()
	testutil.AssertEqual(t, strings.Contains(out, "msg=\"updated copyright notice\" buffer=main.go line=1"), true)
	testutil.AssertEqual(t, strings.Contains(out, "msg=plain\n"), true)
	testutil.AssertEqual(t, Get(ctx).Level, l.Level)
}

func TestGroup(t *testing.T) {
	l := New(nil)
	var buf bytes.Buffer
	l.Attach(slog.NewTextHandler(&buf, nil))

	l.WithGroup("watch").Info("event", slog.String("op", "WRITE"))
	testutil.AssertEqual(t, strings.Contains(buf.String(), "watch.op=WRITE"), true)
}

func TestConsoleHandler(t *testing.T) {
	l := New(nil)
	var buf bytes.Buffer
	l.Attach(l.NewConsoleHandler(&buf, false))
	ctx := With(Put(context.Background(), l), slog.String("buffer", "main.go"))

	Info(ctx, "updated copyright notice")
	out := buf.String()
	testutil.AssertEqual(t, strings.Contains(out, "INF updated copyright notice buffer=main.go"), true)
	testutil.AssertEqual(t, strings.Contains(out, "\x1b["), false)
}

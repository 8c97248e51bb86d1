// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package editor keeps the copyright notice of edited buffers up to date.
//
// A host editor drives an [Updater] through its buffer lifecycle callbacks:
// [Updater.OnModified] after every edit, [Updater.OnPreSave] before a save
// and [Updater.OnClose] when a buffer is closed. The host guarantees the
// callbacks for a buffer are not run concurrently.
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.astrophena.name/copyright/logger"
	"go.astrophena.name/copyright/notice"
)

// Updater updates copyright notices on save and tracks which buffers are
// already up to date.
type Updater struct {
	// Options control how years are parsed and rendered.
	Options notice.Options
	// Year, if non-zero, is used instead of the current year.
	Year int
	// Now returns the current time. If nil, time.Now is used.
	Now func() time.Time

	tracker Tracker
}

// Tracker returns the session state of u.
func (u *Updater) Tracker() *Tracker { return &u.tracker }

func (u *Updater) year() int {
	if u.Year != 0 {
		return u.Year
	}
	if u.Now != nil {
		return u.Now().Year()
	}
	return time.Now().Year()
}

// FindNotice returns the region of the first copyright notice in buf.
func FindNotice(buf Buffer) (Region, bool) {
	return buf.Find(func(text string) (Region, bool) {
		m, ok := notice.Find(text)
		return Region{Begin: m.Begin, End: m.End}, ok
	})
}

// Update brings the first copyright notice of buf up to date and reports
// whether buf was changed. A buffer without a notice is left alone.
func (u *Updater) Update(ctx context.Context, buf Buffer) (bool, error) {
	r, ok := FindNotice(buf)
	if !ok {
		logger.Debug(ctx, "no copyright notice", slog.String("buffer", string(buf.ID())))
		return false, nil
	}
	old := buf.Substr(r)
	n, ok := notice.Parse(old)
	if !ok {
		return false, nil
	}

	updated, changed, err := notice.Normalize(n, u.year(), u.Options)
	if err != nil {
		return false, fmt.Errorf("%s: %w", buf.ID(), err)
	}
	if !changed {
		logger.Debug(ctx, "copyright notice is up to date", slog.String("buffer", string(buf.ID())))
		return false, nil
	}
	if err := buf.Replace(r, updated.String()); err != nil {
		return false, fmt.Errorf("%s: %w", buf.ID(), err)
	}

	logger.Info(ctx, "updated copyright notice",
		slog.String("buffer", string(buf.ID())),
		slog.String("old", n.Years),
		slog.String("new", updated.Years),
	)
	return true, nil
}

// OnPreSave runs [Updater.Update] on a dirty buffer, unless its notice was
// already found up to date during this session.
func (u *Updater) OnPreSave(ctx context.Context, buf Buffer) error {
	if !buf.IsDirty() {
		return nil
	}
	if updated, _ := u.tracker.Lookup(buf.ID()); updated {
		logger.Debug(ctx, "skipping tracked buffer", slog.String("buffer", string(buf.ID())))
		return nil
	}
	_, err := u.Update(ctx, buf)
	return err
}

// OnModified inspects the line under the primary selection. If it holds a
// copyright notice, the buffer is marked as updated. Otherwise a tracked
// buffer is marked for a rescan on the next save; untracked buffers are left
// alone.
func (u *Updater) OnModified(ctx context.Context, buf Buffer) {
	sel, ok := buf.Selection()
	if !ok {
		return
	}
	_, found := notice.Parse(buf.Substr(buf.Line(sel.Begin)))

	id := buf.ID()
	if _, tracked := u.tracker.Lookup(id); found || tracked {
		u.tracker.Set(id, found)
		logger.Debug(ctx, "tracked copyright notice", slog.String("buffer", string(id)), slog.Bool("updated", found))
	}
}

// OnClose drops the session state of buf.
func (u *Updater) OnClose(ctx context.Context, buf Buffer) {
	if u.tracker.Forget(buf.ID()) {
		logger.Debug(ctx, "forgot buffer", slog.String("buffer", string(buf.ID())))
	}
}

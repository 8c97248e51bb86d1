// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package watch hosts an [editor.Updater] on top of the file system.
//
// Every watched file is an open buffer. When a file is written, the host
// waits until the file has been quiet for [Host.Settle], then treats the new
// content as a single edit, with the cursor where the edit ends, followed by
// a save: it runs [editor.Updater.OnModified] and [editor.Updater.OnPreSave],
// and writes the file back if the notice was updated. The write-back is
// skipped if the file changed after it was read. Removing or renaming a file
// closes its buffer.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/natefinch/atomic"

	"go.astrophena.name/copyright/editor"
	"go.astrophena.name/copyright/logger"
)

// DefaultSettle is how long a file must go without writes before the host
// processes it.
const DefaultSettle = time.Second

// errChanged is returned by save when the file no longer holds the content
// the update was based on.
var errChanged = errors.New("file changed during update")

// Host watches directories and keeps the copyright notices of their files up
// to date.
type Host struct {
	// Settle is how long a file must be quiet before it is processed. Zero
	// means DefaultSettle.
	Settle time.Duration

	updater *editor.Updater
	match   func(path string) bool
	skipDir func(path string) bool

	fsw     *fsnotify.Watcher
	buffers map[string]*editor.MemBuffer

	// beforeSave, if set, is called between reading a file and writing it
	// back.
	beforeSave func(path string)
}

// New returns a Host driving u. match selects the files to process; skipDir,
// if not nil, selects directories not to descend into. Hidden directories
// are always skipped.
func New(u *editor.Updater, match, skipDir func(path string) bool) (*Host, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("unable to create watcher: %w", err)
	}
	return newHost(u, match, skipDir, fsw), nil
}

func newHost(u *editor.Updater, match, skipDir func(string) bool, fsw *fsnotify.Watcher) *Host {
	if skipDir == nil {
		skipDir = func(string) bool { return false }
	}
	return &Host{
		updater: u,
		match:   match,
		skipDir: skipDir,
		fsw:     fsw,
		buffers: make(map[string]*editor.MemBuffer),
	}
}

// Watch starts watching the directory trees rooted at roots and opens a
// buffer for every matching file in them.
func (h *Host) Watch(ctx context.Context, roots ...string) error {
	for _, root := range roots {
		if err := h.addTree(ctx, root); err != nil {
			return err
		}
	}
	return nil
}

func (h *Host) addTree(ctx context.Context, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && (isHidden(path) || h.skipDir(path)) {
				return filepath.SkipDir
			}
			if h.fsw != nil {
				if err := h.fsw.Add(path); err != nil {
					return fmt.Errorf("unable to watch %s: %w", path, err)
				}
			}
			logger.Debug(ctx, "watching", slog.String("dir", path))
			return nil
		}
		if !h.match(path) {
			return nil
		}
		return h.open(path)
	})
}

func isHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

func (h *Host) open(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	h.buffers[path] = editor.NewMemBuffer(editor.BufferID(path), string(content))
	return nil
}

// Len returns the number of open buffers.
func (h *Host) Len() int { return len(h.buffers) }

// Run handles file system events until ctx is canceled. Writes and created
// files are queued until they settle. Errors handling a single file are
// logged and don't stop the loop.
func (h *Host) Run(ctx context.Context) error {
	logger.Info(ctx, "watching for changes", slog.Int("files", len(h.buffers)))

	settle := h.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}
	pending := make(map[string]time.Time)

	for {
		var flush <-chan time.Time
		if next, ok := earliest(pending); ok {
			flush = time.After(time.Until(next))
		}

		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-h.fsw.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			logger.Debug(ctx, "file event", slog.String("file", ev.Name), slog.String("op", ev.Op.String()))
			if h.deferred(ev) {
				pending[ev.Name] = time.Now().Add(settle)
				continue
			}
			delete(pending, ev.Name)
			h.dispatch(ctx, ev)
		case <-flush:
			now := time.Now()
			for path, at := range pending {
				if at.After(now) {
					continue
				}
				delete(pending, path)
				h.dispatch(ctx, fsnotify.Event{Name: path, Op: fsnotify.Write})
			}
		case err, ok := <-h.fsw.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			logger.Warn(ctx, "watcher error", slog.Any("err", err))
		}
	}
}

// deferred reports whether ev is a change to a file's content, which waits
// for the file to settle.
func (h *Host) deferred(ev fsnotify.Event) bool {
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		return false
	}
	if ev.Has(fsnotify.Write) {
		return true
	}
	if ev.Has(fsnotify.Create) {
		info, err := os.Stat(ev.Name)
		return err == nil && !info.IsDir()
	}
	return false
}

func (h *Host) dispatch(ctx context.Context, ev fsnotify.Event) {
	ctx = logger.With(ctx, slog.String("file", ev.Name))
	if err := h.handle(ctx, ev); err != nil {
		logger.Error(ctx, "handling event failed", slog.Any("err", err))
	}
}

func earliest(pending map[string]time.Time) (time.Time, bool) {
	var (
		first time.Time
		ok    bool
	)
	for _, at := range pending {
		if !ok || at.Before(first) {
			first, ok = at, true
		}
	}
	return first, ok
}

// Close stops watching and closes all buffers.
func (h *Host) Close(ctx context.Context) error {
	for path := range h.buffers {
		h.close(ctx, path)
	}
	if h.fsw == nil {
		return nil
	}
	return h.fsw.Close()
}

func (h *Host) handle(ctx context.Context, ev fsnotify.Event) error {
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		h.close(ctx, ev.Name)
		return nil
	case ev.Has(fsnotify.Create):
		info, err := os.Stat(ev.Name)
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if isHidden(ev.Name) || h.skipDir(ev.Name) {
				return nil
			}
			return h.addTree(ctx, ev.Name)
		}
		return h.changed(ctx, ev.Name)
	case ev.Has(fsnotify.Write):
		return h.changed(ctx, ev.Name)
	}
	return nil
}

func (h *Host) close(ctx context.Context, path string) {
	buf, ok := h.buffers[path]
	if !ok {
		return
	}
	h.updater.OnClose(ctx, buf)
	delete(h.buffers, path)
}

// changed applies the current content of the file at path to its buffer and
// saves it.
func (h *Host) changed(ctx context.Context, path string) error {
	if !h.match(path) {
		return nil
	}
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	text := string(content)

	buf, ok := h.buffers[path]
	if !ok {
		buf = editor.NewMemBuffer(editor.BufferID(path), "")
		h.buffers[path] = buf
	}
	old := buf.Text()
	if text == old {
		// Our own write, or a write that changed nothing.
		return nil
	}

	buf.SetText(text)
	at := editEnd(old, text)
	buf.Select(editor.Region{Begin: at, End: at})
	h.updater.OnModified(ctx, buf)

	if err := h.updater.OnPreSave(ctx, buf); err != nil {
		return err
	}
	if buf.Text() != text {
		if h.beforeSave != nil {
			h.beforeSave(path)
		}
		err := save(path, text, buf.Text())
		if errors.Is(err, errChanged) {
			// Somebody is still writing. Go back to what was read; the next
			// write event brings the rest.
			logger.Debug(ctx, "file changed during update, not saving")
			buf.SetText(text)
			return nil
		}
		if err != nil {
			return err
		}
		// Report the update as an edit on the notice line, so the next save
		// skips the scan.
		if r, ok := editor.FindNotice(buf); ok {
			buf.Select(editor.Region{Begin: r.Begin, End: r.Begin})
			h.updater.OnModified(ctx, buf)
		}
	}
	buf.MarkClean()
	return nil
}

// save replaces the file at path with text if it still holds read.
func save(path, read, text string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	cur, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if string(cur) != read {
		return errChanged
	}
	if err := atomic.WriteFile(path, strings.NewReader(text)); err != nil {
		return err
	}
	return os.Chmod(path, info.Mode().Perm())
}

// editEnd returns the offset in b where a single edit turning a into b ends,
// that is where the cursor would be after typing it.
func editEnd(a, b string) int {
	n := min(len(a), len(b))
	prefix := 0
	for prefix < n && a[prefix] == b[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < n-prefix && a[len(a)-1-suffix] == b[len(b)-1-suffix] {
		suffix++
	}
	return len(b) - suffix
}

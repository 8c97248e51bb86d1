// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/natefinch/atomic"

	"go.astrophena.name/copyright/cli"
	"go.astrophena.name/copyright/config"
	"go.astrophena.name/copyright/editor"
	"go.astrophena.name/copyright/logger"
	"go.astrophena.name/copyright/systemd"
	"go.astrophena.name/copyright/watch"
)

func main() { cli.Main(new(app)) }

type app struct {
	configPath string
	dry        bool
	watch      bool
	year       int
}

func (a *app) Flags(fs *flag.FlagSet) {
	fs.StringVar(&a.configPath, "config", config.DefaultFile, "Read settings from `file`.")
	fs.BoolVar(&a.dry, "dry", false, "Print the files that would be updated, without making changes.")
	fs.BoolVar(&a.watch, "watch", false, "Keep running and update files as they are saved.")
	fs.IntVar(&a.year, "year", 0, "Add `year` instead of the current year.")
}

func (a *app) Run(ctx context.Context) error {
	env := cli.GetEnv(ctx)

	if a.dry && a.watch {
		return fmt.Errorf("%w: -dry and -watch can't be used together", cli.ErrInvalidArgs)
	}
	if a.year < 0 {
		return fmt.Errorf("%w: -year must be positive", cli.ErrInvalidArgs)
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(env.Getenv); err != nil {
		return err
	}
	if a.year != 0 {
		cfg.Year = a.year
	}

	u := &editor.Updater{Options: cfg.Options(), Year: cfg.Year}

	roots := env.Args
	if len(roots) == 0 {
		roots = []string{"."}
	}

	if slices.Contains(roots, "-") {
		if len(roots) > 1 || a.watch || a.dry {
			return fmt.Errorf("%w: \"-\" must be the only path and can't be combined with -watch or -dry", cli.ErrInvalidArgs)
		}
		return a.filter(ctx, u)
	}
	if a.watch {
		return a.runWatch(ctx, u, cfg, roots)
	}
	return a.runBatch(ctx, u, cfg, roots)
}

// runBatch updates every matching file under roots once. Malformed notices
// don't stop the walk; they are all reported at the end.
func (a *app) runBatch(ctx context.Context, u *editor.Updater, cfg *config.Config, roots []string) error {
	env := cli.GetEnv(ctx)

	var errs []error
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && (isHidden(path) || cfg.Excluded(path)) {
					return filepath.SkipDir
				}
				return nil
			}
			if !cfg.Matches(path) {
				return nil
			}

			changed, err := a.updateFile(ctx, u, path)
			if err != nil {
				errs = append(errs, err)
				return nil
			}
			if !changed {
				return nil
			}
			if a.dry {
				fmt.Fprintf(env.Stdout, "would update %s\n", path)
			} else {
				fmt.Fprintf(env.Stdout, "updated %s\n", path)
			}
			return nil
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// filter updates the notice of the text read from stdin and prints the
// result to stdout.
func (a *app) filter(ctx context.Context, u *editor.Updater) error {
	env := cli.GetEnv(ctx)
	in, err := io.ReadAll(env.Stdin)
	if err != nil {
		return err
	}
	buf := editor.NewMemBuffer("<stdin>", string(in))
	defer u.OnClose(ctx, buf)
	if _, err := u.Update(ctx, buf); err != nil {
		return err
	}
	_, err = io.WriteString(env.Stdout, buf.Text())
	return err
}

func isHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

// updateFile opens the file at path as a buffer, updates its notice and
// writes it back unless running dry.
func (a *app) updateFile(ctx context.Context, u *editor.Updater, path string) (changed bool, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	buf := editor.NewMemBuffer(editor.BufferID(path), string(content))
	defer u.OnClose(ctx, buf)

	changed, err = u.Update(ctx, buf)
	if err != nil || !changed || a.dry {
		return changed, err
	}
	if err := atomic.WriteFile(path, strings.NewReader(buf.Text())); err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	if err := os.Chmod(path, info.Mode().Perm()); err != nil {
		return false, err
	}
	return true, nil
}

// runWatch keeps files under roots up to date until ctx is canceled,
// reporting progress to systemd when running as a service.
func (a *app) runWatch(ctx context.Context, u *editor.Updater, cfg *config.Config, roots []string) error {
	h, err := watch.New(u, cfg.Matches, cfg.Excluded)
	if err != nil {
		return err
	}
	defer func() {
		if err := h.Close(ctx); err != nil {
			logger.Warn(ctx, "closing watcher failed", slog.Any("err", err))
		}
	}()

	if err := h.Watch(ctx, roots...); err != nil {
		return err
	}

	notify(ctx, systemd.Ready)
	notify(ctx, systemd.Status("watching %d files", h.Len()))
	defer notify(ctx, systemd.Stopping)
	go systemd.KeepAlive(ctx)

	return h.Run(ctx)
}

func notify(ctx context.Context, state systemd.State) {
	if err := systemd.Notify(ctx, state); err != nil {
		logger.Warn(ctx, "notifying systemd failed", slog.Any("err", err))
	}
}

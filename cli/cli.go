// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package cli runs single-command programs: it parses flags, sets up logging
// and reports errors the same way for every tool in this module.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"go.astrophena.name/copyright/logger"
	"go.astrophena.name/copyright/version"
)

// stopSignals cancel the context of a running app.
var stopSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// Main runs app with the process environment and exits. Errors are printed to
// stderr unless they were already reported. Invalid arguments exit with
// status 2, other errors with status 1.
func Main(app App) {
	ctx, cancel := signal.NotifyContext(context.Background(), stopSignals...)
	err := Run(ctx, app)
	cancel()
	os.Exit(exitCode(err, os.Stderr))
}

func exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil, errors.Is(err, ErrExitVersion):
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 2
	}
	if !isReported(err) {
		fmt.Fprintln(stderr, err)
	}
	if errors.Is(err, ErrInvalidArgs) {
		return 2
	}
	return 1
}

// reportedError is an error that was already printed.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func isReported(err error) bool {
	var re *reportedError
	return errors.As(err, &re)
}

// ErrExitVersion is returned by [Run] after printing the version.
var ErrExitVersion = &reportedError{errors.New("version printed")}

// ErrInvalidArgs is wrapped by errors caused by bad command-line arguments.
var ErrInvalidArgs = errors.New("invalid arguments")

// App is a program run by [Main].
type App interface {
	Run(context.Context) error
}

// HasFlags is an App with its own flags.
type HasFlags interface {
	App
	// Flags registers the flags of the app in fs.
	Flags(fs *flag.FlagSet)
}

// AppFunc turns a function into an App.
type AppFunc func(context.Context) error

// Run calls f.
func (f AppFunc) Run(ctx context.Context) error { return f(ctx) }

type envKey struct{}

// GetEnv returns the environment carried by ctx, or the process environment
// if there is none.
func GetEnv(ctx context.Context) *Env {
	if e, ok := ctx.Value(envKey{}).(*Env); ok {
		return e
	}
	return OSEnv()
}

// WithEnv returns a copy of ctx carrying e.
func WithEnv(ctx context.Context, e *Env) context.Context {
	return context.WithValue(ctx, envKey{}, e)
}

// Env is what a program sees of the outside world. Tests replace it to run
// an App without touching the process state.
type Env struct {
	Args   []string
	Getenv func(string) string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// OSEnv returns the environment of the current process.
func OSEnv() *Env {
	return &Env{
		Args:   os.Args[1:],
		Getenv: os.Getenv,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// IsTerminal reports whether fd is a terminal. Tests replace it.
var IsTerminal = term.IsTerminal

// colorful reports whether logs written to w get colors. NO_COLOR turns them
// off; see https://no-color.org.
func (e *Env) colorful(w io.Writer) bool {
	if e.Getenv != nil && e.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && IsTerminal(int(f.Fd()))
}

// Run parses the flags of app from the environment in ctx and runs it.
//
// Unless app defines them itself, Run adds the -version flag, which prints
// the version and returns [ErrExitVersion], and the -v flag, which enables
// debug logs. Logs go to the environment's stderr and are available to app
// through the logger package.
func Run(ctx context.Context, app App) error {
	env := GetEnv(ctx)

	fs := flag.NewFlagSet(version.CmdName(), flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	if fa, ok := app.(HasFlags); ok {
		fa.Flags(fs)
	}
	var showVersion, verbose bool
	if fs.Lookup("version") == nil {
		fs.BoolVar(&showVersion, "version", false, "Print the version and exit.")
	}
	if fs.Lookup("v") == nil {
		fs.BoolVar(&verbose, "v", false, "Log debug messages.")
	}
	fs.Usage = func() {
		if doc := docComment(); doc != "" {
			fmt.Fprintln(env.Stderr, doc)
		}
		fmt.Fprint(env.Stderr, "Available flags:\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(env.Args); err != nil {
		// The flag package has already printed the error and usage.
		if errors.Is(err, flag.ErrHelp) {
			return &reportedError{err}
		}
		return &reportedError{fmt.Errorf("%w: %w", ErrInvalidArgs, err)}
	}
	if showVersion {
		fmt.Fprint(env.Stderr, version.Version())
		return ErrExitVersion
	}

	runEnv := *env
	runEnv.Args = fs.Args()

	log := logger.New(nil)
	if verbose {
		log.Level.Set(slog.LevelDebug)
	}
	log.Attach(log.NewConsoleHandler(env.Stderr, env.colorful(env.Stderr)))

	return app.Run(logger.Put(WithEnv(ctx, &runEnv), log))
}

var docSrc []byte

// SetDocComment sets the source of a Go file whose /* */ package comment is
// printed by -help. It is meant to be used with go:embed:
//
//	//go:embed doc.go
//	var doc []byte
//
//	func init() { cli.SetDocComment(doc) }
func SetDocComment(src []byte) { docSrc = src }

func docComment() string {
	_, rest, ok := strings.Cut(string(docSrc), "/*\n")
	if !ok {
		return ""
	}
	doc, _, _ := strings.Cut(rest, "*/")
	return doc
}

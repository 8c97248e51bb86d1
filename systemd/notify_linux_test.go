// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

//go:build linux

package systemd

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"go.astrophena.name/copyright/cli"
	"go.astrophena.name/copyright/testutil"
)

func withEnv(env map[string]string) context.Context {
	return cli.WithEnv(context.Background(), &cli.Env{
		Getenv: func(key string) string { return env[key] },
	})
}

func listen(t *testing.T) (*net.UnixConn, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notify.sock")
	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Net: "unixgram", Name: path})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, path
}

func receive(t *testing.T, conn *net.UnixConn) string {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 256)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	return string(buf[:n])
}

func TestNotify(t *testing.T) {
	conn, path := listen(t)
	ctx := withEnv(map[string]string{"NOTIFY_SOCKET": path})

	if err := Notify(ctx, Ready); err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, receive(t, conn), "READY=1")

	if err := Notify(ctx, Status("watching %d files", 3)); err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, receive(t, conn), "STATUS=watching 3 files")
}

func TestNotifyWithoutSystemd(t *testing.T) {
	if err := Notify(withEnv(nil), Ready); err != nil {
		t.Fatal(err)
	}
}

func TestNotifyBadSocket(t *testing.T) {
	ctx := withEnv(map[string]string{"NOTIFY_SOCKET": filepath.Join(t.TempDir(), "missing.sock")})
	if err := Notify(ctx, Ready); err == nil {
		t.Fatal("want error")
	}
}

func TestKeepAlive(t *testing.T) {
	conn, path := listen(t)
	ctx, cancel := context.WithCancel(withEnv(map[string]string{
		"NOTIFY_SOCKET": path,
		"WATCHDOG_USEC": "20000",
	}))
	done := make(chan struct{})
	go func() {
		KeepAlive(ctx)
		close(done)
	}()
	testutil.AssertEqual(t, receive(t, conn), "WATCHDOG=1")
	cancel()
	<-done
}

func TestWatchdogInterval(t *testing.T) {
	cases := map[string]struct {
		usec string
		want time.Duration
	}{
		"unset":    {usec: "", want: 0},
		"garbage":  {usec: "soon", want: 0},
		"negative": {usec: "-5", want: 0},
		"set":      {usec: "3000000", want: 3 * time.Second},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got := watchdogInterval(withEnv(map[string]string{"WATCHDOG_USEC": tc.usec}))
			testutil.AssertEqual(t, got, tc.want)
		})
	}
}

func TestKeepAliveWithoutWatchdog(t *testing.T) {
	// Returns at once.
	KeepAlive(withEnv(nil))
}

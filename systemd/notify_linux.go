// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

//go:build linux

package systemd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"go.astrophena.name/copyright/cli"
	"go.astrophena.name/copyright/logger"
)

// Notify sends state to the service manager. It does nothing when not
// running under systemd.
func Notify(ctx context.Context, state State) error {
	name := cli.GetEnv(ctx).Getenv("NOTIFY_SOCKET")
	if name == "" {
		return nil
	}
	addr := &net.UnixAddr{Net: "unixgram", Name: name}
	conn, err := net.DialUnix(addr.Net, nil, addr)
	if err != nil {
		return fmt.Errorf("sd_notify %s: %w", state, err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte(state)); err != nil {
		return fmt.Errorf("sd_notify %s: %w", state, err)
	}
	return nil
}

// KeepAlive pings the service manager watchdog until ctx is canceled. It
// returns at once if the unit has no watchdog.
func KeepAlive(ctx context.Context) {
	interval := watchdogInterval(ctx)
	if interval <= 0 {
		return
	}
	// Ping twice per interval so a late tick doesn't trip the watchdog.
	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := Notify(ctx, watchdog); err != nil {
				logger.Warn(ctx, "watchdog ping failed", slog.Any("err", err))
			}
		}
	}
}

func watchdogInterval(ctx context.Context) time.Duration {
	usec, err := strconv.Atoi(cli.GetEnv(ctx).Getenv("WATCHDOG_USEC"))
	if err != nil || usec <= 0 {
		return 0
	}
	return time.Duration(usec) * time.Microsecond
}

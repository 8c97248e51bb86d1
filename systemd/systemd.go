// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package systemd tells the service manager how a long-running updater is
// doing, using the sd_notify protocol.
//
// See https://www.freedesktop.org/software/systemd/man/sd_notify.html.
package systemd

import "fmt"

// State is an sd_notify assignment.
type State string

const (
	// Ready tells the service manager that all watches are in place.
	Ready State = "READY=1"
	// Stopping tells the service manager that the updater is shutting down.
	Stopping State = "STOPPING=1"

	watchdog State = "WATCHDOG=1"
)

// Status returns a free-form status line shown by systemctl status.
func Status(format string, args ...any) State {
	return State("STATUS=" + fmt.Sprintf(format, args...))
}

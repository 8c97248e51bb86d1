// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

//go:build !linux

package systemd

import "context"

// Notify does nothing on systems without systemd.
func Notify(ctx context.Context, state State) error { return nil }

// KeepAlive does nothing on systems without systemd.
func KeepAlive(ctx context.Context) {}

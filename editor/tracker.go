// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package editor

import "github.com/go4org/hashtriemap"

// Tracker remembers, per open buffer, whether its copyright notice was already
// brought up to date during this session.
//
// A buffer has no entry until a notice is first seen under its cursor, and
// loses it when the buffer is closed. The zero value is ready to use.
type Tracker struct {
	m hashtriemap.HashTrieMap[BufferID, bool]
}

// Lookup returns the flag for id and whether id is tracked at all.
func (t *Tracker) Lookup(id BufferID) (updated, tracked bool) {
	return t.m.Load(id)
}

// Set stores the flag for id.
func (t *Tracker) Set(id BufferID, updated bool) { t.m.Store(id, updated) }

// Forget removes id and reports whether it was tracked.
func (t *Tracker) Forget(id BufferID) bool {
	_, ok := t.m.LoadAndDelete(id)
	return ok
}

// Len returns the number of tracked buffers.
func (t *Tracker) Len() int {
	var n int
	t.m.Range(func(BufferID, bool) bool {
		n++
		return true
	})
	return n
}

// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package editor

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRegion is returned when a region lies outside of a buffer.
var ErrInvalidRegion = errors.New("invalid region")

// BufferID identifies an open buffer. It is opaque to the updater.
type BufferID string

// Region is a half-open range of byte offsets into a buffer's text.
type Region struct {
	Begin, End int
}

// Buffer is the part of a host editor's buffer API the updater needs.
type Buffer interface {
	// ID returns a handle that stays the same while the buffer is open.
	ID() BufferID
	// Find runs match over the buffer text and returns the region it found.
	Find(match func(text string) (Region, bool)) (Region, bool)
	// Substr returns the text of r.
	Substr(r Region) string
	// Replace replaces the text of r with s as a single edit.
	Replace(r Region, s string) error
	// IsDirty reports whether the buffer has unsaved changes.
	IsDirty() bool
	// Selection returns the primary selection, if there is one.
	Selection() (Region, bool)
	// Line returns the line containing offset, without its newline.
	Line(offset int) Region
}

// MemBuffer is an in-memory [Buffer]. It is not safe for concurrent use.
type MemBuffer struct {
	id    BufferID
	text  string
	dirty bool
	sel   []Region
}

// NewMemBuffer returns a clean buffer holding text.
func NewMemBuffer(id BufferID, text string) *MemBuffer {
	return &MemBuffer{id: id, text: text}
}

// ID returns the identifier the buffer was created with.
func (b *MemBuffer) ID() BufferID { return b.id }

// Text returns the whole text of the buffer.
func (b *MemBuffer) Text() string { return b.text }

// Find runs match over the whole text.
func (b *MemBuffer) Find(match func(string) (Region, bool)) (Region, bool) {
	return match(b.text)
}

// Substr returns the text in r, clamped to the buffer.
func (b *MemBuffer) Substr(r Region) string {
	r = b.clamp(r)
	return b.text[r.Begin:r.End]
}

// Replace replaces the text in r with s and marks the buffer dirty.
// Selections after r shift with the text.
func (b *MemBuffer) Replace(r Region, s string) error {
	if r.Begin < 0 || r.End < r.Begin || r.End > len(b.text) {
		return fmt.Errorf("%w: [%d, %d) in buffer of length %d", ErrInvalidRegion, r.Begin, r.End, len(b.text))
	}
	b.text = b.text[:r.Begin] + s + b.text[r.End:]
	b.dirty = true

	// Selections after the edit move with the text.
	delta := len(s) - (r.End - r.Begin)
	for i, sel := range b.sel {
		if sel.Begin >= r.End {
			sel.Begin += delta
		}
		if sel.End >= r.End {
			sel.End += delta
		}
		b.sel[i] = b.clamp(sel)
	}
	return nil
}

// SetText replaces the whole text, as if the user had edited it, and marks
// the buffer dirty.
func (b *MemBuffer) SetText(text string) {
	b.text = text
	b.dirty = true
	for i, sel := range b.sel {
		b.sel[i] = b.clamp(sel)
	}
}

// IsDirty reports whether the buffer changed since it was opened or last
// marked clean.
func (b *MemBuffer) IsDirty() bool { return b.dirty }

// MarkClean records that the buffer was saved.
func (b *MemBuffer) MarkClean() { b.dirty = false }

// Select replaces the selections. The first region is the primary one.
func (b *MemBuffer) Select(regions ...Region) {
	b.sel = b.sel[:0]
	for _, r := range regions {
		b.sel = append(b.sel, b.clamp(r))
	}
}

// Selection returns the primary selection, if any.
func (b *MemBuffer) Selection() (Region, bool) {
	if len(b.sel) == 0 {
		return Region{}, false
	}
	return b.sel[0], true
}

// Line returns the line containing offset, without its newline.
func (b *MemBuffer) Line(offset int) Region {
	offset = max(0, min(offset, len(b.text)))
	begin := strings.LastIndexByte(b.text[:offset], '\n') + 1
	end := len(b.text)
	if i := strings.IndexByte(b.text[offset:], '\n'); i >= 0 {
		end = offset + i
	}
	return Region{Begin: begin, End: end}
}

func (b *MemBuffer) clamp(r Region) Region {
	r.Begin = max(0, min(r.Begin, len(b.text)))
	r.End = max(r.Begin, min(r.End, len(b.text)))
	return r
}

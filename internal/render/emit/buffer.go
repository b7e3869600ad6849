// Package emit diffs composited cells against what the terminal is believed
// to show and produces the minimal logical command stream.
package emit

import (
	"github.com/dshills/termsprite/internal/render/core"
)

// Written is the last character and colors emitted at one coordinate.
type Written struct {
	Rune  rune
	Fg    core.Color
	Bg    core.Color
	Known bool
}

// Matches reports whether writing c here would change nothing visible.
// Inherited channels accept whatever color is already there.
func (w Written) Matches(c core.Cell) bool {
	return w.Known && w.Rune == c.Rune && c.Style.Fg.Matches(w.Fg) && c.Style.Bg.Matches(w.Bg)
}

// Buffer is the previous cell buffer: a dense grid of what was last
// written to the terminal. A stale buffer cannot be trusted and forces a
// full resync.
type Buffer struct {
	width, height int
	cells         []Written
	stale         bool
}

// NewBuffer creates a stale buffer. Nothing is known until the first Reset.
func NewBuffer(width, height int) *Buffer {
	b := &Buffer{
		width:  max(width, 0),
		height: max(height, 0),
		stale:  true,
	}
	b.cells = make([]Written, b.width*b.height)
	return b
}

// Reset reallocates the buffer to a freshly cleared screen: every cell is
// a known space on default colors.
func (b *Buffer) Reset(width, height int) {
	width, height = max(width, 0), max(height, 0)
	if width != b.width || height != b.height {
		b.width, b.height = width, height
		b.cells = make([]Written, width*height)
	}
	blank := Written{Rune: ' ', Fg: core.ColorDefault, Bg: core.ColorDefault, Known: true}
	for i := range b.cells {
		b.cells[i] = blank
	}
	b.stale = false
}

// Invalidate marks the whole buffer as untrustworthy.
func (b *Buffer) Invalidate() {
	b.stale = true
}

// Stale reports whether the buffer needs a full resync.
func (b *Buffer) Stale() bool {
	return b.stale
}

// Size returns the buffer dimensions.
func (b *Buffer) Size() (width, height int) {
	return b.width, b.height
}

// In reports whether x, y lies inside the buffer.
func (b *Buffer) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.width && y < b.height
}

// At returns the cell at x, y. Out of bounds and stale cells are unknown.
func (b *Buffer) At(x, y int) Written {
	if b.stale || !b.In(x, y) {
		return Written{}
	}
	return b.cells[y*b.width+x]
}

// Set records a write. Out of bounds writes are dropped.
func (b *Buffer) Set(x, y int, w Written) {
	if !b.In(x, y) {
		return
	}
	b.cells[y*b.width+x] = w
}

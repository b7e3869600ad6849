package emit

import (
	"fmt"

	"github.com/mattn/go-runewidth"
)

// Cursor is the engine's belief about where the terminal cursor is. It is
// never queried from the terminal; when uncertain it is invalid and the
// next write is preceded by an explicit move.
type Cursor struct {
	x, y  int
	valid bool
	width int
}

// SetWidth sets the terminal width used to detect running off the edge.
func (c *Cursor) SetWidth(width int) {
	c.width = width
	if c.valid && c.x >= width {
		c.valid = false
	}
}

// Invalidate forgets the cursor position.
func (c *Cursor) Invalidate() {
	c.valid = false
}

// MoveTo records an explicit positioning command.
func (c *Cursor) MoveTo(x, y int) {
	c.x, c.y = x, y
	c.valid = x >= 0 && x < c.width
}

// At reports whether the cursor is known to be at x, y.
func (c *Cursor) At(x, y int) bool {
	return c.valid && c.x == x && c.y == y
}

// Advance moves past a written rune. Crossing the right edge leaves the
// position undefined.
func (c *Cursor) Advance(r rune) {
	if !c.valid {
		return
	}
	c.x += max(runewidth.RuneWidth(r), 1)
	if c.x >= c.width {
		c.valid = false
	}
}

// Position returns the believed position.
func (c *Cursor) Position() (x, y int, valid bool) {
	return c.x, c.y, c.valid
}

func (c *Cursor) String() string {
	if !c.valid {
		return "cursor(?)"
	}
	return fmt.Sprintf("cursor(%d,%d)", c.x, c.y)
}

package backend

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/dshills/termsprite/internal/render/core"
)

// SurfaceCell is one cell of a simulated terminal.
type SurfaceCell struct {
	Rune rune
	Fg   core.Color
	Bg   core.Color
}

func blankSurfaceCell() SurfaceCell {
	return SurfaceCell{Rune: ' ', Fg: core.ColorDefault, Bg: core.ColorDefault}
}

// Surface interprets a command stream the way a terminal with autowrap
// disabled would: writes advance the cursor by the glyph width and writes
// past the right edge are dropped.
type Surface struct {
	width, height int
	cells         []SurfaceCell
	x, y          int
	fg, bg        core.Color
	cursorVisible bool
}

// NewSurface creates a blank surface.
func NewSurface(width, height int) *Surface {
	s := &Surface{cursorVisible: true}
	s.Resize(width, height)
	return s
}

// Resize reallocates the surface. Contents are blanked.
func (s *Surface) Resize(width, height int) {
	s.width, s.height = max(width, 0), max(height, 0)
	s.cells = make([]SurfaceCell, s.width*s.height)
	s.clear()
}

// Size returns the surface dimensions.
func (s *Surface) Size() (int, int) {
	return s.width, s.height
}

func (s *Surface) clear() {
	for i := range s.cells {
		s.cells[i] = blankSurfaceCell()
	}
	s.x, s.y = 0, 0
	s.fg, s.bg = core.ColorDefault, core.ColorDefault
}

// Apply interprets every command in order.
func (s *Surface) Apply(cmds []Command) {
	for _, c := range cmds {
		s.Step(c)
	}
}

// Step interprets one command. For writes it reports the cell written and
// whether it landed on screen.
func (s *Surface) Step(c Command) (x, y int, ok bool) {
	switch c.Op {
	case OpMoveTo:
		s.x, s.y = c.X, c.Y
	case OpSetFg:
		s.fg = c.Color
	case OpSetBg:
		s.bg = c.Color
	case OpWrite:
		x, y = s.x, s.y
		if x >= 0 && y >= 0 && x < s.width && y < s.height {
			s.cells[y*s.width+x] = SurfaceCell{Rune: c.Rune, Fg: s.fg, Bg: s.bg}
			ok = true
		}
		s.x += max(runewidth.RuneWidth(c.Rune), 1)
	case OpClear:
		s.clear()
	case OpShowCursor:
		s.cursorVisible = true
	case OpHideCursor:
		s.cursorVisible = false
	}
	return x, y, ok
}

// At returns the cell at x, y. Out of bounds reports a blank cell.
func (s *Surface) At(x, y int) SurfaceCell {
	if x < 0 || y < 0 || x >= s.width || y >= s.height {
		return blankSurfaceCell()
	}
	return s.cells[y*s.width+x]
}

// Pen returns the current foreground and background.
func (s *Surface) Pen() (fg, bg core.Color) {
	return s.fg, s.bg
}

// Cursor returns the cursor position and visibility.
func (s *Surface) Cursor() (x, y int, visible bool) {
	return s.x, s.y, s.cursorVisible
}

// Row returns the runes of one row as a string.
func (s *Surface) Row(y int) string {
	var b strings.Builder
	for x := 0; x < s.width; x++ {
		b.WriteRune(s.At(x, y).Rune)
	}
	return b.String()
}

// String renders every row separated by newlines.
func (s *Surface) String() string {
	rows := make([]string, s.height)
	for y := range rows {
		rows[y] = s.Row(y)
	}
	return strings.Join(rows, "\n")
}

// Equals compares what two surfaces show. The foreground of a space is
// not visible and is ignored.
func (s *Surface) Equals(other *Surface) bool {
	if s.width != other.width || s.height != other.height {
		return false
	}
	for i := range s.cells {
		if !s.cells[i].looksLike(other.cells[i]) {
			return false
		}
	}
	return true
}

func (c SurfaceCell) looksLike(o SurfaceCell) bool {
	if c.Rune != o.Rune || !c.Bg.Equals(o.Bg) {
		return false
	}
	return c.Rune == ' ' || c.Fg.Equals(o.Fg)
}

// Clone returns a deep copy.
func (s *Surface) Clone() *Surface {
	c := *s
	c.cells = make([]SurfaceCell, len(s.cells))
	copy(c.cells, s.cells)
	return &c
}

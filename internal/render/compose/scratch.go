// Package compose rasterizes the redraw set into a sparse scratch buffer.
package compose

import (
	"sort"

	"github.com/dshills/termsprite/internal/render/core"
	"github.com/dshills/termsprite/internal/scene"
)

// rank orders layers within a cell. It applies the same rule as
// scene.Entity.Outranks: higher z, then earlier creation, then lower ID.
type rank struct {
	set bool
	z   int
	seq uint64
	id  scene.EntityID
}

func rankOf(e scene.Entity) rank {
	return rank{set: true, z: e.State.Z, seq: e.Seq, id: e.ID}
}

// outranks reports whether r should replace the current owner o.
// An identical rank replaces itself, so re-rasterizing is idempotent.
func (r rank) outranks(o rank) bool {
	if !o.set {
		return true
	}
	if r.z != o.z {
		return r.z > o.z
	}
	if r.seq != o.seq {
		return r.seq < o.seq
	}
	return r.id <= o.id
}

// slot is one touched cell. Glyph, foreground and background are resolved
// independently so an upper layer that leaves a channel unset shows the
// channel of the layer beneath it.
type slot struct {
	glyph rune
	fg    core.Color
	bg    core.Color

	glyphOwner rank
	fgOwner    rank
	bgOwner    rank
}

// Scratch is a per-tick cell buffer keyed by terminal coordinate. Storage
// is dense and reused across ticks; only touched cells are meaningful.
type Scratch struct {
	width   int
	height  int
	slots   []slot
	marked  []bool
	touched []int
	sorted  bool
}

// NewScratch creates a scratch buffer for a width x height terminal.
func NewScratch(width, height int) *Scratch {
	s := &Scratch{}
	s.Reset(width, height)
	return s
}

// Reset clears touched cells and resizes if needed.
func (s *Scratch) Reset(width, height int) {
	width, height = max(width, 0), max(height, 0)
	if width != s.width || height != s.height {
		s.width = width
		s.height = height
		s.slots = make([]slot, width*height)
		s.marked = make([]bool, width*height)
		s.touched = s.touched[:0]
		s.sorted = true
		return
	}
	for _, idx := range s.touched {
		s.marked[idx] = false
		s.slots[idx] = slot{}
	}
	s.touched = s.touched[:0]
	s.sorted = true
}

// Size returns the buffer dimensions.
func (s *Scratch) Size() (width, height int) {
	return s.width, s.height
}

// Touch marks a cell for recomposition. Touched cells nobody covers render
// blank. Out of bounds coordinates are ignored.
func (s *Scratch) Touch(x, y int) {
	if x < 0 || y < 0 || x >= s.width || y >= s.height {
		return
	}
	idx := y*s.width + x
	if s.marked[idx] {
		return
	}
	s.marked[idx] = true
	if n := len(s.touched); n > 0 && s.touched[n-1] > idx {
		s.sorted = false
	}
	s.touched = append(s.touched, idx)
}

// TouchRect marks every in-bounds cell of r.
func (s *Scratch) TouchRect(r core.Rect) {
	r = r.Clip(s.width, s.height)
	for y := r.Y; y < r.Bottom(); y++ {
		for x := r.X; x < r.Right(); x++ {
			s.Touch(x, y)
		}
	}
}

// Touched reports whether a cell has been marked.
func (s *Scratch) Touched(x, y int) bool {
	if x < 0 || y < 0 || x >= s.width || y >= s.height {
		return false
	}
	return s.marked[y*s.width+x]
}

// Len returns the number of touched cells.
func (s *Scratch) Len() int {
	return len(s.touched)
}

// Each visits touched cells in row-major order.
func (s *Scratch) Each(fn func(x, y int, c core.Cell)) {
	if !s.sorted {
		sort.Ints(s.touched)
		s.sorted = true
	}
	for _, idx := range s.touched {
		fn(idx%s.width, idx/s.width, s.slots[idx].cell())
	}
}

// Cell returns the composited cell at x, y. Untouched cells report blank.
func (s *Scratch) Cell(x, y int) core.Cell {
	if !s.Touched(x, y) {
		return core.Blank()
	}
	return s.slots[y*s.width+x].cell()
}

// put layers one sprite cell into a touched slot.
func (s *Scratch) put(x, y int, r rank, glyph rune, style core.Style) {
	if !s.Touched(x, y) {
		return
	}
	sl := &s.slots[y*s.width+x]
	if r.outranks(sl.glyphOwner) {
		sl.glyph = glyph
		sl.glyphOwner = r
	}
	if style.Fg.Set && r.outranks(sl.fgOwner) {
		sl.fg = style.Fg.Color
		sl.fgOwner = r
	}
	if style.Bg.Set && r.outranks(sl.bgOwner) {
		sl.bg = style.Bg.Color
		sl.bgOwner = r
	}
}

// cell resolves the slot. A channel no layer sets is the default color,
// never whatever the terminal pen last held.
func (sl *slot) cell() core.Cell {
	if !sl.glyphOwner.set {
		return core.Blank()
	}
	c := core.Cell{Rune: sl.glyph, Style: core.NewStyle(core.ColorDefault, core.ColorDefault)}
	if sl.fgOwner.set {
		c.Style.Fg = core.Use(sl.fg)
	}
	if sl.bgOwner.set {
		c.Style.Bg = core.Use(sl.bg)
	}
	return c
}

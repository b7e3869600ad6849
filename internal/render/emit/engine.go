package emit

import (
	"github.com/dshills/termsprite/internal/render/backend"
	"github.com/dshills/termsprite/internal/render/core"
)

// Cells is a source of composited cells visited in row-major order.
type Cells interface {
	Each(fn func(x, y int, c core.Cell))
}

type write struct {
	x, y int
	w    Written
}

// Plan is one tick's command stream plus the buffer updates it implies.
// The updates are applied by Commit once the device has accepted the
// commands.
type Plan struct {
	Commands []backend.Command
	// Changed counts cells that produced a write.
	Changed int
	// Unchanged counts touched cells that already matched the buffer.
	Unchanged int
	// Dropped counts touched cells outside the buffer.
	Dropped int

	writes []write
}

// Empty reports whether the plan emits nothing.
func (p *Plan) Empty() bool {
	return len(p.Commands) == 0
}

// Commit records every planned write into buf.
func (p *Plan) Commit(buf *Buffer) {
	for _, wr := range p.writes {
		buf.Set(wr.x, wr.y, wr.w)
	}
}

func (p *Plan) add(c backend.Command) {
	p.Commands = append(p.Commands, c)
}

// Engine owns the running cursor and pen state.
type Engine struct {
	cursor Cursor
	pen    pen
}

// NewEngine creates an engine with unknown cursor and pen.
func NewEngine() *Engine {
	return &Engine{}
}

// Cursor returns the current cursor belief.
func (e *Engine) Cursor() Cursor {
	return e.cursor
}

// Invalidate forgets cursor and pen. Used after a failed write.
func (e *Engine) Invalidate() {
	e.cursor.Invalidate()
	e.pen.invalidate()
}

// Resync starts a plan that clears the screen and resets buf to the
// cleared state. The pen is then known to be default on default.
func (e *Engine) Resync(buf *Buffer, width, height int) *Plan {
	p := &Plan{}
	p.add(backend.Clear())
	buf.Reset(width, height)
	e.pen.reset(core.ColorDefault, core.ColorDefault)
	e.cursor.Invalidate()
	e.cursor.SetWidth(width)
	return p
}

// Plan diffs src against buf and appends the minimal commands to p, or to a
// new plan when p is nil. Cells that already match are skipped without
// touching cursor or pen; contiguous writes on a row need no move and
// runs of one color need one style change.
func (e *Engine) Plan(p *Plan, src Cells, buf *Buffer) *Plan {
	if p == nil {
		p = &Plan{}
	}
	width, _ := buf.Size()
	e.cursor.SetWidth(width)

	src.Each(func(x, y int, c core.Cell) {
		if !buf.In(x, y) {
			p.Dropped++
			return
		}
		if buf.At(x, y).Matches(c) {
			p.Unchanged++
			return
		}

		if !e.cursor.At(x, y) {
			p.add(backend.MoveTo(x, y))
			e.cursor.MoveTo(x, y)
		}
		fg, change := e.pen.foreground(c.Style.Fg)
		if change {
			p.add(backend.SetFg(fg))
		}
		bg, change := e.pen.background(c.Style.Bg)
		if change {
			p.add(backend.SetBg(bg))
		}
		p.add(backend.Write(c.Rune))
		e.cursor.Advance(c.Rune)

		p.writes = append(p.writes, write{x: x, y: y, w: Written{Rune: c.Rune, Fg: fg, Bg: bg, Known: true}})
		p.Changed++
	})
	return p
}

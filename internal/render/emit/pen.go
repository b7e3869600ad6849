package emit

import "github.com/dshills/termsprite/internal/render/core"

// pen tracks the colors last actually emitted. It is running state kept
// across ticks, not derived from the buffer.
type pen struct {
	fg, bg           core.Color
	fgKnown, bgKnown bool
}

func (p *pen) reset(fg, bg core.Color) {
	p.fg, p.bg = fg, bg
	p.fgKnown, p.bgKnown = true, true
}

func (p *pen) invalidate() {
	p.fgKnown, p.bgKnown = false, false
}

// resolve decides the color a channel will be written with and whether a
// change command is needed. An inherited channel keeps the current pen;
// when the pen is unknown it falls back to the default color.
func resolve(ch core.Channel, cur core.Color, known bool) (core.Color, bool) {
	if !ch.Set {
		if known {
			return cur, false
		}
		return core.ColorDefault, true
	}
	if known && cur.Equals(ch.Color) {
		return cur, false
	}
	return ch.Color, true
}

func (p *pen) foreground(ch core.Channel) (core.Color, bool) {
	c, change := resolve(ch, p.fg, p.fgKnown)
	p.fg, p.fgKnown = c, true
	return c, change
}

func (p *pen) background(ch core.Channel) (core.Color, bool) {
	c, change := resolve(ch, p.bg, p.bgKnown)
	p.bg, p.bgKnown = c, true
	return c, change
}

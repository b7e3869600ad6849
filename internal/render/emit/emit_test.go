package emit

import (
	"testing"

	"github.com/dshills/termsprite/internal/render/backend"
	"github.com/dshills/termsprite/internal/render/core"
)

type cell struct {
	x, y int
	c    core.Cell
}

// cells is a row-major Cells source for tests.
type cells []cell

func (cs cells) Each(fn func(x, y int, c core.Cell)) {
	for _, c := range cs {
		fn(c.x, c.y, c.c)
	}
}

func text(x, y int, s string, style core.Style) cells {
	var out cells
	for i, r := range []rune(s) {
		out = append(out, cell{x: x + i, y: y, c: core.Cell{Rune: r, Style: style}})
	}
	return out
}

var red = core.Style{Fg: core.Use(core.ColorRed)}

func synced(width, height int) (*Engine, *Buffer) {
	e := NewEngine()
	buf := NewBuffer(width, height)
	e.Resync(buf, width, height)
	return e, buf
}

func assertCommands(t *testing.T, got []backend.Command, want ...backend.Command) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d commands %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if !got[i].Equals(want[i]) {
			t.Errorf("command %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestResyncClearsAndResetsBuffer(t *testing.T) {
	e := NewEngine()
	buf := NewBuffer(3, 2)
	if !buf.Stale() {
		t.Fatal("new buffer should be stale")
	}

	p := e.Resync(buf, 4, 2)
	assertCommands(t, p.Commands, backend.Clear())
	if buf.Stale() {
		t.Error("buffer should be fresh after resync")
	}
	if w, h := buf.Size(); w != 4 || h != 2 {
		t.Errorf("buffer size = (%d,%d), want (4,2)", w, h)
	}
	if got := buf.At(3, 1); !got.Known || got.Rune != ' ' || !got.Bg.IsDefault() {
		t.Errorf("cell after resync = %+v, want known blank", got)
	}
}

func TestPlanCoalescesStyleAndMoves(t *testing.T) {
	e, buf := synced(10, 2)

	p := e.Plan(nil, text(2, 0, "abcd", red), buf)
	assertCommands(t, p.Commands,
		backend.MoveTo(2, 0),
		backend.SetFg(core.ColorRed),
		backend.Write('a'),
		backend.Write('b'),
		backend.Write('c'),
		backend.Write('d'),
	)
	if p.Changed != 4 {
		t.Errorf("Changed = %d, want 4", p.Changed)
	}
}

func TestPlanMovesAcrossGapsAndRows(t *testing.T) {
	e, buf := synced(10, 3)

	src := append(text(0, 0, "a", red), text(3, 0, "b", red)...)
	src = append(src, text(0, 2, "c", red)...)
	p := e.Plan(nil, src, buf)
	assertCommands(t, p.Commands,
		backend.MoveTo(0, 0),
		backend.SetFg(core.ColorRed),
		backend.Write('a'),
		backend.MoveTo(3, 0),
		backend.Write('b'),
		backend.MoveTo(0, 2),
		backend.Write('c'),
	)
}

func TestPlanSkipsUnchangedCells(t *testing.T) {
	e, buf := synced(10, 1)

	p := e.Plan(nil, text(0, 0, "ab", red), buf)
	p.Commit(buf)

	p = e.Plan(nil, text(0, 0, "ab", red), buf)
	if !p.Empty() {
		t.Errorf("identical cells should emit nothing, got %v", p.Commands)
	}
	if p.Unchanged != 2 {
		t.Errorf("Unchanged = %d, want 2", p.Unchanged)
	}
}

func TestPlanSkippedCellsDoNotBreakRuns(t *testing.T) {
	e, buf := synced(10, 1)
	p := e.Plan(nil, text(0, 0, "ab", red), buf)
	p.Commit(buf)

	// b is unchanged, so c needs a move but keeps the red pen.
	p = e.Plan(nil, text(0, 0, "xbc", red), buf)
	assertCommands(t, p.Commands,
		backend.MoveTo(0, 0),
		backend.Write('x'),
		backend.MoveTo(2, 0),
		backend.Write('c'),
	)
}

func TestPlanPenPersistsAcrossTicks(t *testing.T) {
	e, buf := synced(10, 2)
	e.Plan(nil, text(0, 0, "a", red), buf).Commit(buf)

	p := e.Plan(nil, text(0, 1, "b", red), buf)
	assertCommands(t, p.Commands, backend.MoveTo(0, 1), backend.Write('b'))
}

func TestPlanInheritKeepsPen(t *testing.T) {
	e, buf := synced(10, 1)
	blue := core.Style{Bg: core.Use(core.ColorBlue)}

	src := append(text(0, 0, "a", red), text(1, 0, "b", core.NoStyle)...)
	src = append(src, text(2, 0, "c", blue)...)
	p := e.Plan(nil, src, buf)
	assertCommands(t, p.Commands,
		backend.MoveTo(0, 0),
		backend.SetFg(core.ColorRed),
		backend.Write('a'),
		backend.Write('b'),
		backend.SetBg(core.ColorBlue),
		backend.Write('c'),
	)

	p.Commit(buf)
	if got := buf.At(1, 0); !got.Fg.Equals(core.ColorRed) || !got.Bg.IsDefault() {
		t.Errorf("inherited cell recorded as %s/%s, want red/default", got.Fg, got.Bg)
	}
	if got := buf.At(2, 0); !got.Fg.Equals(core.ColorRed) || !got.Bg.Equals(core.ColorBlue) {
		t.Errorf("cell recorded as %s/%s, want red/blue", got.Fg, got.Bg)
	}
}

func TestPlanInheritWithUnknownPenEmitsDefault(t *testing.T) {
	e, buf := synced(4, 1)
	e.Invalidate()

	p := e.Plan(nil, text(0, 0, "a", core.NoStyle), buf)
	assertCommands(t, p.Commands,
		backend.MoveTo(0, 0),
		backend.SetFg(core.ColorDefault),
		backend.SetBg(core.ColorDefault),
		backend.Write('a'),
	)
}

func TestPlanInheritedChannelMatchesAnyColor(t *testing.T) {
	e, buf := synced(4, 1)
	e.Plan(nil, text(0, 0, "a", red), buf).Commit(buf)

	if p := e.Plan(nil, text(0, 0, "a", core.NoStyle), buf); !p.Empty() {
		t.Errorf("inherited fg over same rune should emit nothing, got %v", p.Commands)
	}
}

func TestPlanDropsOutOfBounds(t *testing.T) {
	e, buf := synced(2, 1)

	p := e.Plan(nil, text(1, 0, "abc", red), buf)
	if p.Dropped != 2 {
		t.Errorf("Dropped = %d, want 2", p.Dropped)
	}
	if backend.Count(p.Commands, backend.OpWrite) != 1 {
		t.Errorf("only the in-bounds cell should be written, got %v", p.Commands)
	}
}

func TestPlanWithoutCommitLeavesBuffer(t *testing.T) {
	e, buf := synced(4, 1)
	e.Plan(nil, text(0, 0, "a", red), buf)

	if got := buf.At(0, 0); got.Rune != ' ' {
		t.Errorf("buffer changed before commit: %+v", got)
	}
}

func TestPlanAppendsToResync(t *testing.T) {
	e, buf := synced(4, 1)
	p := e.Resync(buf, 4, 1)
	p = e.Plan(p, text(0, 0, " ", core.Blank().Style), buf)

	assertCommands(t, p.Commands, backend.Clear())
	if p.Unchanged != 1 {
		t.Errorf("blank cell after clear should be unchanged, got %+v", p)
	}
}

func TestCursorAdvance(t *testing.T) {
	var c Cursor
	c.SetWidth(3)
	if c.At(0, 0) {
		t.Error("zero cursor should be invalid")
	}

	c.MoveTo(1, 0)
	c.Advance('a')
	if !c.At(2, 0) {
		t.Errorf("cursor = %s, want (2,0)", c.String())
	}
	c.Advance('b')
	if _, _, valid := c.Position(); valid {
		t.Error("cursor past the edge should be invalid")
	}

	c.MoveTo(2, 1)
	c.SetWidth(2)
	if _, _, valid := c.Position(); valid {
		t.Error("shrinking width should invalidate a cursor beyond it")
	}
}

func TestWrittenMatches(t *testing.T) {
	w := Written{Rune: 'a', Fg: core.ColorRed, Bg: core.ColorDefault, Known: true}
	tests := []struct {
		name string
		c    core.Cell
		want bool
	}{
		{"exact", core.Cell{Rune: 'a', Style: core.NewStyle(core.ColorRed, core.ColorDefault)}, true},
		{"inherit", core.Cell{Rune: 'a'}, true},
		{"rune differs", core.Cell{Rune: 'b'}, false},
		{"fg differs", core.Cell{Rune: 'a', Style: core.Style{Fg: core.Use(core.ColorBlue)}}, false},
		{"bg differs", core.Cell{Rune: 'a', Style: core.Style{Bg: core.Use(core.ColorBlue)}}, false},
	}
	for _, tt := range tests {
		if got := w.Matches(tt.c); got != tt.want {
			t.Errorf("%s: Matches = %v, want %v", tt.name, got, tt.want)
		}
	}
	if (Written{}).Matches(core.Cell{}) {
		t.Error("unknown cell should never match")
	}
}

func TestStaleBufferReportsUnknown(t *testing.T) {
	_, buf := synced(2, 1)
	buf.Invalidate()
	if buf.At(0, 0).Known {
		t.Error("stale buffer should report unknown cells")
	}
}

package asset

import (
	"errors"
	"testing"

	"github.com/dshills/termsprite/internal/render/core"
)

func glyphs(s string) []Glyph {
	row := make([]Glyph, 0, len(s))
	for _, r := range s {
		if r == ' ' {
			row = append(row, Glyph{Transparent: true})
			continue
		}
		row = append(row, Glyph{Rune: r})
	}
	return row
}

func mustSprite(t *testing.T, rows ...[]Glyph) *Sprite {
	t.Helper()
	s, err := NewSprite(rows)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSpriteRejectsWideGlyphs(t *testing.T) {
	tests := []struct {
		name string
		row  []Glyph
	}{
		{"wide", []Glyph{{Rune: 'A'}, {Rune: '世'}}},
		{"zero width", []Glyph{{Rune: '\u0301'}}},
		{"control", []Glyph{{Rune: '\t'}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSprite([][]Glyph{tt.row}); !errors.Is(err, ErrUnsupportedGlyph) {
				t.Errorf("NewSprite error = %v, want ErrUnsupportedGlyph", err)
			}
		})
	}

	// Transparent cells carry no rune, so their width is irrelevant.
	if _, err := NewSprite([][]Glyph{{{Rune: '世', Transparent: true}}}); err != nil {
		t.Errorf("transparent wide rune rejected: %v", err)
	}
}

func TestSpriteHandleIsContentAddressed(t *testing.T) {
	a := mustSprite(t, glyphs("AB"))
	b := mustSprite(t, glyphs("AB"))
	c := mustSprite(t, glyphs("BA"))

	if a.Handle() != b.Handle() {
		t.Error("identical sprites should share a handle")
	}
	if a.Handle() == c.Handle() {
		t.Error("different sprites should have different handles")
	}
	if a.Handle().Kind != KindSprite {
		t.Errorf("handle kind = %v, want sprite", a.Handle().Kind)
	}
}

func TestSpriteHandleDependsOnShape(t *testing.T) {
	wide := mustSprite(t, glyphs("AB"))
	tall := mustSprite(t, glyphs("A"), glyphs("B"))
	if wide.Handle() == tall.Handle() {
		t.Error("same glyphs in a different shape should not share a handle")
	}
}

func TestSpritePadsShortRows(t *testing.T) {
	s := mustSprite(t, glyphs("ABC"), glyphs("D"))

	w, h := s.Size()
	if w != 3 || h != 2 {
		t.Fatalf("size = %dx%d, want 3x2", w, h)
	}
	if !s.At(2, 1).Transparent {
		t.Error("padded cell should be transparent")
	}
	if s.At(0, 1).Rune != 'D' {
		t.Errorf("At(0,1) = %q, want 'D'", s.At(0, 1).Rune)
	}
	if !s.At(5, 5).Transparent {
		t.Error("out of range cell should be transparent")
	}
}

func TestSpriteBounds(t *testing.T) {
	s := mustSprite(t, glyphs("AB"), glyphs("CD"))
	got := s.Bounds(core.Pos{X: 3, Y: 4})
	want := core.Rect{X: 3, Y: 4, W: 2, H: 2}
	if got != want {
		t.Errorf("Bounds = %v, want %v", got, want)
	}
}

func TestNewStyleMapDimensionMismatch(t *testing.T) {
	_, err := NewStyleMap(2, 2, make([]core.Style, 3))
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestStyleMapAt(t *testing.T) {
	red := core.Style{Fg: core.Use(core.ColorRed)}
	m := UniformStyleMap(2, 1, red)

	if !m.At(1, 0).Equals(red) {
		t.Errorf("At(1,0) = %v, want %v", m.At(1, 0), red)
	}
	if !m.At(2, 0).IsZero() {
		t.Error("out of range style should inherit")
	}

	other := UniformStyleMap(2, 1, core.Style{Fg: core.Use(core.ColorBlue)})
	if m.Handle() == other.Handle() {
		t.Error("different style maps should have different handles")
	}
	if m.Handle() != UniformStyleMap(2, 1, red).Handle() {
		t.Error("identical style maps should share a handle")
	}
}

func TestHandleZero(t *testing.T) {
	var h Handle
	if !h.IsZero() {
		t.Error("zero handle should report IsZero")
	}
	if h.String() != "none" {
		t.Errorf("zero handle string = %q", h.String())
	}
}

func TestLoadErrorUnwrap(t *testing.T) {
	err := &LoadError{Path: "ship.txt", Kind: KindSprite, Err: ErrUnsupportedGlyph}
	if !errors.Is(err, ErrUnsupportedGlyph) {
		t.Error("LoadError should unwrap to its cause")
	}
	if err.Error() != "load sprite ship.txt: unsupported glyph" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func glyphStyle() core.Style {
	return core.Style{Fg: core.Use(core.ColorGreen)}
}

package asset

import (
	"errors"
	"strings"
	"testing"

	"github.com/dshills/termsprite/internal/render/core"
)

func TestSpriteLoaderParse(t *testing.T) {
	l := NewSpriteLoader(' ')
	s, err := l.Parse([]byte(" /\\\r\n<==>\n\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	w, h := s.Size()
	if w != 4 || h != 2 {
		t.Fatalf("size = %dx%d, want 4x2", w, h)
	}
	if !s.At(0, 0).Transparent {
		t.Error("leading space should be transparent")
	}
	if s.At(1, 0).Rune != '/' || s.At(3, 1).Rune != '>' {
		t.Error("glyphs not placed at expected offsets")
	}
	if !s.At(3, 0).Transparent {
		t.Error("short row should be padded with transparent cells")
	}
}

func TestSpriteLoaderCustomTransparent(t *testing.T) {
	l := NewSpriteLoader('~')
	s, err := l.ParseLines("~ ~")
	if err != nil {
		t.Fatalf("ParseLines: %v", err)
	}
	if !s.At(0, 0).Transparent || s.At(1, 0).Transparent {
		t.Error("only the configured rune should be transparent")
	}
	if s.At(1, 0).Rune != ' ' {
		t.Errorf("space should be an opaque glyph, got %q", s.At(1, 0).Rune)
	}
}

func TestSpriteLoaderRejectsUnsupportedGlyphs(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"wide", "A世"},
		{"combining", "e\u0301"},
		{"tab", "a\tb"},
	}

	l := NewSpriteLoader(' ')
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.ParseLines(tt.line)
			if !errors.Is(err, ErrUnsupportedGlyph) {
				t.Errorf("expected ErrUnsupportedGlyph, got %v", err)
			}
		})
	}
}

func TestStyleMapLoaderParse(t *testing.T) {
	src := `
palette:
  r: {fg: red}
  b: {fg: white, bg: "#0000ff"}
rows:
  - "rr."
  - "b"
`
	m, err := NewStyleMapLoader().Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	w, h := m.Size()
	if w != 3 || h != 2 {
		t.Fatalf("size = %dx%d, want 3x2", w, h)
	}

	if got := m.At(0, 0); !got.Equals(core.Style{Fg: core.Use(core.ColorRed)}) {
		t.Errorf("At(0,0) = %v", got)
	}
	if got := m.At(0, 1); !got.Equals(core.NewStyle(core.ColorWhite, core.ColorBlue)) {
		t.Errorf("At(0,1) = %v", got)
	}
	if !m.At(2, 0).IsZero() {
		t.Error("'.' should inherit")
	}
	if !m.At(1, 1).IsZero() {
		t.Error("padded cell should inherit")
	}
}

func TestStyleMapLoaderErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"undefined key", "palette: {r: {fg: red}}\nrows: [\"rx\"]\n", "undefined palette key"},
		{"bad color", "palette: {r: {fg: nope}}\nrows: [\"r\"]\n", "palette \"r\" fg"},
		{"long key", "palette: {rr: {fg: red}}\nrows: [\"r\"]\n", "single character"},
		{"unknown field", "palette: {}\nrows: []\ncolors: []\n", "parsing style map"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStyleMapLoader().Parse([]byte(tt.src))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

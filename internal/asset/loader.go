package asset

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
	"gopkg.in/yaml.v3"

	"github.com/dshills/termsprite/internal/render/core"
)

// DefaultTransparentRune marks transparent cells in sprite files.
const DefaultTransparentRune = ' '

// SpriteLoader parses plain-text sprites: one text line per row.
type SpriteLoader struct {
	transparent rune
}

// NewSpriteLoader creates a loader that treats transparent as see-through.
func NewSpriteLoader(transparent rune) *SpriteLoader {
	return &SpriteLoader{transparent: transparent}
}

// Parse converts text into a sprite. Trailing empty lines are dropped.
func (l *SpriteLoader) Parse(data []byte) (*Sprite, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	rows := make([][]Glyph, 0, len(lines))
	for y, line := range lines {
		row, err := l.parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", y+1, err)
		}
		rows = append(rows, row)
	}
	return NewSprite(rows)
}

// ParseLines is a convenience for building sprites in code.
func (l *SpriteLoader) ParseLines(lines ...string) (*Sprite, error) {
	return l.Parse([]byte(strings.Join(lines, "\n")))
}

// parseLine splits a line into grapheme clusters. Every cluster must be a
// single rune exactly one cell wide.
func (l *SpriteLoader) parseLine(line string) ([]Glyph, error) {
	row := make([]Glyph, 0, len(line))
	g := uniseg.NewGraphemes(line)
	for g.Next() {
		runes := g.Runes()
		if len(runes) != 1 {
			return nil, fmt.Errorf("%w: cluster %q spans %d runes", ErrUnsupportedGlyph, g.Str(), len(runes))
		}
		r := runes[0]
		if r == l.transparent {
			row = append(row, Glyph{Transparent: true})
			continue
		}
		if w := runewidth.RuneWidth(r); w != 1 {
			return nil, fmt.Errorf("%w: %q is %d cells wide", ErrUnsupportedGlyph, r, w)
		}
		row = append(row, Glyph{Rune: r})
	}
	return row, nil
}

// styleFile is the YAML layout of a style map.
//
//	palette:
//	  r: {fg: red}
//	  w: {fg: white, bg: "#202020"}
//	rows:
//	  - "rrw."
type styleFile struct {
	Palette map[string]styleEntry `yaml:"palette"`
	Rows    []string              `yaml:"rows"`
}

type styleEntry struct {
	Fg string `yaml:"fg"`
	Bg string `yaml:"bg"`
}

// InheritKey marks a style map cell that sets no color.
const InheritKey = '.'

// StyleMapLoader parses YAML style maps.
type StyleMapLoader struct{}

// NewStyleMapLoader creates a style map loader.
func NewStyleMapLoader() *StyleMapLoader {
	return &StyleMapLoader{}
}

// Parse converts YAML into a style map. Short rows are padded with
// inherited cells.
func (l *StyleMapLoader) Parse(data []byte) (*StyleMap, error) {
	var f styleFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing style map: %w", err)
	}

	palette, err := buildPalette(f.Palette)
	if err != nil {
		return nil, err
	}

	rows := make([][]rune, len(f.Rows))
	width := 0
	for i, row := range f.Rows {
		rows[i] = []rune(row)
		width = max(width, len(rows[i]))
	}

	styles := make([]core.Style, width*len(rows))
	for y, row := range rows {
		for x, key := range row {
			if key == InheritKey || key == ' ' {
				continue
			}
			st, ok := palette[key]
			if !ok {
				return nil, fmt.Errorf("row %d col %d: undefined palette key %q", y+1, x+1, key)
			}
			styles[y*width+x] = st
		}
	}
	return NewStyleMap(width, len(rows), styles)
}

func buildPalette(entries map[string]styleEntry) (map[rune]core.Style, error) {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	palette := make(map[rune]core.Style, len(entries))
	for _, k := range keys {
		runes := []rune(k)
		if len(runes) != 1 || runes[0] == InheritKey {
			return nil, fmt.Errorf("palette key %q must be a single character other than %q", k, InheritKey)
		}

		entry := entries[k]
		var st core.Style
		if entry.Fg != "" {
			c, err := core.ParseColor(entry.Fg)
			if err != nil {
				return nil, fmt.Errorf("palette %q fg: %w", k, err)
			}
			st.Fg = core.Use(c)
		}
		if entry.Bg != "" {
			c, err := core.ParseColor(entry.Bg)
			if err != nil {
				return nil, fmt.Errorf("palette %q bg: %w", k, err)
			}
			st.Bg = core.Use(c)
		}
		palette[runes[0]] = st
	}
	return palette, nil
}

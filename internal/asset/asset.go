// Package asset holds the immutable glyph and style assets that entities
// reference by handle.
//
// Two asset kinds exist: sprites (rectangular glyph grids) and style maps
// (parallel per-cell color grids). Handles are content-addressed: the same
// content always yields the same handle, so a handle comparison is a
// content comparison. Assets are never mutated after construction.
package asset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"

	"github.com/dshills/termsprite/internal/render/core"
)

// Kind identifies an asset kind.
type Kind uint8

const (
	// KindNone is the zero kind, used by the zero Handle.
	KindNone Kind = iota
	// KindSprite is a glyph grid.
	KindSprite
	// KindStyleMap is a per-cell style grid.
	KindStyleMap
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindSprite:
		return "sprite"
	case KindStyleMap:
		return "stylemap"
	default:
		return "none"
	}
}

// Asset errors.
var (
	// ErrNotFound indicates no asset is stored under a handle.
	ErrNotFound = errors.New("asset not found")

	// ErrKindMismatch indicates a handle of one kind was used where another was expected.
	ErrKindMismatch = errors.New("asset kind mismatch")

	// ErrDimensionMismatch indicates grid data that does not match its declared size.
	ErrDimensionMismatch = errors.New("asset dimension mismatch")

	// ErrUnsupportedGlyph indicates a glyph that cannot occupy exactly one cell.
	ErrUnsupportedGlyph = errors.New("unsupported glyph")

	// ErrUnknownFormat indicates a file whose asset kind cannot be determined.
	ErrUnknownFormat = errors.New("unknown asset format")
)

// LoadError describes a failure to load an asset.
type LoadError struct {
	Path string
	Kind Kind
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("load %s %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

var (
	spriteNamespace   = uuid.NewSHA1(uuid.NameSpaceURL, []byte("termsprite:sprite"))
	styleMapNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("termsprite:stylemap"))
)

// Handle identifies an asset by kind and content hash.
type Handle struct {
	Kind Kind
	ID   uuid.UUID
}

// IsZero reports whether the handle refers to nothing.
func (h Handle) IsZero() bool {
	return h.Kind == KindNone
}

func (h Handle) String() string {
	if h.IsZero() {
		return "none"
	}
	return h.Kind.String() + ":" + h.ID.String()[:8]
}

func contentHandle(kind Kind, content []byte) Handle {
	ns := spriteNamespace
	if kind == KindStyleMap {
		ns = styleMapNamespace
	}
	return Handle{Kind: kind, ID: uuid.NewSHA1(ns, content)}
}

// Asset is implemented by the asset kinds in this package only.
type Asset interface {
	Handle() Handle
	Size() (width, height int)
	asset()
}

// Glyph is one sprite cell.
type Glyph struct {
	Rune rune
	// Transparent cells draw nothing and let lower layers show through.
	Transparent bool
}

// Sprite is an immutable grid of glyphs.
type Sprite struct {
	handle Handle
	width  int
	height int
	glyphs []Glyph
}

// NewSprite builds a sprite from glyph rows. Short rows are padded with
// transparent cells. Every opaque glyph must be exactly one cell wide.
func NewSprite(rows [][]Glyph) (*Sprite, error) {
	width := 0
	for y, row := range rows {
		width = max(width, len(row))
		for x, g := range row {
			if g.Transparent {
				continue
			}
			if w := runewidth.RuneWidth(g.Rune); w != 1 {
				return nil, fmt.Errorf("%w: %q at (%d,%d) is %d cells wide", ErrUnsupportedGlyph, g.Rune, x, y, w)
			}
		}
	}

	s := &Sprite{
		width:  width,
		height: len(rows),
		glyphs: make([]Glyph, width*len(rows)),
	}

	var content strings.Builder
	fmt.Fprintf(&content, "%dx%d:", s.width, s.height)
	for y, row := range rows {
		for x := 0; x < width; x++ {
			g := Glyph{Transparent: true}
			if x < len(row) {
				g = row[x]
			}
			if g.Transparent {
				g.Rune = 0
			}
			s.glyphs[y*width+x] = g
			content.WriteRune(g.Rune)
		}
	}
	s.handle = contentHandle(KindSprite, []byte(content.String()))
	return s, nil
}

func (s *Sprite) asset() {}

// Handle returns the content handle.
func (s *Sprite) Handle() Handle { return s.handle }

// Size returns the sprite dimensions.
func (s *Sprite) Size() (width, height int) { return s.width, s.height }

// Width returns the sprite width.
func (s *Sprite) Width() int { return s.width }

// Height returns the sprite height.
func (s *Sprite) Height() int { return s.height }

// At returns the glyph at a local offset. Out of range cells are transparent.
func (s *Sprite) At(x, y int) Glyph {
	if x < 0 || y < 0 || x >= s.width || y >= s.height {
		return Glyph{Transparent: true}
	}
	return s.glyphs[y*s.width+x]
}

// Bounds returns the sprite footprint when placed at pos.
func (s *Sprite) Bounds(pos core.Pos) core.Rect {
	return core.RectAt(pos, s.width, s.height)
}

// StyleMap is an immutable grid of per-cell styles.
type StyleMap struct {
	handle Handle
	width  int
	height int
	styles []core.Style
}

// NewStyleMap builds a style map from a row-major style slice.
func NewStyleMap(width, height int, styles []core.Style) (*StyleMap, error) {
	if width < 0 || height < 0 || len(styles) != width*height {
		return nil, fmt.Errorf("%w: %dx%d grid with %d styles", ErrDimensionMismatch, width, height, len(styles))
	}

	m := &StyleMap{
		width:  width,
		height: height,
		styles: make([]core.Style, len(styles)),
	}
	copy(m.styles, styles)

	var content strings.Builder
	fmt.Fprintf(&content, "%dx%d:", width, height)
	for _, st := range m.styles {
		content.WriteString(st.String())
		content.WriteByte(';')
	}
	m.handle = contentHandle(KindStyleMap, []byte(content.String()))
	return m, nil
}

// UniformStyleMap builds a width x height map with every cell set to style.
func UniformStyleMap(width, height int, style core.Style) *StyleMap {
	styles := make([]core.Style, width*height)
	for i := range styles {
		styles[i] = style
	}
	m, _ := NewStyleMap(width, height, styles)
	return m
}

func (m *StyleMap) asset() {}

// Handle returns the content handle.
func (m *StyleMap) Handle() Handle { return m.handle }

// Size returns the map dimensions.
func (m *StyleMap) Size() (width, height int) { return m.width, m.height }

// At returns the style at a local offset. Out of range cells inherit.
func (m *StyleMap) At(x, y int) core.Style {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return core.NoStyle
	}
	return m.styles[y*m.width+x]
}

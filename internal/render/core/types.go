// Package core provides the value types shared by the render subsystem.
// This package breaks import cycles between render, asset, and backend.
package core

import (
	"fmt"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color represents a color value.
// Supports true color (RGB) and terminal palette colors.
type Color struct {
	R, G, B uint8
	// If Indexed is true, R contains the palette index (0-255).
	// G and B are ignored in indexed mode.
	Indexed bool
	// Default indicates this is the terminal's default color.
	Default bool
}

// ColorDefault represents the terminal's default color.
var ColorDefault = Color{Default: true}

// Common colors.
var (
	ColorBlack   = Color{R: 0, G: 0, B: 0}
	ColorWhite   = Color{R: 255, G: 255, B: 255}
	ColorRed     = Color{R: 255, G: 0, B: 0}
	ColorGreen   = Color{R: 0, G: 255, B: 0}
	ColorBlue    = Color{R: 0, G: 0, B: 255}
	ColorYellow  = Color{R: 255, G: 255, B: 0}
	ColorCyan    = Color{R: 0, G: 255, B: 255}
	ColorMagenta = Color{R: 255, G: 0, B: 255}
	ColorGray    = Color{R: 128, G: 128, B: 128}
)

var namedColors = map[string]Color{
	"black":   ColorBlack,
	"white":   ColorWhite,
	"red":     ColorRed,
	"green":   ColorGreen,
	"blue":    ColorBlue,
	"yellow":  ColorYellow,
	"cyan":    ColorCyan,
	"magenta": ColorMagenta,
	"gray":    ColorGray,
	"grey":    ColorGray,

	// The bright half of the 16-color palette, left to the terminal theme.
	"brightblack":   ColorFromIndex(8),
	"brightred":     ColorFromIndex(9),
	"brightgreen":   ColorFromIndex(10),
	"brightyellow":  ColorFromIndex(11),
	"brightblue":    ColorFromIndex(12),
	"brightmagenta": ColorFromIndex(13),
	"brightcyan":    ColorFromIndex(14),
	"brightwhite":   ColorFromIndex(15),
}

// ColorFromRGB creates a true color from RGB components.
func ColorFromRGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// ColorFromIndex creates an indexed palette color.
func ColorFromIndex(index uint8) Color {
	return Color{R: index, Indexed: true}
}

// ParseColor parses a color name, hex string ("#RGB", "#RRGGBB"),
// palette index ("idx:N") or "default".
func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Color{}, fmt.Errorf("empty color")
	}
	if s == "default" || s == "none" {
		return ColorDefault, nil
	}
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	if idx, ok := strings.CutPrefix(s, "idx:"); ok {
		n, err := strconv.ParseUint(idx, 10, 8)
		if err != nil {
			return Color{}, fmt.Errorf("invalid palette index: %s", idx)
		}
		return ColorFromIndex(uint8(n)), nil
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color: %s", s)
	}
	r, g, b := c.RGB255()
	return ColorFromRGB(r, g, b), nil
}

// IsDefault returns true if this is the terminal default color.
func (c Color) IsDefault() bool {
	return c.Default
}

// Equals returns true if two colors are equal.
func (c Color) Equals(other Color) bool {
	if c.Default != other.Default {
		return false
	}
	if c.Default {
		return true
	}
	if c.Indexed != other.Indexed {
		return false
	}
	if c.Indexed {
		return c.R == other.R
	}
	return c.R == other.R && c.G == other.G && c.B == other.B
}

// String returns a string representation of the color.
func (c Color) String() string {
	if c.IsDefault() {
		return "default"
	}
	if c.Indexed {
		return fmt.Sprintf("idx(%d)", c.R)
	}
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Channel is a single foreground or background slot.
// An unset channel inherits whatever lies beneath it.
type Channel struct {
	Set   bool
	Color Color
}

// Inherit is the unset channel.
var Inherit = Channel{}

// Use returns a channel set to c.
func Use(c Color) Channel {
	return Channel{Set: true, Color: c}
}

// Equals compares two channels.
func (ch Channel) Equals(other Channel) bool {
	if ch.Set != other.Set {
		return false
	}
	return !ch.Set || ch.Color.Equals(other.Color)
}

// Matches reports whether an emitted color satisfies this channel.
// Inherited channels accept any color.
func (ch Channel) Matches(c Color) bool {
	return !ch.Set || ch.Color.Equals(c)
}

func (ch Channel) String() string {
	if !ch.Set {
		return "inherit"
	}
	return ch.Color.String()
}

// Style is a foreground and background pair.
type Style struct {
	Fg Channel
	Bg Channel
}

// NoStyle inherits both channels.
var NoStyle = Style{}

// NewStyle creates a style with both channels set.
func NewStyle(fg, bg Color) Style {
	return Style{Fg: Use(fg), Bg: Use(bg)}
}

// WithForeground returns a copy with the foreground set.
func (s Style) WithForeground(fg Color) Style {
	s.Fg = Use(fg)
	return s
}

// WithBackground returns a copy with the background set.
func (s Style) WithBackground(bg Color) Style {
	s.Bg = Use(bg)
	return s
}

// Over fills channels left unset in s from beneath.
func (s Style) Over(beneath Style) Style {
	if !s.Fg.Set {
		s.Fg = beneath.Fg
	}
	if !s.Bg.Set {
		s.Bg = beneath.Bg
	}
	return s
}

// Equals returns true if two styles are identical.
func (s Style) Equals(other Style) bool {
	return s.Fg.Equals(other.Fg) && s.Bg.Equals(other.Bg)
}

// IsZero reports whether both channels inherit.
func (s Style) IsZero() bool {
	return !s.Fg.Set && !s.Bg.Set
}

func (s Style) String() string {
	return fmt.Sprintf("fg=%s bg=%s", s.Fg, s.Bg)
}

// Cell is a single composited terminal cell.
type Cell struct {
	Rune  rune
	Style Style
}

// Blank is what an uncovered cell shows: a space on the default background.
// The foreground of a space is never visible, so it inherits.
func Blank() Cell {
	return Cell{Rune: ' ', Style: Style{Bg: Use(ColorDefault)}}
}

// Equals returns true if two cells are identical.
func (c Cell) Equals(other Cell) bool {
	return c.Rune == other.Rune && c.Style.Equals(other.Style)
}

// Pos is a terminal coordinate, 0-indexed.
type Pos struct {
	X, Y int
}

// Add offsets a position.
func (p Pos) Add(dx, dy int) Pos {
	return Pos{X: p.X + dx, Y: p.Y + dy}
}

// Before reports whether p comes before other in row-major order.
func (p Pos) Before(other Pos) bool {
	if p.Y != other.Y {
		return p.Y < other.Y
	}
	return p.X < other.X
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Rect is an axis-aligned rectangle. X/Y is the top-left corner.
type Rect struct {
	X, Y int
	W, H int
}

// RectAt creates a rectangle at pos with the given size.
func RectAt(p Pos, w, h int) Rect {
	return Rect{X: p.X, Y: p.Y, W: w, H: h}
}

// Empty reports whether the rectangle covers no cells.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Right returns the exclusive right edge.
func (r Rect) Right() int { return r.X + r.W }

// Bottom returns the exclusive bottom edge.
func (r Rect) Bottom() int { return r.Y + r.H }

// Contains reports whether p lies inside the rectangle.
func (r Rect) Contains(p Pos) bool {
	return p.X >= r.X && p.X < r.Right() && p.Y >= r.Y && p.Y < r.Bottom()
}

// Intersect returns the overlap of two rectangles.
func (r Rect) Intersect(other Rect) Rect {
	x0 := max(r.X, other.X)
	y0 := max(r.Y, other.Y)
	x1 := min(r.Right(), other.Right())
	y1 := min(r.Bottom(), other.Bottom())
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Overlaps reports whether two rectangles share any cell.
func (r Rect) Overlaps(other Rect) bool {
	return !r.Intersect(other).Empty()
}

// Clip restricts the rectangle to a width x height screen.
func (r Rect) Clip(width, height int) Rect {
	return r.Intersect(Rect{W: width, H: height})
}

func (r Rect) String() string {
	return fmt.Sprintf("[%d,%d %dx%d]", r.X, r.Y, r.W, r.H)
}

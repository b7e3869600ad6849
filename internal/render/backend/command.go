// Package backend turns the renderer's logical command stream into terminal
// output. Devices own all escape sequence encoding.
package backend

import (
	"fmt"

	"github.com/dshills/termsprite/internal/render/core"
)

// Op identifies a logical terminal command.
type Op uint8

const (
	// OpMoveTo positions the cursor at X, Y.
	OpMoveTo Op = iota
	// OpSetFg changes the foreground pen.
	OpSetFg
	// OpSetBg changes the background pen.
	OpSetBg
	// OpWrite writes Rune at the cursor with the current pen and advances.
	OpWrite
	// OpClear blanks the screen with default colors and resets the pen.
	OpClear
	// OpShowCursor makes the cursor visible.
	OpShowCursor
	// OpHideCursor hides the cursor.
	OpHideCursor
)

var opNames = [...]string{
	OpMoveTo:     "move",
	OpSetFg:      "fg",
	OpSetBg:      "bg",
	OpWrite:      "write",
	OpClear:      "clear",
	OpShowCursor: "show-cursor",
	OpHideCursor: "hide-cursor",
}

// String returns the op name.
func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", o)
}

// Command is one logical terminal instruction. Only the fields relevant to
// Op are meaningful.
type Command struct {
	Op    Op
	X, Y  int
	Rune  rune
	Color core.Color
}

// MoveTo creates a cursor positioning command.
func MoveTo(x, y int) Command {
	return Command{Op: OpMoveTo, X: x, Y: y}
}

// SetFg creates a foreground change.
func SetFg(c core.Color) Command {
	return Command{Op: OpSetFg, Color: c}
}

// SetBg creates a background change.
func SetBg(c core.Color) Command {
	return Command{Op: OpSetBg, Color: c}
}

// Write creates a character write.
func Write(r rune) Command {
	return Command{Op: OpWrite, Rune: r}
}

// Clear creates a full screen clear.
func Clear() Command {
	return Command{Op: OpClear}
}

// ShowCursor creates a cursor show command.
func ShowCursor() Command {
	return Command{Op: OpShowCursor}
}

// HideCursor creates a cursor hide command.
func HideCursor() Command {
	return Command{Op: OpHideCursor}
}

// Equals compares the fields relevant to the op.
func (c Command) Equals(other Command) bool {
	if c.Op != other.Op {
		return false
	}
	switch c.Op {
	case OpMoveTo:
		return c.X == other.X && c.Y == other.Y
	case OpSetFg, OpSetBg:
		return c.Color.Equals(other.Color)
	case OpWrite:
		return c.Rune == other.Rune
	default:
		return true
	}
}

func (c Command) String() string {
	switch c.Op {
	case OpMoveTo:
		return fmt.Sprintf("move(%d,%d)", c.X, c.Y)
	case OpSetFg, OpSetBg:
		return fmt.Sprintf("%s(%s)", c.Op, c.Color)
	case OpWrite:
		return fmt.Sprintf("write(%q)", c.Rune)
	default:
		return c.Op.String()
	}
}

// Count tallies commands by op.
func Count(cmds []Command, op Op) int {
	n := 0
	for _, c := range cmds {
		if c.Op == op {
			n++
		}
	}
	return n
}

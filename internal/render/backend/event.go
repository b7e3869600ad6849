package backend

import "fmt"

// EventType identifies the type of terminal event.
type EventType int

const (
	EventNone EventType = iota
	EventKey
	EventMouse
	EventResize
	// EventClosed is returned once the device has shut down.
	EventClosed
)

// Event is a raw input event. The renderer never interprets these; the
// host receives them untouched.
type Event struct {
	Type EventType

	// Key event fields
	Key  Key
	Rune rune
	Mod  ModMask

	// Mouse event fields
	MouseX, MouseY int
	MouseButton    MouseButton

	// Resize event fields
	Width, Height int
}

func (e Event) String() string {
	switch e.Type {
	case EventKey:
		if e.Key == KeyRune {
			return fmt.Sprintf("key(%q mod=%d)", e.Rune, e.Mod)
		}
		return fmt.Sprintf("key(%s mod=%d)", e.Key, e.Mod)
	case EventMouse:
		return fmt.Sprintf("mouse(%d,%d button=%d)", e.MouseX, e.MouseY, e.MouseButton)
	case EventResize:
		return fmt.Sprintf("resize(%dx%d)", e.Width, e.Height)
	case EventClosed:
		return "closed"
	default:
		return "none"
	}
}

// Key represents a keyboard key.
type Key int

const (
	KeyNone Key = iota
	KeyRune     // Regular character (use Rune field)
	KeyEscape
	KeyEnter
	KeyTab
	KeyBackspace
	KeyDelete
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyCtrlC
	KeyCtrlD
	KeyCtrlL
)

var keyNames = map[Key]string{
	KeyNone:      "none",
	KeyRune:      "rune",
	KeyEscape:    "esc",
	KeyEnter:     "enter",
	KeyTab:       "tab",
	KeyBackspace: "backspace",
	KeyDelete:    "delete",
	KeyHome:      "home",
	KeyEnd:       "end",
	KeyPageUp:    "pgup",
	KeyPageDown:  "pgdn",
	KeyUp:        "up",
	KeyDown:      "down",
	KeyLeft:      "left",
	KeyRight:     "right",
	KeyCtrlC:     "ctrl+c",
	KeyCtrlD:     "ctrl+d",
	KeyCtrlL:     "ctrl+l",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("key(%d)", int(k))
}

// ModMask represents modifier key state.
type ModMask int

const (
	ModNone  ModMask = 0
	ModShift ModMask = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

// Has returns true if the mask contains the given modifier.
func (m ModMask) Has(mod ModMask) bool {
	return m&mod != 0
}

// MouseButton represents mouse button state.
type MouseButton int

const (
	MouseNone MouseButton = iota
	MouseLeft
	MouseMiddle
	MouseRight
	MouseWheelUp
	MouseWheelDown
)

package backend

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/termsprite/internal/render/core"
)

// Tcell applies commands to a tcell.Screen. The logical stream is
// interpreted on a Surface so cursor and pen state translate into
// SetContent calls.
type Tcell struct {
	screen  tcell.Screen
	surface *Surface
	mu      sync.Mutex
}

// NewTcell creates a device on the default terminal screen.
func NewTcell() (*Tcell, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return NewTcellScreen(screen), nil
}

// NewTcellScreen wraps an existing screen, such as a simulation screen.
func NewTcellScreen(screen tcell.Screen) *Tcell {
	return &Tcell{screen: screen, surface: NewSurface(0, 0)}
}

func (t *Tcell) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.screen.Init(); err != nil {
		return err
	}
	t.screen.EnableMouse()
	t.surface.Resize(t.screen.Size())
	return nil
}

func (t *Tcell) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Fini()
}

func (t *Tcell) Size() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.screen.Size()
}

// Apply replays the batch onto the screen and shows it.
func (t *Tcell) Apply(cmds []Command) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if w, h := t.screen.Size(); w != t.surface.width || h != t.surface.height {
		t.surface.Resize(w, h)
	}
	for _, c := range cmds {
		x, y, ok := t.surface.Step(c)
		switch c.Op {
		case OpWrite:
			if ok {
				t.screen.SetContent(x, y, c.Rune, nil, convertStyle(t.surface.fg, t.surface.bg))
			}
		case OpClear:
			t.screen.Clear()
		}
	}

	if cx, cy, visible := t.surface.Cursor(); visible {
		t.screen.ShowCursor(cx, cy)
	} else {
		t.screen.HideCursor()
	}
	t.screen.Show()
	return nil
}

func (t *Tcell) PollEvent() Event {
	ev := t.screen.PollEvent()
	if ev == nil {
		return Event{Type: EventClosed}
	}
	return convertEvent(ev)
}

// PostEvent posts a synthetic key event.
func (t *Tcell) PostEvent(event Event) {
	if event.Type == EventKey {
		tcellEv := tcell.NewEventKey(convertToTcellKey(event.Key), event.Rune, convertToTcellMod(event.Mod))
		_ = t.screen.PostEvent(tcellEv) // best-effort; event queue may be full
	}
}

// convertStyle converts a pen to tcell.Style.
func convertStyle(fg, bg core.Color) tcell.Style {
	return tcell.StyleDefault.Foreground(convertColor(fg)).Background(convertColor(bg))
}

func convertColor(c core.Color) tcell.Color {
	switch {
	case c.Default:
		return tcell.ColorDefault
	case c.Indexed:
		return tcell.PaletteColor(int(c.R))
	default:
		return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
	}
}

// convertTcellColor converts tcell.Color to our Color.
func convertTcellColor(tc tcell.Color) core.Color {
	if tc == tcell.ColorDefault {
		return core.ColorDefault
	}
	if tc >= tcell.ColorValid && tc < tcell.ColorIsRGB {
		return core.ColorFromIndex(uint8(tc - tcell.ColorValid))
	}
	r, g, b := tc.RGB()
	return core.ColorFromRGB(uint8(r), uint8(g), uint8(b))
}

// convertEvent converts tcell events to our Event type.
func convertEvent(ev tcell.Event) Event {
	switch e := ev.(type) {
	case *tcell.EventKey:
		return Event{
			Type: EventKey,
			Key:  convertKey(e.Key()),
			Rune: e.Rune(),
			Mod:  convertMod(e.Modifiers()),
		}

	case *tcell.EventMouse:
		x, y := e.Position()
		return Event{
			Type:        EventMouse,
			MouseX:      x,
			MouseY:      y,
			MouseButton: convertMouseButton(e.Buttons()),
			Mod:         convertMod(e.Modifiers()),
		}

	case *tcell.EventResize:
		w, h := e.Size()
		return Event{
			Type:   EventResize,
			Width:  w,
			Height: h,
		}

	default:
		return Event{Type: EventNone}
	}
}

var tcellKeys = map[tcell.Key]Key{
	tcell.KeyRune:       KeyRune,
	tcell.KeyEscape:     KeyEscape,
	tcell.KeyEnter:      KeyEnter,
	tcell.KeyTab:        KeyTab,
	tcell.KeyBackspace:  KeyBackspace,
	tcell.KeyBackspace2: KeyBackspace,
	tcell.KeyDelete:     KeyDelete,
	tcell.KeyHome:       KeyHome,
	tcell.KeyEnd:        KeyEnd,
	tcell.KeyPgUp:       KeyPageUp,
	tcell.KeyPgDn:       KeyPageDown,
	tcell.KeyUp:         KeyUp,
	tcell.KeyDown:       KeyDown,
	tcell.KeyLeft:       KeyLeft,
	tcell.KeyRight:      KeyRight,
	tcell.KeyCtrlC:      KeyCtrlC,
	tcell.KeyCtrlD:      KeyCtrlD,
	tcell.KeyCtrlL:      KeyCtrlL,
}

// convertKey converts tcell key to our Key type.
func convertKey(k tcell.Key) Key {
	if key, ok := tcellKeys[k]; ok {
		return key
	}
	return KeyNone
}

// convertToTcellKey converts our Key to tcell.Key.
func convertToTcellKey(k Key) tcell.Key {
	if k == KeyBackspace {
		return tcell.KeyBackspace2
	}
	for tk, key := range tcellKeys {
		if key == k {
			return tk
		}
	}
	return tcell.KeyRune
}

// convertMod converts tcell modifier mask to our ModMask.
func convertMod(m tcell.ModMask) ModMask {
	var result ModMask
	if m&tcell.ModShift != 0 {
		result |= ModShift
	}
	if m&tcell.ModCtrl != 0 {
		result |= ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		result |= ModAlt
	}
	if m&tcell.ModMeta != 0 {
		result |= ModMeta
	}
	return result
}

// convertToTcellMod converts our ModMask to tcell.ModMask.
func convertToTcellMod(m ModMask) tcell.ModMask {
	var result tcell.ModMask
	if m&ModShift != 0 {
		result |= tcell.ModShift
	}
	if m&ModCtrl != 0 {
		result |= tcell.ModCtrl
	}
	if m&ModAlt != 0 {
		result |= tcell.ModAlt
	}
	if m&ModMeta != 0 {
		result |= tcell.ModMeta
	}
	return result
}

// convertMouseButton converts tcell button mask to our MouseButton.
func convertMouseButton(b tcell.ButtonMask) MouseButton {
	switch {
	case b&tcell.Button1 != 0:
		return MouseLeft
	case b&tcell.Button2 != 0:
		return MouseMiddle
	case b&tcell.Button3 != 0:
		return MouseRight
	case b&tcell.WheelUp != 0:
		return MouseWheelUp
	case b&tcell.WheelDown != 0:
		return MouseWheelDown
	default:
		return MouseNone
	}
}

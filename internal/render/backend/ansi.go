package backend

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/term"

	"github.com/dshills/termsprite/internal/render/core"
)

// Pre-allocated sequence fragments.
var (
	csi           = []byte("\x1b[")
	csiSGR0       = []byte("\x1b[0m")
	csiClear      = []byte("\x1b[0m\x1b[2J\x1b[H")
	csiCursorHide = []byte("\x1b[?25l")
	csiCursorShow = []byte("\x1b[?25h")

	csiAltScreenEnter = []byte("\x1b[?1049h")
	csiAltScreenExit  = []byte("\x1b[?1049l")
	// Autowrap off keeps a write to the last column from scrolling.
	csiAutoWrapOn  = []byte("\x1b[?7h")
	csiAutoWrapOff = []byte("\x1b[?7l")
	// Button reporting in SGR encoding, so coordinates are not capped at 223.
	csiMouseOn  = []byte("\x1b[?1000h\x1b[?1006h")
	csiMouseOff = []byte("\x1b[?1006l\x1b[?1000l")

	csiFg256     = []byte("\x1b[38;5;")
	csiBg256     = []byte("\x1b[48;5;")
	csiFgRGB     = []byte("\x1b[38;2;")
	csiBgRGB     = []byte("\x1b[48;2;")
	csiDefaultFg = []byte("\x1b[39m")
	csiDefaultBg = []byte("\x1b[49m")
)

// ColorMode indicates terminal color capability.
type ColorMode uint8

const (
	ColorMode256       ColorMode = iota // xterm-256 palette
	ColorModeTrueColor                  // 24-bit RGB
)

func (m ColorMode) String() string {
	if m == ColorModeTrueColor {
		return "truecolor"
	}
	return "256"
}

// ParseColorMode parses "auto", "256" or "truecolor".
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return DetectColorMode(), nil
	case "256":
		return ColorMode256, nil
	case "truecolor", "24bit":
		return ColorModeTrueColor, nil
	default:
		return ColorMode256, fmt.Errorf("unknown color mode %q", s)
	}
}

// DetectColorMode determines terminal color capability from environment.
func DetectColorMode() ColorMode {
	colorterm := os.Getenv("COLORTERM")
	if colorterm == "truecolor" || colorterm == "24bit" {
		return ColorModeTrueColor
	}
	for _, v := range []string{"KITTY_WINDOW_ID", "ITERM_SESSION_ID", "WEZTERM_PANE", "ALACRITTY_WINDOW_ID"} {
		if os.Getenv(v) != "" {
			return ColorModeTrueColor
		}
	}
	termLower := strings.ToLower(os.Getenv("TERM"))
	if strings.Contains(termLower, "truecolor") ||
		strings.Contains(termLower, "24bit") ||
		strings.Contains(termLower, "direct") {
		return ColorModeTrueColor
	}
	return ColorMode256
}

// ANSIOption configures an ANSI device.
type ANSIOption func(*ANSI)

// WithColorMode forces a color mode instead of detecting it.
func WithColorMode(mode ColorMode) ANSIOption {
	return func(a *ANSI) {
		a.mode = mode
	}
}

// WithInput sets the input stream. Raw mode is enabled on Init when it is
// a terminal.
func WithInput(in io.Reader) ANSIOption {
	return func(a *ANSI) {
		a.in = in
	}
}

// WithFallbackSize sets the dimensions reported when the output is not a
// terminal.
func WithFallbackSize(width, height int) ANSIOption {
	return func(a *ANSI) {
		a.width, a.height = width, height
	}
}

// ANSI writes commands as escape sequences to an io.Writer.
type ANSI struct {
	mu     sync.Mutex
	out    io.Writer
	w      *bufio.Writer
	in     io.Reader
	mode   ColorMode
	colors map[core.Color]uint8

	width, height int
	rawState      *term.State

	events chan Event
	done   chan struct{}
	closed bool
}

// NewANSI creates a device writing to out.
func NewANSI(out io.Writer, opts ...ANSIOption) *ANSI {
	a := &ANSI{
		out:    out,
		w:      bufio.NewWriterSize(out, 16*1024),
		mode:   DetectColorMode(),
		colors: make(map[core.Color]uint8),
		width:  80,
		height: 24,
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ColorMode returns the active color mode.
func (a *ANSI) ColorMode() ColorMode {
	return a.mode
}

// Init enters the alternate screen and raw mode.
func (a *ANSI) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		state, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			return fmt.Errorf("enable raw mode: %w", err)
		}
		a.rawState = state
	}

	a.w.Write(csiAltScreenEnter)
	a.w.Write(csiAutoWrapOff)
	a.w.Write(csiMouseOn)
	if err := a.w.Flush(); err != nil {
		return err
	}

	if a.in != nil {
		go a.readLoop()
	}
	return nil
}

// Shutdown leaves the alternate screen and restores the terminal mode.
func (a *ANSI) Shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}
	a.closed = true

	a.w.Write(csiMouseOff)
	a.w.Write(csiSGR0)
	a.w.Write(csiCursorShow)
	a.w.Write(csiAutoWrapOn)
	a.w.Write(csiAltScreenExit)
	_ = a.w.Flush() // best-effort; output may already be gone

	if a.rawState != nil {
		if f, ok := a.in.(*os.File); ok {
			_ = term.Restore(int(f.Fd()), a.rawState)
		}
		a.rawState = nil
	}
	close(a.done)
}

// Size returns the terminal size, or the fallback size when the output is
// not a terminal.
func (a *ANSI) Size() (int, int) {
	if f, ok := a.out.(*os.File); ok {
		if w, h, err := term.GetSize(int(f.Fd())); err == nil {
			return w, h
		}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.width, a.height
}

// Apply encodes and flushes one batch.
func (a *ANSI) Apply(cmds []Command) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	for _, c := range cmds {
		a.encode(c)
	}
	return a.w.Flush()
}

func (a *ANSI) encode(c Command) {
	switch c.Op {
	case OpMoveTo:
		writeCursorPos(a.w, c.X, c.Y)
	case OpSetFg:
		a.writeColor(c.Color, true)
	case OpSetBg:
		a.writeColor(c.Color, false)
	case OpWrite:
		a.w.WriteRune(c.Rune)
	case OpClear:
		a.w.Write(csiClear)
	case OpShowCursor:
		a.w.Write(csiCursorShow)
	case OpHideCursor:
		a.w.Write(csiCursorHide)
	}
}

func (a *ANSI) writeColor(c core.Color, fg bool) {
	switch {
	case c.Default:
		if fg {
			a.w.Write(csiDefaultFg)
		} else {
			a.w.Write(csiDefaultBg)
		}
	case c.Indexed:
		a.write256(c.R, fg)
	case a.mode == ColorModeTrueColor:
		if fg {
			a.w.Write(csiFgRGB)
		} else {
			a.w.Write(csiBgRGB)
		}
		writeInt(a.w, int(c.R))
		a.w.WriteByte(';')
		writeInt(a.w, int(c.G))
		a.w.WriteByte(';')
		writeInt(a.w, int(c.B))
		a.w.WriteByte('m')
	default:
		idx, ok := a.colors[c]
		if !ok {
			idx = Nearest256(c)
			a.colors[c] = idx
		}
		a.write256(idx, fg)
	}
}

func (a *ANSI) write256(idx uint8, fg bool) {
	if fg {
		a.w.Write(csiFg256)
	} else {
		a.w.Write(csiBg256)
	}
	writeInt(a.w, int(idx))
	a.w.WriteByte('m')
}

// PollEvent blocks until a key is read or the device shuts down.
func (a *ANSI) PollEvent() Event {
	select {
	case ev := <-a.events:
		return ev
	case <-a.done:
		return Event{Type: EventClosed}
	}
}

func (a *ANSI) readLoop() {
	buf := make([]byte, 256)
	for {
		n, err := a.in.Read(buf)
		for _, ev := range parseInput(buf[:n]) {
			select {
			case a.events <- ev:
			case <-a.done:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// writeInt writes an integer without allocation.
func writeInt(w *bufio.Writer, n int) {
	if n < 0 {
		n = 0
	}
	if n < 10 {
		w.WriteByte(byte(n) + '0')
		return
	}
	var buf [10]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte(n%10) + '0'
		n /= 10
	}
	w.Write(buf[i:])
}

// writeCursorPos writes a cursor positioning sequence (0-indexed input).
func writeCursorPos(w *bufio.Writer, x, y int) {
	w.Write(csi)
	writeInt(w, y+1)
	w.WriteByte(';')
	writeInt(w, x+1)
	w.WriteByte('H')
}

// parseInput decodes raw-mode keyboard and SGR mouse bytes. Unknown escape sequences are
// dropped.
func parseInput(b []byte) []Event {
	var events []Event
	for len(b) > 0 {
		ev, n := parseKey(b)
		b = b[n:]
		if ev.Type != EventNone {
			events = append(events, ev)
		}
	}
	return events
}

func parseKey(b []byte) (Event, int) {
	key := func(k Key) Event { return Event{Type: EventKey, Key: k} }

	switch c := b[0]; {
	case c == 0x1b:
		if len(b) == 1 {
			return key(KeyEscape), 1
		}
		if b[1] == '[' || b[1] == 'O' {
			return parseCSI(b)
		}
		r, n := utf8.DecodeRune(b[1:])
		return Event{Type: EventKey, Key: KeyRune, Rune: r, Mod: ModAlt}, 1 + n
	case c == '\r' || c == '\n':
		return key(KeyEnter), 1
	case c == '\t':
		return key(KeyTab), 1
	case c == 0x7f || c == 0x08:
		return key(KeyBackspace), 1
	case c == 0x03:
		return Event{Type: EventKey, Key: KeyCtrlC, Mod: ModCtrl}, 1
	case c == 0x04:
		return Event{Type: EventKey, Key: KeyCtrlD, Mod: ModCtrl}, 1
	case c == 0x0c:
		return Event{Type: EventKey, Key: KeyCtrlL, Mod: ModCtrl}, 1
	case c < 0x20:
		return Event{}, 1
	}

	r, n := utf8.DecodeRune(b)
	return Event{Type: EventKey, Key: KeyRune, Rune: r}, n
}

var csiFinal = map[byte]Key{
	'A': KeyUp,
	'B': KeyDown,
	'C': KeyRight,
	'D': KeyLeft,
	'H': KeyHome,
	'F': KeyEnd,
}

var csiTilde = map[string]Key{
	"1": KeyHome,
	"3": KeyDelete,
	"4": KeyEnd,
	"5": KeyPageUp,
	"6": KeyPageDown,
}

// parseCSI decodes ESC [ ... and ESC O ... sequences. b[0] is ESC.
func parseCSI(b []byte) (Event, int) {
	for i := 2; i < len(b); i++ {
		c := b[i]
		if c < 0x40 || c > 0x7e {
			continue
		}
		n := i + 1
		if b[2] == '<' && (c == 'M' || c == 'm') {
			return parseSGRMouse(string(b[3:i]), c == 'm'), n
		}
		if k, ok := csiFinal[c]; ok {
			return Event{Type: EventKey, Key: k}, n
		}
		if c == '~' {
			if k, ok := csiTilde[string(b[2:i])]; ok {
				return Event{Type: EventKey, Key: k}, n
			}
		}
		return Event{}, n
	}
	return Event{}, len(b)
}

// SGR mouse button byte layout.
const (
	mouseShift  = 4
	mouseAlt    = 8
	mouseCtrl   = 16
	mouseMotion = 32
	mouseWheel  = 64
)

// parseSGRMouse decodes the parameters of ESC [ < b ; x ; y M|m. The
// coordinates are 1-based on the wire. Malformed reports are dropped.
func parseSGRMouse(params string, release bool) Event {
	parts := strings.Split(params, ";")
	if len(parts) != 3 {
		return Event{}
	}
	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Event{}
		}
		v[i] = n
	}
	cb, x, y := v[0], v[1], v[2]
	if x < 1 || y < 1 {
		return Event{}
	}

	ev := Event{Type: EventMouse, MouseX: x - 1, MouseY: y - 1}
	if cb&mouseShift != 0 {
		ev.Mod |= ModShift
	}
	if cb&mouseAlt != 0 {
		ev.Mod |= ModAlt
	}
	if cb&mouseCtrl != 0 {
		ev.Mod |= ModCtrl
	}
	if release {
		return ev
	}

	switch base := cb &^ (mouseShift | mouseAlt | mouseCtrl | mouseMotion); base {
	case 0:
		ev.MouseButton = MouseLeft
	case 1:
		ev.MouseButton = MouseMiddle
	case 2:
		ev.MouseButton = MouseRight
	case mouseWheel:
		ev.MouseButton = MouseWheelUp
	case mouseWheel + 1:
		ev.MouseButton = MouseWheelDown
	}
	return ev
}

package backend

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/dshills/termsprite/internal/render/core"
)

func newTestANSI(mode ColorMode) (*ANSI, *bytes.Buffer) {
	var buf bytes.Buffer
	a := NewANSI(&buf, WithColorMode(mode), WithFallbackSize(10, 4))
	return a, &buf
}

func TestANSIEncoding(t *testing.T) {
	tests := []struct {
		name string
		mode ColorMode
		cmds []Command
		want string
	}{
		{
			name: "cursor position is one based",
			mode: ColorModeTrueColor,
			cmds: []Command{MoveTo(2, 1)},
			want: "\x1b[2;3H",
		},
		{
			name: "truecolor foreground",
			mode: ColorModeTrueColor,
			cmds: []Command{SetFg(core.ColorFromRGB(255, 128, 0)), Write('x')},
			want: "\x1b[38;2;255;128;0mx",
		},
		{
			name: "downsampled background",
			mode: ColorMode256,
			cmds: []Command{SetBg(core.ColorRed)},
			want: "\x1b[48;5;196m",
		},
		{
			name: "indexed passes through",
			mode: ColorModeTrueColor,
			cmds: []Command{SetFg(core.ColorFromIndex(42))},
			want: "\x1b[38;5;42m",
		},
		{
			name: "default colors",
			mode: ColorMode256,
			cmds: []Command{SetFg(core.ColorDefault), SetBg(core.ColorDefault)},
			want: "\x1b[39m\x1b[49m",
		},
		{
			name: "clear and cursor",
			mode: ColorMode256,
			cmds: []Command{Clear(), HideCursor(), ShowCursor()},
			want: "\x1b[0m\x1b[2J\x1b[H\x1b[?25l\x1b[?25h",
		},
		{
			name: "wide positions",
			mode: ColorMode256,
			cmds: []Command{MoveTo(1234, 99)},
			want: "\x1b[100;1235H",
		},
		{
			name: "utf8 write",
			mode: ColorMode256,
			cmds: []Command{Write('█')},
			want: "█",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, buf := newTestANSI(tt.mode)
			if err := a.Apply(tt.cmds); err != nil {
				t.Fatalf("Apply failed: %v", err)
			}
			if got := buf.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestANSILifecycle(t *testing.T) {
	a, buf := newTestANSI(ColorMode256)
	if err := a.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), csiAltScreenEnter) {
		t.Errorf("Init output = %q, want alt screen enter", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), csiMouseOn) {
		t.Errorf("Init output = %q, want mouse reporting enabled", buf.String())
	}
	initLen := buf.Len()

	if w, h := a.Size(); w != 10 || h != 4 {
		t.Errorf("Size() = (%d,%d), want fallback (10,4)", w, h)
	}

	a.Shutdown()
	a.Shutdown()
	if !bytes.HasSuffix(buf.Bytes(), csiAltScreenExit) {
		t.Errorf("Shutdown output = %q, want alt screen exit", buf.String())
	}
	if !bytes.Contains(buf.Bytes()[initLen:], csiMouseOff) {
		t.Errorf("Shutdown output = %q, want mouse reporting disabled", buf.String())
	}
	if ev := a.PollEvent(); ev.Type != EventClosed {
		t.Errorf("event = %s, want closed", ev)
	}
	if err := a.Apply([]Command{Write('x')}); err != ErrClosed {
		t.Errorf("Apply after shutdown = %v, want ErrClosed", err)
	}
}

func TestANSIReadsInput(t *testing.T) {
	var out bytes.Buffer
	a := NewANSI(&out, WithInput(bytes.NewReader([]byte("q\x1b[A"))))
	if err := a.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer a.Shutdown()

	if ev := a.PollEvent(); ev.Key != KeyRune || ev.Rune != 'q' {
		t.Errorf("first event = %s, want key q", ev)
	}
	if ev := a.PollEvent(); ev.Key != KeyUp {
		t.Errorf("second event = %s, want up", ev)
	}
}

func TestANSIReadsMouse(t *testing.T) {
	var out bytes.Buffer
	a := NewANSI(&out, WithInput(bytes.NewReader([]byte("\x1b[<0;3;2M"))))
	if err := a.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer a.Shutdown()

	ev := a.PollEvent()
	if ev.Type != EventMouse || ev.MouseX != 2 || ev.MouseY != 1 || ev.MouseButton != MouseLeft {
		t.Errorf("event = %s, want left click at (2,1)", ev)
	}
}

func TestParseInput(t *testing.T) {
	tests := []struct {
		in   string
		want []Event
	}{
		{"a", []Event{{Type: EventKey, Key: KeyRune, Rune: 'a'}}},
		{"é", []Event{{Type: EventKey, Key: KeyRune, Rune: 'é'}}},
		{"\r", []Event{{Type: EventKey, Key: KeyEnter}}},
		{"\x7f", []Event{{Type: EventKey, Key: KeyBackspace}}},
		{"\x03", []Event{{Type: EventKey, Key: KeyCtrlC, Mod: ModCtrl}}},
		{"\x1b", []Event{{Type: EventKey, Key: KeyEscape}}},
		{"\x1bx", []Event{{Type: EventKey, Key: KeyRune, Rune: 'x', Mod: ModAlt}}},
		{"\x1b[B\x1b[D", []Event{{Type: EventKey, Key: KeyDown}, {Type: EventKey, Key: KeyLeft}}},
		{"\x1bOH", []Event{{Type: EventKey, Key: KeyHome}}},
		{"\x1b[5~", []Event{{Type: EventKey, Key: KeyPageUp}}},
		{"\x1b[3~z", []Event{{Type: EventKey, Key: KeyDelete}, {Type: EventKey, Key: KeyRune, Rune: 'z'}}},
		{"\x1b[99~", nil},
		{"\x01", nil},
		{"\x1b[<0;5;3M", []Event{{Type: EventMouse, MouseX: 4, MouseY: 2, MouseButton: MouseLeft}}},
		{"\x1b[<0;5;3m", []Event{{Type: EventMouse, MouseX: 4, MouseY: 2, MouseButton: MouseNone}}},
		{"\x1b[<2;1;1M", []Event{{Type: EventMouse, MouseButton: MouseRight}}},
		{"\x1b[<1;120;40M", []Event{{Type: EventMouse, MouseX: 119, MouseY: 39, MouseButton: MouseMiddle}}},
		{"\x1b[<64;3;4M", []Event{{Type: EventMouse, MouseX: 2, MouseY: 3, MouseButton: MouseWheelUp}}},
		{"\x1b[<65;3;4M", []Event{{Type: EventMouse, MouseX: 2, MouseY: 3, MouseButton: MouseWheelDown}}},
		{"\x1b[<20;2;2M", []Event{{Type: EventMouse, MouseX: 1, MouseY: 1, MouseButton: MouseLeft, Mod: ModShift | ModCtrl}}},
		{"\x1b[<32;7;1M", []Event{{Type: EventMouse, MouseX: 6, MouseButton: MouseLeft}}},
		{"\x1b[<0;2;2Mq", []Event{
			{Type: EventMouse, MouseX: 1, MouseY: 1, MouseButton: MouseLeft},
			{Type: EventKey, Key: KeyRune, Rune: 'q'},
		}},
		{"\x1b[<0;0;1M", nil},
		{"\x1b[<0;x;1M", nil},
		{"\x1b[<0;1M", nil},
	}

	for _, tt := range tests {
		got := parseInput([]byte(tt.in))
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseInput(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNearest256(t *testing.T) {
	tests := []struct {
		name string
		c    core.Color
		want uint8
	}{
		{"black", core.ColorBlack, 16},
		{"white", core.ColorWhite, 231},
		{"red", core.ColorRed, 196},
		{"gray ramp", core.ColorFromRGB(128, 128, 128), 244},
		{"near cube", core.ColorFromRGB(0, 90, 250), 16 + 6*1 + 5},
		{"indexed", core.ColorFromIndex(7), 7},
	}
	for _, tt := range tests {
		if got := Nearest256(tt.c); got != tt.want {
			t.Errorf("%s: Nearest256(%s) = %d, want %d", tt.name, tt.c, got, tt.want)
		}
	}
}

func TestPaletteRGBRoundTrip(t *testing.T) {
	for idx := 16; idx < 256; idx++ {
		r, g, b, ok := PaletteRGB(uint8(idx))
		if !ok {
			t.Fatalf("PaletteRGB(%d) not ok", idx)
		}
		if got := Nearest256(core.ColorFromRGB(r, g, b)); got != uint8(idx) {
			// The cube and ramp share no exact values, so every entry maps to itself.
			t.Errorf("Nearest256(PaletteRGB(%d)) = %d", idx, got)
		}
	}
	if _, _, _, ok := PaletteRGB(3); ok {
		t.Error("system colors should not report RGB")
	}
}

func TestColorModeParse(t *testing.T) {
	if m, err := ParseColorMode("truecolor"); err != nil || m != ColorModeTrueColor {
		t.Errorf("ParseColorMode(truecolor) = %v, %v", m, err)
	}
	if m, err := ParseColorMode("256"); err != nil || m != ColorMode256 {
		t.Errorf("ParseColorMode(256) = %v, %v", m, err)
	}
	if _, err := ParseColorMode("16"); err == nil {
		t.Error("expected error for unsupported mode")
	}
}

func TestDetectColorMode(t *testing.T) {
	t.Setenv("COLORTERM", "truecolor")
	if got := DetectColorMode(); got != ColorModeTrueColor {
		t.Errorf("DetectColorMode() = %s, want truecolor", got)
	}

	t.Setenv("COLORTERM", "")
	t.Setenv("KITTY_WINDOW_ID", "")
	t.Setenv("ITERM_SESSION_ID", "")
	t.Setenv("WEZTERM_PANE", "")
	t.Setenv("ALACRITTY_WINDOW_ID", "")
	t.Setenv("TERM", "xterm-256color")
	if got := DetectColorMode(); got != ColorMode256 {
		t.Errorf("DetectColorMode() = %s, want 256", got)
	}
}

package loader

import "testing"

func newTestEnvLoader(env ...string) *EnvLoader {
	l := NewEnvLoader(EnvPrefix)
	l.environ = func() []string { return env }
	return l
}

func TestEnvLoader_Load(t *testing.T) {
	l := newTestEnvLoader(
		"TERMSPRITE_RENDER_FPS=24",
		"TERMSPRITE_RENDER_CURSOR_VISIBLE=yes",
		"TERMSPRITE_RENDER_COLOR_MODE=truecolor",
		"TERMSPRITE_LOG_LEVEL=debug",
		"HOME=/root",
	)

	config, err := l.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tests := []struct {
		path string
		want any
	}{
		{"render.fps", int64(24)},
		{"render.cursor_visible", true},
		{"render.color_mode", "truecolor"},
		{"logging.level", "debug"},
	}
	for _, tt := range tests {
		if val, ok := GetByPath(config, tt.path); !ok || val != tt.want {
			t.Errorf("%s = %v (%T), want %v", tt.path, val, val, tt.want)
		}
	}
	if _, ok := config["home"]; ok {
		t.Error("unprefixed variables should be ignored")
	}
}

func TestEnvLoader_ShortNames(t *testing.T) {
	l := newTestEnvLoader("TERMSPRITE_FPS=15", "TERMSPRITE_MANIFEST=m.yaml", "TERMSPRITE_SCRIPT=demo.lua")
	config, _ := l.Load()

	if val, _ := GetByPath(config, "render.fps"); val != int64(15) {
		t.Errorf("render.fps = %v, want 15", val)
	}
	if val, _ := GetByPath(config, "assets.manifest"); val != "m.yaml" {
		t.Errorf("assets.manifest = %v, want m.yaml", val)
	}
	if val, _ := GetByPath(config, "scene.script"); val != "demo.lua" {
		t.Errorf("scene.script = %v, want demo.lua", val)
	}
}

func TestEnvLoader_AddMapping(t *testing.T) {
	l := newTestEnvLoader("TERMSPRITE_COLORS=256")
	l.AddMapping("TERMSPRITE_COLORS", "render.color_mode")
	config, _ := l.Load()

	if val, _ := GetByPath(config, "render.color_mode"); val != int64(256) {
		t.Errorf("render.color_mode = %v (%T), want 256", val, val)
	}
}

func TestEnvLoader_envToPath(t *testing.T) {
	l := NewEnvLoader(EnvPrefix)
	tests := []struct {
		env  string
		want string
	}{
		{"TERMSPRITE_RENDER_FPS", "render.fps"},
		{"TERMSPRITE_ASSETS_WATCH", "assets.watch"},
		{"TERMSPRITE_RENDER_TRANSPARENT_RUNE", "render.transparent_rune"},
		{"TERMSPRITE_DEBUG", ""},
		{"TERMSPRITE__X", ""},
	}
	for _, tt := range tests {
		if got := l.envToPath(tt.env); got != tt.want {
			t.Errorf("envToPath(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"", ""},
		{"true", true},
		{"OFF", false},
		{"42", int64(42)},
		{"1.5", 1.5},
		{"auto", "auto"},
		{"1.2.3", "1.2.3"},
	}
	for _, tt := range tests {
		if got := parseValue(tt.in); got != tt.want {
			t.Errorf("parseValue(%q) = %v (%T), want %v", tt.in, got, got, tt.want)
		}
	}
}

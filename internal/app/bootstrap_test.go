package app

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/termsprite/internal/asset"
	"github.com/dshills/termsprite/internal/config"
	"github.com/dshills/termsprite/internal/render/backend"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testConfig(manifest string) *config.Config {
	cfg := config.Default()
	cfg.Assets.Manifest = manifest
	return cfg
}

func TestLoadAssets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ship.txt"), "<=>\n")
	writeFile(t, filepath.Join(dir, "ship.yaml"), "palette: {r: {fg: red}}\nrows: [\"rrr\"]\n")
	writeFile(t, filepath.Join(dir, "manifest.yaml"), `
sprites:
  ship: ship.txt
  ghost: ghost.txt
styles:
  ship: ship.yaml
`)

	a, err := LoadAssets(testConfig(filepath.Join(dir, "manifest.yaml")))
	if a == nil {
		t.Fatalf("LoadAssets returned no assets: %v", err)
	}

	var list *ErrorList
	if !errors.As(err, &list) || list.Len() != 1 {
		t.Fatalf("err = %v, want one collected error", err)
	}
	var le *asset.LoadError
	if !errors.As(list.Errors()[0], &le) || filepath.Base(le.Path) != "ghost.txt" {
		t.Errorf("collected error = %v, want ghost.txt load error", list.Errors()[0])
	}

	h, ok := a.Catalog.Sprite("ship")
	if !ok {
		t.Fatal("ship sprite not in catalog")
	}
	sp, ok := a.Store.Sprite(h)
	if !ok || sp.Width() != 3 {
		t.Errorf("ship sprite = %v", sp)
	}
	if _, ok := a.Catalog.Style("ship"); !ok {
		t.Error("ship style not in catalog")
	}
}

func TestLoadAssets_TransparentRune(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "a_b\n")
	writeFile(t, filepath.Join(dir, "manifest.yaml"), "sprites: {a: a.txt}\n")

	cfg := testConfig(filepath.Join(dir, "manifest.yaml"))
	cfg.Render.TransparentRune = "_"
	a, err := LoadAssets(cfg)
	if err != nil {
		t.Fatal(err)
	}
	h, _ := a.Catalog.Sprite("a")
	sp, _ := a.Store.Sprite(h)
	if !sp.At(1, 0).Transparent {
		t.Error("configured transparent rune was not applied")
	}

	writeFile(t, filepath.Join(dir, "manifest.yaml"), "transparent: \"a\"\nsprites: {a: a.txt}\n")
	a, err = LoadAssets(cfg)
	if err != nil {
		t.Fatal(err)
	}
	h, _ = a.Catalog.Sprite("a")
	sp, _ = a.Store.Sprite(h)
	if !sp.At(0, 0).Transparent || sp.At(1, 0).Transparent {
		t.Error("manifest transparent rune should override the config")
	}
}

func TestLoadAssets_MissingManifest(t *testing.T) {
	a, err := LoadAssets(testConfig(filepath.Join(t.TempDir(), "nope.yaml")))
	if a != nil {
		t.Error("expected nil assets")
	}
	var op *OperationError
	if !errors.As(err, &op) || op.Target != "manifest" {
		t.Errorf("err = %v, want manifest OperationError", err)
	}
}

func TestNewTerminal(t *testing.T) {
	var out bytes.Buffer

	cfg := config.Default()
	cfg.Render.ColorMode = "truecolor"
	term, err := NewTerminal(cfg, &out, nil)
	if err != nil {
		t.Fatal(err)
	}
	ansi, ok := term.(*backend.ANSI)
	if !ok {
		t.Fatalf("device = %T, want *backend.ANSI", term)
	}
	if ansi.ColorMode() != backend.ColorModeTrueColor {
		t.Errorf("ColorMode() = %v", ansi.ColorMode())
	}

	cfg.Render.Device = "vga"
	if _, err := NewTerminal(cfg, &out, nil); !errors.Is(err, ErrUnknownDevice) {
		t.Errorf("err = %v, want ErrUnknownDevice", err)
	}

	cfg.Render.Device = "ansi"
	cfg.Render.ColorMode = "cga"
	if _, err := NewTerminal(cfg, &out, nil); err == nil {
		t.Error("expected error for unknown color mode")
	}
}

func TestWatchAssets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "a\n")
	writeFile(t, filepath.Join(dir, "manifest.yaml"), "sprites: {a: a.txt}\n")

	cfg := testConfig(filepath.Join(dir, "manifest.yaml"))
	a, err := LoadAssets(cfg)
	if err != nil {
		t.Fatal(err)
	}
	w, err := WatchAssets(a, cfg)
	if err != nil {
		t.Fatal(err)
	}
	var _ ReloadSource = w
	if err := w.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

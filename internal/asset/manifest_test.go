package asset

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeManifest(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ship.txt"), "<=>\n")
	writeFile(t, filepath.Join(dir, "rock.txt"), "@@\n@@\n")
	writeFile(t, filepath.Join(dir, "ship.yaml"), "palette: {r: {fg: red}}\nrows: [\"rrr\"]\n")
	writeFile(t, filepath.Join(dir, "assets.yaml"), `
transparent: "~"
sprites:
  ship: ship.txt
  rock: rock.txt
  ghost: missing.txt
styles:
  ship: ship.yaml
`)
	return filepath.Join(dir, "assets.yaml")
}

func TestLoadManifest(t *testing.T) {
	m, err := ReadManifest(writeManifest(t))
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if m.TransparentRune() != '~' {
		t.Errorf("TransparentRune = %q, want '~'", m.TransparentRune())
	}

	s := NewStore(WithTransparentRune(m.TransparentRune()))
	cat, errs := s.LoadManifest(m)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error for the missing sprite, got %v", errs)
	}

	ship, ok := cat.Sprite("ship")
	if !ok {
		t.Fatal("ship sprite not in catalog")
	}
	if _, ok := s.Sprite(ship); !ok {
		t.Error("ship sprite not in store")
	}
	if _, ok := cat.Sprite("ghost"); ok {
		t.Error("failed entries should not be cataloged")
	}
	if _, ok := cat.Style("ship"); !ok {
		t.Error("ship style not in catalog")
	}

	path := m.Resolve("ship.txt")
	entries := cat.Files[path]
	if len(entries) != 1 || entries[0] != (Entry{Kind: KindSprite, Name: "ship"}) {
		t.Errorf("Files[%s] = %v", path, entries)
	}
}

func TestReadManifestRejectsLongTransparent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.yaml")
	writeFile(t, path, "transparent: \"ab\"\n")
	if _, err := ReadManifest(path); err == nil {
		t.Error("expected error for multi-character transparent rune")
	}
}

func TestWatcherReloadsChangedFile(t *testing.T) {
	manifestPath := writeManifest(t)
	m, err := ReadManifest(manifestPath)
	if err != nil {
		t.Fatal(err)
	}
	s := NewStore(WithTransparentRune(m.TransparentRune()))
	cat, _ := s.LoadManifest(m)
	old, _ := cat.Sprite("ship")

	w, err := NewWatcher(s, cat, WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	writeFile(t, m.Resolve("ship.txt"), "<==>\n")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case r := <-w.Reloads():
			if r.Entry.Name != "ship" {
				t.Fatalf("unexpected reload %+v", r)
			}
			if r.New == old {
				t.Fatal("changed content should produce a new handle")
			}
			sp, ok := s.Sprite(r.New)
			if !ok {
				t.Fatal("reloaded sprite should be in the store")
			}
			if sp.Width() != 4 {
				// Caught the file mid-write; the final content follows.
				continue
			}
			if _, ok := s.Sprite(old); !ok {
				t.Error("old sprite should remain until the host removes it")
			}
			return
		case err := <-w.Errors():
			t.Fatalf("reload error: %v", err)
		case <-deadline:
			t.Fatal("timed out waiting for reload")
		}
	}
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	m, err := ReadManifest(writeManifest(t))
	if err != nil {
		t.Fatal(err)
	}
	s := NewStore()
	cat, _ := s.LoadManifest(m)

	w, err := NewWatcher(s, cat)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

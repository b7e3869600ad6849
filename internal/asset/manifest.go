package asset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Manifest names the asset files a scene uses.
//
//	transparent: " "
//	sprites:
//	  ship: ship.txt
//	styles:
//	  ship: ship.yaml
type Manifest struct {
	Transparent string            `yaml:"transparent"`
	Sprites     map[string]string `yaml:"sprites"`
	Styles      map[string]string `yaml:"styles"`

	// Dir is the directory relative paths resolve against.
	Dir string `yaml:"-"`
}

// ReadManifest parses a manifest file.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if r := []rune(m.Transparent); len(r) > 1 {
		return nil, fmt.Errorf("manifest %s: transparent must be a single character", path)
	}
	m.Dir = filepath.Dir(path)
	return &m, nil
}

// TransparentRune returns the manifest's transparent rune or the default.
func (m *Manifest) TransparentRune() rune {
	if r := []rune(m.Transparent); len(r) == 1 {
		return r[0]
	}
	return DefaultTransparentRune
}

// Resolve returns the absolute path of a manifest entry.
func (m *Manifest) Resolve(file string) string {
	if !filepath.IsAbs(file) {
		file = filepath.Join(m.Dir, file)
	}
	if abs, err := filepath.Abs(file); err == nil {
		return abs
	}
	return filepath.Clean(file)
}

// Catalog maps logical asset names to loaded handles.
type Catalog struct {
	Sprites map[string]Handle
	Styles  map[string]Handle
	// Files maps an absolute file path to the names loaded from it.
	Files map[string][]Entry
}

// Entry names one manifest item.
type Entry struct {
	Kind Kind
	Name string
}

// Sprite returns the handle for a sprite name.
func (c *Catalog) Sprite(name string) (Handle, bool) {
	h, ok := c.Sprites[name]
	return h, ok
}

// Style returns the handle for a style map name.
func (c *Catalog) Style(name string) (Handle, bool) {
	h, ok := c.Styles[name]
	return h, ok
}

// Set records a handle under a name.
func (c *Catalog) Set(e Entry, h Handle) {
	switch e.Kind {
	case KindSprite:
		c.Sprites[e.Name] = h
	case KindStyleMap:
		c.Styles[e.Name] = h
	}
}

// Lookup returns the handle currently bound to an entry.
func (c *Catalog) Lookup(e Entry) (Handle, bool) {
	switch e.Kind {
	case KindSprite:
		return c.Sprite(e.Name)
	case KindStyleMap:
		return c.Style(e.Name)
	}
	return Handle{}, false
}

// LoadManifest loads every file a manifest names into the store. All load
// errors are collected; the catalog holds whatever succeeded.
func (s *Store) LoadManifest(m *Manifest) (*Catalog, []error) {
	cat := &Catalog{
		Sprites: make(map[string]Handle, len(m.Sprites)),
		Styles:  make(map[string]Handle, len(m.Styles)),
		Files:   make(map[string][]Entry),
	}

	var errs []error
	load := func(kind Kind, entries map[string]string) {
		names := make([]string, 0, len(entries))
		for name := range entries {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			path := m.Resolve(entries[name])
			data, err := os.ReadFile(path)
			if err != nil {
				errs = append(errs, &LoadError{Path: path, Kind: kind, Err: err})
				continue
			}
			h, err := s.Load(kind, data)
			if err != nil {
				if le, ok := err.(*LoadError); ok {
					le.Path = path
				}
				errs = append(errs, err)
				continue
			}
			e := Entry{Kind: kind, Name: name}
			cat.Set(e, h)
			cat.Files[path] = append(cat.Files[path], e)
		}
	}

	load(KindSprite, m.Sprites)
	load(KindStyleMap, m.Styles)
	return cat, errs
}

package asset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Lookup resolves handles to assets in O(1).
type Lookup interface {
	Sprite(h Handle) (*Sprite, bool)
	StyleMap(h Handle) (*StyleMap, bool)
}

// Store holds loaded assets keyed by handle.
// It is safe for concurrent use; stored assets are immutable.
type Store struct {
	mu        sync.RWMutex
	sprites   map[Handle]*Sprite
	styleMaps map[Handle]*StyleMap

	spriteLoader   *SpriteLoader
	styleMapLoader *StyleMapLoader
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithTransparentRune sets the rune sprite files use for transparent cells.
func WithTransparentRune(r rune) StoreOption {
	return func(s *Store) {
		s.spriteLoader = NewSpriteLoader(r)
	}
}

// NewStore creates an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		sprites:        make(map[Handle]*Sprite),
		styleMaps:      make(map[Handle]*StyleMap),
		spriteLoader:   NewSpriteLoader(DefaultTransparentRune),
		styleMapLoader: NewStyleMapLoader(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add stores an asset and returns its handle. Adding identical content
// twice is a no-op.
func (s *Store) Add(a Asset) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch v := a.(type) {
	case *Sprite:
		if _, ok := s.sprites[v.handle]; !ok {
			s.sprites[v.handle] = v
		}
		return v.handle
	case *StyleMap:
		if _, ok := s.styleMaps[v.handle]; !ok {
			s.styleMaps[v.handle] = v
		}
		return v.handle
	}
	return Handle{}
}

// Sprite returns the sprite for h.
func (s *Store) Sprite(h Handle) (*Sprite, bool) {
	if h.Kind != KindSprite {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sp, ok := s.sprites[h]
	return sp, ok
}

// StyleMap returns the style map for h.
func (s *Store) StyleMap(h Handle) (*StyleMap, bool) {
	if h.Kind != KindStyleMap {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.styleMaps[h]
	return m, ok
}

// Get returns the asset for h regardless of kind.
func (s *Store) Get(h Handle) (Asset, error) {
	switch h.Kind {
	case KindSprite:
		if sp, ok := s.Sprite(h); ok {
			return sp, nil
		}
	case KindStyleMap:
		if m, ok := s.StyleMap(h); ok {
			return m, nil
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrKindMismatch, h)
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, h)
}

// Remove drops an asset. Entities still referencing it are skipped at render time.
func (s *Store) Remove(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch h.Kind {
	case KindSprite:
		delete(s.sprites, h)
	case KindStyleMap:
		delete(s.styleMaps, h)
	}
}

// Len returns the number of stored assets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sprites) + len(s.styleMaps)
}

// Load parses data as the given kind and stores the result.
func (s *Store) Load(kind Kind, data []byte) (Handle, error) {
	var (
		a   Asset
		err error
	)
	switch kind {
	case KindSprite:
		a, err = s.spriteLoader.Parse(data)
	case KindStyleMap:
		a, err = s.styleMapLoader.Parse(data)
	default:
		return Handle{}, &LoadError{Kind: kind, Err: ErrUnknownFormat}
	}
	if err != nil {
		return Handle{}, &LoadError{Kind: kind, Err: err}
	}
	return s.Add(a), nil
}

// LoadFile loads an asset file, picking the kind from its extension.
func (s *Store) LoadFile(path string) (Handle, error) {
	kind := KindForPath(path)
	if kind == KindNone {
		return Handle{}, &LoadError{Path: path, Err: ErrUnknownFormat}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Handle{}, &LoadError{Path: path, Kind: kind, Err: err}
	}

	h, err := s.Load(kind, data)
	if err != nil {
		if le, ok := err.(*LoadError); ok {
			le.Path = path
		}
		return Handle{}, err
	}
	return h, nil
}

// KindForPath maps a file extension to an asset kind.
func KindForPath(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".sprite":
		return KindSprite
	case ".yaml", ".yml":
		return KindStyleMap
	default:
		return KindNone
	}
}

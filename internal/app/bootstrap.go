package app

import (
	"fmt"
	"io"
	"os"

	"github.com/dshills/termsprite/internal/asset"
	"github.com/dshills/termsprite/internal/config"
	"github.com/dshills/termsprite/internal/render/backend"
)

// Assets is the asset state of one run.
type Assets struct {
	Manifest *asset.Manifest
	Store    *asset.Store
	Catalog  *asset.Catalog
}

// LoadAssets reads the configured manifest and loads every file it names.
// A missing or malformed manifest is fatal and returns nil Assets. Failures
// of individual files are collected into an *ErrorList; the returned catalog
// holds everything that did load.
func LoadAssets(cfg *config.Config) (*Assets, error) {
	m, err := asset.ReadManifest(cfg.Assets.Manifest)
	if err != nil {
		return nil, NewOperationError("load", "manifest", err)
	}

	transparent := cfg.TransparentRune()
	if m.Transparent != "" {
		transparent = m.TransparentRune()
	}
	store := asset.NewStore(asset.WithTransparentRune(transparent))

	cat, errs := store.LoadManifest(m)
	var list ErrorList
	for _, err := range errs {
		list.Add(err)
	}
	return &Assets{Manifest: m, Store: store, Catalog: cat}, list.AsError()
}

// WatchAssets starts hot reloading the catalog's files.
func WatchAssets(a *Assets, cfg *config.Config) (*asset.Watcher, error) {
	w, err := asset.NewWatcher(a.Store, a.Catalog, asset.WithDebounce(cfg.DebounceDuration()))
	if err != nil {
		return nil, &InitError{Component: "asset watcher", Err: err}
	}
	return w, nil
}

// NewTerminal builds the configured output device. The ANSI device writes
// to out and reads keys from in.
func NewTerminal(cfg *config.Config, out io.Writer, in io.Reader) (backend.Terminal, error) {
	switch cfg.Render.Device {
	case "", "ansi":
		mode, err := backend.ParseColorMode(cfg.Render.ColorMode)
		if err != nil {
			return nil, err
		}
		return backend.NewANSI(out, backend.WithColorMode(mode), backend.WithInput(in)), nil
	case "tcell":
		t, err := backend.NewTcell()
		if err != nil {
			return nil, &InitError{Component: "tcell", Err: err}
		}
		return t, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDevice, cfg.Render.Device)
	}
}

// NewStdTerminal builds the configured device on the process's stdio.
func NewStdTerminal(cfg *config.Config) (backend.Terminal, error) {
	return NewTerminal(cfg, os.Stdout, os.Stdin)
}

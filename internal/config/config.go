package config

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/termsprite/internal/config/loader"
)

// DefaultPath is the configuration file read when none is given.
const DefaultPath = "termsprite.toml"

// Config is the resolved configuration.
type Config struct {
	Render  RenderConfig  `toml:"render"`
	Assets  AssetsConfig  `toml:"assets"`
	Logging LoggingConfig `toml:"logging"`
	Scene   SceneConfig   `toml:"scene"`
}

// RenderConfig controls the renderer and output device.
type RenderConfig struct {
	FPS             int    `toml:"fps"`
	CursorVisible   bool   `toml:"cursor_visible"`
	ColorMode       string `toml:"color_mode"`
	TransparentRune string `toml:"transparent_rune"`
	Device          string `toml:"device"`
}

// AssetsConfig locates sprite and style assets.
type AssetsConfig struct {
	Manifest string `toml:"manifest"`
	Watch    bool   `toml:"watch"`
	Debounce string `toml:"debounce"`
}

// LoggingConfig controls the application logger.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// SceneConfig selects the scene driver.
type SceneConfig struct {
	Script string `toml:"script"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			FPS:             30,
			ColorMode:       "auto",
			TransparentRune: " ",
			Device:          "ansi",
		},
		Assets: AssetsConfig{
			Manifest: "assets/manifest.yaml",
			Debounce: "50ms",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// stringPaths are settings that stay strings even when an environment
// value looks like a number, such as TERMSPRITE_RENDER_COLOR_MODE=256.
var stringPaths = []string{
	"render.color_mode",
	"render.transparent_rune",
	"render.device",
	"assets.manifest",
	"assets.debounce",
	"logging.level",
	"logging.file",
	"scene.script",
}

// Load resolves defaults, the TOML file at path and the environment. An
// empty path reads DefaultPath; a missing file is not an error.
func Load(path string) (*Config, error) {
	return LoadFrom(loader.NewTOMLLoader(pathOrDefault(path)), loader.NewEnvLoader(loader.EnvPrefix))
}

func pathOrDefault(path string) string {
	if path == "" {
		return DefaultPath
	}
	return path
}

// LoadFrom merges the given sources over the defaults, in order, and
// validates the result.
func LoadFrom(sources ...loader.Loader) (*Config, error) {
	cfg := Default()
	base, err := toMap(cfg)
	if err != nil {
		return nil, err
	}

	for _, src := range sources {
		layer, err := src.Load()
		if err != nil {
			return nil, err
		}
		base = loader.DeepMerge(base, layer)
	}
	for _, p := range stringPaths {
		if v, ok := loader.GetByPath(base, p); ok {
			if _, isString := v.(string); !isString {
				setPath(base, p, fmt.Sprint(v))
			}
		}
	}

	data, err := toml.Marshal(base)
	if err != nil {
		return nil, fmt.Errorf("encoding merged config: %w", err)
	}
	dec := toml.NewDecoder(strings.NewReader(string(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, &ParseError{Path: "<merged>", Message: err.Error(), Err: err}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func toMap(cfg *Config) (map[string]any, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding defaults: %w", err)
	}
	return loader.Parse("<defaults>", data)
}

func setPath(data map[string]any, path, value string) {
	section, key, _ := strings.Cut(path, ".")
	if m, ok := data[section].(map[string]any); ok {
		m[key] = value
	}
}

// Validate checks every setting.
func (c *Config) Validate() error {
	if c.Render.FPS < 1 || c.Render.FPS > 240 {
		return &ValidationError{Path: "render.fps", Message: "must be between 1 and 240", Value: c.Render.FPS}
	}
	switch strings.ToLower(c.Render.ColorMode) {
	case "auto", "256", "truecolor", "24bit":
	default:
		return &ValidationError{Path: "render.color_mode", Message: "must be auto, 256 or truecolor", Value: c.Render.ColorMode}
	}
	if utf8.RuneCountInString(c.Render.TransparentRune) != 1 {
		return &ValidationError{Path: "render.transparent_rune", Message: "must be a single character", Value: c.Render.TransparentRune}
	}
	switch c.Render.Device {
	case "ansi", "tcell":
	default:
		return &ValidationError{Path: "render.device", Message: "must be ansi or tcell", Value: c.Render.Device}
	}
	if d, err := time.ParseDuration(c.Assets.Debounce); err != nil || d < 0 {
		return &ValidationError{Path: "assets.debounce", Message: "must be a non-negative duration", Value: c.Assets.Debounce}
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "logging.level", Message: "must be debug, info, warn or error", Value: c.Logging.Level}
	}
	return nil
}

// FrameInterval is the time between ticks.
func (c *Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.Render.FPS)
}

// TransparentRune returns the configured transparent sprite rune.
func (c *Config) TransparentRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Render.TransparentRune)
	return r
}

// DebounceDuration returns the asset reload debounce interval.
func (c *Config) DebounceDuration() time.Duration {
	d, _ := time.ParseDuration(c.Assets.Debounce)
	return d
}

// Package config provides configuration for termsprite.
//
// Settings are resolved from three layers, later layers winning:
//
//  1. Built-in defaults (Default)
//  2. A TOML file, termsprite.toml by default
//  3. TERMSPRITE_* environment variables
//
// Example file:
//
//	[render]
//	fps = 30
//	cursor_visible = false
//	color_mode = "auto"        # auto, 256, truecolor
//	transparent_rune = " "
//	device = "ansi"            # ansi, tcell
//
//	[assets]
//	manifest = "assets/manifest.yaml"
//	watch = true
//	debounce = "50ms"
//
//	[logging]
//	level = "info"
//	file = "termsprite.log"
//
//	[scene]
//	script = "scene.lua"
package config

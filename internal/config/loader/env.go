package loader

import (
	"os"
	"strconv"
	"strings"
)

// EnvPrefix is the prefix for environment overrides.
const EnvPrefix = "TERMSPRITE_"

// EnvLoader loads configuration from environment variables.
// TERMSPRITE_RENDER_CURSOR_VISIBLE maps to render.cursor_visible: the first
// word names the section and the rest the key.
type EnvLoader struct {
	prefix  string
	mapping map[string]string // Env var -> config path
	environ func() []string
}

// NewEnvLoader creates a new environment variable loader.
// The prefix should include the trailing underscore.
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: defaultEnvMapping(prefix),
		environ: os.Environ,
	}
}

// defaultEnvMapping covers short names that don't follow the section_key form.
func defaultEnvMapping(prefix string) map[string]string {
	return map[string]string{
		prefix + "LOG_LEVEL": "logging.level",
		prefix + "LOG_FILE":  "logging.file",
		prefix + "FPS":       "render.fps",
		prefix + "MANIFEST":  "assets.manifest",
		prefix + "SCRIPT":    "scene.script",
	}
}

// AddMapping adds a custom environment variable mapping.
func (l *EnvLoader) AddMapping(envVar, configPath string) {
	l.mapping[envVar] = configPath
}

// Load reads prefixed environment variables into a configuration map.
// Empty values are kept as empty strings.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)
	for _, env := range l.environ() {
		name, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}
		path, mapped := l.mapping[name]
		if !mapped {
			if path = l.envToPath(name); path == "" {
				continue
			}
		}
		setByPath(config, path, parseValue(value))
	}
	return config, nil
}

// envToPath converts TERMSPRITE_RENDER_COLOR_MODE to render.color_mode.
// Names without a key part are ignored.
func (l *EnvLoader) envToPath(env string) string {
	name := strings.ToLower(strings.TrimPrefix(env, l.prefix))
	section, key, ok := strings.Cut(name, "_")
	if !ok || section == "" || key == "" {
		return ""
	}
	return section + "." + key
}

// parseValue attempts to parse the string value into an appropriate type.
func parseValue(s string) any {
	if s == "" {
		return s
	}
	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return s
}

func splitPath(path string) []string {
	return strings.Split(path, ".")
}

// setByPath sets a value in a nested map using a dot-separated path.
func setByPath(data map[string]any, path string, value any) {
	parts := splitPath(path)
	current := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

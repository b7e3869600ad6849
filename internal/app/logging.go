package app

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dshills/termsprite/internal/config"
)

// LogLevel is the severity of a log line.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel parses a level name case-insensitively. Unknown names map to
// LogLevelInfo.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Logger writes leveled lines with a fixed prefix and key=value fields.
// Loggers derived with WithField share the parent's output and lock.
type Logger struct {
	mu       *sync.Mutex
	level    LogLevel
	output   io.Writer
	prefix   string
	fields   map[string]any
	disabled bool
}

// LoggerConfig configures a Logger.
type LoggerConfig struct {
	Level LogLevel
	// Output defaults to os.Stderr.
	Output io.Writer
	Prefix string
}

// DefaultLoggerConfig logs INFO and above to stderr.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:  LogLevelInfo,
		Output: os.Stderr,
		Prefix: "termsprite",
	}
}

// NewLogger creates a logger.
func NewLogger(cfg LoggerConfig) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	return &Logger{
		mu:     &sync.Mutex{},
		level:  cfg.Level,
		output: cfg.Output,
		prefix: cfg.Prefix,
		fields: make(map[string]any),
	}
}

// NewLoggerFromConfig builds the logger described by the [logging] section.
// When a file is configured it is opened for appending and returned as the
// closer; otherwise the closer is nil and lines go to fallback.
func NewLoggerFromConfig(cfg config.LoggingConfig, fallback io.Writer) (*Logger, io.Closer, error) {
	lc := DefaultLoggerConfig()
	lc.Level = ParseLogLevel(cfg.Level)
	lc.Output = fallback

	if cfg.File == "" {
		return NewLogger(lc), nil, nil
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	lc.Output = f
	return NewLogger(lc), f, nil
}

func (l *Logger) derive(extra map[string]any) *Logger {
	fields := make(map[string]any, len(l.fields)+len(extra))
	for k, v := range l.fields {
		fields[k] = v
	}
	for k, v := range extra {
		fields[k] = v
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return &Logger{
		mu:       l.mu,
		level:    l.level,
		output:   l.output,
		prefix:   l.prefix,
		fields:   fields,
		disabled: l.disabled,
	}
}

// WithField returns a logger that appends key=value to every line.
func (l *Logger) WithField(key string, value any) *Logger {
	return l.derive(map[string]any{key: value})
}

// WithFields returns a logger with all of fields added.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	return l.derive(fields)
}

// WithComponent sets the component field.
func (l *Logger) WithComponent(component string) *Logger {
	return l.WithField("component", component)
}

// SetLevel sets the minimum level written.
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetOutput redirects the logger.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
}

// Disable drops every line until Enable is called.
func (l *Logger) Disable() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.disabled = true
}

// Enable undoes Disable.
func (l *Logger) Enable() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.disabled = false
}

func (l *Logger) Debug(msg string, args ...any) { l.log(LogLevelDebug, msg, args...) }

func (l *Logger) Info(msg string, args ...any) { l.log(LogLevelInfo, msg, args...) }

func (l *Logger) Warn(msg string, args ...any) { l.log(LogLevelWarn, msg, args...) }

func (l *Logger) Error(msg string, args ...any) { l.log(LogLevelError, msg, args...) }

func (l *Logger) log(level LogLevel, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.disabled || level < l.level || l.output == nil {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	var b strings.Builder
	b.WriteString(time.Now().Format("2006-01-02T15:04:05.000"))
	b.WriteString(" [")
	b.WriteString(level.String())
	b.WriteString("] ")
	if l.prefix != "" {
		b.WriteString(l.prefix)
		b.WriteString(": ")
	}
	b.WriteString(msg)

	if len(l.fields) > 0 {
		keys := make([]string, 0, len(l.fields))
		for k := range l.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, l.fields[k])
		}
		b.WriteString("}")
	}
	b.WriteByte('\n')

	_, _ = io.WriteString(l.output, b.String())
}

// NullLogger discards everything.
var NullLogger = &Logger{mu: &sync.Mutex{}, disabled: true}

var (
	appLogger     *Logger
	appLoggerOnce sync.Once
)

// GetLogger returns the process-wide logger, creating a default one on
// first use.
func GetLogger() *Logger {
	appLoggerOnce.Do(func() {
		if appLogger == nil {
			appLogger = NewLogger(DefaultLoggerConfig())
		}
	})
	return appLogger
}

// SetLogger replaces the process-wide logger. Call it before GetLogger.
func SetLogger(l *Logger) {
	appLogger = l
}

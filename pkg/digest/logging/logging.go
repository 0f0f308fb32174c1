// Package logging provides component loggers for digest. The CLI and library
// callers share one global configuration.
//
// Basic usage:
//
//	if err := logging.Init(logging.Config{Level: "info", ConsoleLevel: "warn"}); err != nil {
//	    return err
//	}
//	defer logging.Close()
//
//	logger := logging.Get("scanner")
//	logger.Info("scan started", "path", "/home/user/repo")
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// Level represents a logging level.
type Level int

// Log levels from least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

func (l Level) toCharmLevel() log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelWarn:
		return log.WarnLevel
	case LevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ErrInvalidLevel is returned when an invalid log level string is provided.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses a string into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}
}

// Config configures the logging system.
type Config struct {
	// Level is the default file log level (debug, info, warn, error).
	Level string

	// Path is the log file path. Empty disables file output.
	Path string

	// ConsoleLevel enables stderr output at the given level.
	// Empty disables console output.
	ConsoleLevel string

	// Components maps component names to level overrides.
	Components map[string]string

	// Console overrides the console writer. Defaults to os.Stderr.
	Console io.Writer

	// Rotation controls log file rotation. The zero value selects a
	// DefaultMaxLogSize threshold and keeps every rotated file.
	Rotation RotationConfig
}

// Logger wraps charmbracelet/log with a component prefix. It can write to a
// file and to the console with different levels and timestamp formats.
type Logger struct {
	file      *log.Logger
	console   *log.Logger
	component string
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.file.Debug(msg, args...)
	if l.console != nil {
		l.console.Debug(msg, args...)
	}
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...interface{}) {
	l.file.Info(msg, args...)
	if l.console != nil {
		l.console.Info(msg, args...)
	}
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.file.Warn(msg, args...)
	if l.console != nil {
		l.console.Warn(msg, args...)
	}
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...interface{}) {
	l.file.Error(msg, args...)
	if l.console != nil {
		l.console.Error(msg, args...)
	}
}

// With returns a new logger carrying additional key/value context.
func (l *Logger) With(args ...interface{}) *Logger {
	n := &Logger{file: l.file.With(args...), component: l.component}
	if l.console != nil {
		n.console = l.console.With(args...)
	}
	return n
}

// Component returns the component name.
func (l *Logger) Component() string {
	return l.component
}

type state struct {
	mu          sync.RWMutex
	initialized bool
	file        *RotatingWriter
	level       Level
	console     io.Writer
	consoleLvl  Level
	components  map[string]Level
	loggers     map[string]*Logger
}

var globalState = &state{
	loggers:    make(map[string]*Logger),
	components: make(map[string]Level),
}

// Init configures the logging system. Before Init is called every logger
// writes to io.Discard. Calling Init again replaces the configuration and
// rebuilds loggers already handed out by Get.
func Init(cfg Config) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}

	components := make(map[string]Level, len(cfg.Components))
	for comp, lvl := range cfg.Components {
		parsed, err := ParseLevel(lvl)
		if err != nil {
			return fmt.Errorf("parsing level for component %s: %w", comp, err)
		}
		components[comp] = parsed
	}

	var console io.Writer
	var consoleLvl Level
	if cfg.ConsoleLevel != "" {
		consoleLvl, err = ParseLevel(cfg.ConsoleLevel)
		if err != nil {
			return fmt.Errorf("parsing console level: %w", err)
		}
		console = cfg.Console
		if console == nil {
			console = os.Stderr
		}
	}

	var file *RotatingWriter
	if cfg.Path != "" {
		file, err = NewRotatingWriter(cfg.Path, cfg.Rotation)
		if err != nil {
			return err
		}
	}

	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	if globalState.file != nil {
		_ = globalState.file.Close()
	}
	globalState.file = file
	globalState.level = level
	globalState.components = components
	globalState.console = console
	globalState.consoleLvl = consoleLvl
	globalState.initialized = true

	for component := range globalState.loggers {
		*globalState.loggers[component] = *createLogger(component)
	}
	return nil
}

// Get returns the logger for a component. A component level override takes
// precedence over the default level.
func Get(component string) *Logger {
	globalState.mu.RLock()
	if logger, ok := globalState.loggers[component]; ok {
		globalState.mu.RUnlock()
		return logger
	}
	globalState.mu.RUnlock()

	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	if logger, ok := globalState.loggers[component]; ok {
		return logger
	}
	logger := createLogger(component)
	globalState.loggers[component] = logger
	return logger
}

// createLogger must be called with globalState.mu held.
func createLogger(component string) *Logger {
	level := globalState.level
	if compLevel, ok := globalState.components[component]; ok {
		level = compLevel
	}

	var out io.Writer = io.Discard
	if globalState.initialized && globalState.file != nil {
		out = globalState.file
	}

	logger := &Logger{
		file: log.NewWithOptions(out, log.Options{
			Level:           level.toCharmLevel(),
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          component,
		}),
		component: component,
	}

	if globalState.initialized && globalState.console != nil {
		logger.console = log.NewWithOptions(globalState.console, log.Options{
			Level:           globalState.consoleLvl.toCharmLevel(),
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			Prefix:          component,
		})
	}
	return logger
}

// Close closes the log file and returns all loggers to the silent state.
func Close() error {
	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	if !globalState.initialized {
		return nil
	}

	var err error
	if globalState.file != nil {
		if cerr := globalState.file.Close(); cerr != nil {
			err = fmt.Errorf("closing log file: %w", cerr)
		}
		globalState.file = nil
	}
	globalState.initialized = false
	globalState.console = nil
	globalState.components = make(map[string]Level)

	for component := range globalState.loggers {
		*globalState.loggers[component] = *createLogger(component)
	}
	return err
}

// DefaultLogPath returns $XDG_STATE_HOME/digest/digest.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "digest", "digest.log")
}

// DefaultConfig returns a configuration that logs info to the default file
// and warnings to the console.
func DefaultConfig() Config {
	return Config{
		Level:        "info",
		Path:         DefaultLogPath(),
		ConsoleLevel: "warn",
		Rotation:     DefaultRotationConfig(),
	}
}

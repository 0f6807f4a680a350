package logger

import corelogger "github.com/kilianp07/freshalloc/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger = corelogger.Nop

// Options select the output format and minimum level.
type Options struct {
	// Level is a zerolog level name ("debug", "info", ...). Empty means info.
	Level string
	// Format is "console" or "json". Empty defers to APP_ENV: "dev" selects
	// console output.
	Format string
}

// New returns a Logger for the given component using default options.
func New(component string) Logger {
	return NewZerologLogger(component, Options{})
}

// NewWithOptions returns a Logger for the given component.
func NewWithOptions(component string, opts Options) Logger {
	return NewZerologLogger(component, opts)
}

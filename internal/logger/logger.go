// Package logger wraps zap construction so every component shares one
// structured logger whose level can be set from configuration.
package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// Logger holds the process-wide zap logger.
type Logger struct {
	// Log is a no-op logger until Init succeeds.
	Log   *zap.Logger
	level zap.AtomicLevel
}

// New returns a Logger backed by a no-op zap logger.
func New() *Logger {
	return &Logger{
		Log:   zap.NewNop(),
		level: zap.NewAtomicLevel(),
	}
}

// Init builds a production logger at the given level ("debug", "info",
// "warn", "error"; case-insensitive).
func (l *Logger) Init(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}
	l.level = lvl

	cfg := zap.NewProductionConfig()
	cfg.Level = l.level
	zl, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	l.Log = zl
	return nil
}

// SetLevel changes the level of an initialized logger at runtime.
func (l *Logger) SetLevel(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}
	l.level.SetLevel(lvl.Level())
	return nil
}

// Enabled reports whether entries at level would be written.
func (l *Logger) Enabled(level string) bool {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return false
	}
	return l.level.Enabled(lvl.Level())
}

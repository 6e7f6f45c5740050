// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     logging
// Description: Structured logging for dikta components
// Author:      The dikta Authors
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents log severity
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the level
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

// ParseLevel converts a string level to a Level, defaulting to info
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Format is the output format of a logger
type Format int

const (
	// FormatText writes human-readable lines
	FormatText Format = iota

	// FormatJSON writes one JSON object per line
	FormatJSON
)

// Fields holds structured key-value pairs attached to a log entry
type Fields map[string]interface{}

// Config holds logger configuration
type Config struct {
	// Name identifies the component emitting logs
	Name string

	// Level is the minimum level that is written
	Level Level

	// Format selects text or JSON output
	Format Format

	// Output is the destination writer (default: stdout)
	Output io.Writer
}

// Logger is a leveled, structured logger
type Logger struct {
	mu     sync.Mutex
	name   string
	level  Level
	format Format
	output io.Writer
	fields Fields
}

// New creates a text logger for the named component at info level
func New(name string) *Logger {
	return NewWithConfig(Config{Name: name, Level: LevelInfo, Format: FormatText})
}

// NewWithConfig creates a logger with the given configuration
func NewWithConfig(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	return &Logger{
		name:   cfg.Name,
		level:  cfg.Level,
		format: cfg.Format,
		output: out,
		fields: make(Fields),
	}
}

// WithLevel returns a copy of the logger with the given minimum level
func (l *Logger) WithLevel(level Level) *Logger {
	clone := l.clone()
	clone.level = level
	return clone
}

// WithOutput returns a copy of the logger writing to the given destination
func (l *Logger) WithOutput(out io.Writer) *Logger {
	clone := l.clone()
	clone.output = out
	return clone
}

// WithField returns a copy of the logger with a persistent field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	clone := l.clone()
	clone.fields[key] = value
	return clone
}

// Name returns the component name of the logger
func (l *Logger) Name() string {
	return l.name
}

// Debug logs a debug message with optional key-value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.log(LevelDebug, msg, keysAndValues...)
}

// Info logs an info message with optional key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.log(LevelInfo, msg, keysAndValues...)
}

// Warn logs a warning message with optional key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.log(LevelWarn, msg, keysAndValues...)
}

// Error logs an error message with optional key-value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.log(LevelError, msg, keysAndValues...)
}

func (l *Logger) clone() *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	fields := make(Fields, len(l.fields))
	for k, v := range l.fields {
		fields[k] = v
	}
	return &Logger{
		name:   l.name,
		level:  l.level,
		format: l.format,
		output: l.output,
		fields: fields,
	}
}

func (l *Logger) log(level Level, msg string, keysAndValues ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	fields := make(Fields, len(l.fields)+len(keysAndValues)/2)
	for k, v := range l.fields {
		fields[k] = v
	}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}

	now := time.Now()

	var line string
	if l.format == FormatJSON {
		entry := map[string]interface{}{
			"time":    now.Format(time.RFC3339Nano),
			"level":   level.String(),
			"logger":  l.name,
			"message": msg,
		}
		for k, v := range fields {
			if err, ok := v.(error); ok {
				entry[k] = err.Error()
				continue
			}
			entry[k] = v
		}
		data, err := json.Marshal(entry)
		if err != nil {
			// Fall back to a plain line when a field is not serializable
			line = fmt.Sprintf("%s %-5s [%s] %s", now.Format(time.RFC3339), level.String(), l.name, msg)
		} else {
			line = string(data)
		}
	} else {
		var sb strings.Builder
		fmt.Fprintf(&sb, "%s %-5s [%s] %s", now.Format("15:04:05.000"), level.String(), l.name, msg)

		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, " %s=%v", k, fields[k])
		}
		line = sb.String()
	}

	fmt.Fprintln(l.output, line)
}

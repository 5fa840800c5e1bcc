// Package logutil writes leveled, structured JSON log lines.
package logutil

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	default:
		return "error"
	}
}

// ParseLevel maps a level name to a Level. Unknown names yield LevelInfo.
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Fields carries structured context for a log entry.
type Fields map[string]interface{}

// Logger emits JSON entries at or above its minimum level.
type Logger struct {
	mu     sync.Mutex
	out    *log.Logger
	min    Level
	fields Fields
	now    func() time.Time
}

// New returns a Logger writing to w.
func New(w io.Writer, min Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{
		out: log.New(w, "", 0),
		min: min,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return New(io.Discard, LevelError+1)
}

// With returns a child logger that adds fields to every entry.
func (l *Logger) With(fields Fields) *Logger {
	if l == nil {
		return nil
	}
	merged := Fields{}
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{out: l.out, min: l.min, fields: merged, now: l.now}
}

// SetLevel changes the minimum level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	l.min = level
	l.mu.Unlock()
}

// Enabled reports whether entries at level are written.
func (l *Logger) Enabled(level Level) bool {
	if l == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return level >= l.min
}

func (l *Logger) Debug(msg string, fields Fields) { l.write(LevelDebug, msg, fields) }
func (l *Logger) Info(msg string, fields Fields)  { l.write(LevelInfo, msg, fields) }
func (l *Logger) Warn(msg string, fields Fields)  { l.write(LevelWarn, msg, fields) }

// Error logs msg with the error string under "error".
func (l *Logger) Error(msg string, err error, fields Fields) {
	if err != nil {
		copied := Fields{"error": err.Error()}
		for k, v := range fields {
			copied[k] = v
		}
		fields = copied
	}
	l.write(LevelError, msg, fields)
}

// Printf satisfies the small logger interfaces used by gin and the event bus.
func (l *Logger) Printf(format string, args ...interface{}) {
	l.write(LevelInfo, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) write(level Level, msg string, fields Fields) {
	if !l.Enabled(level) {
		return
	}
	entry := map[string]interface{}{
		"level":     level.String(),
		"message":   msg,
		"timestamp": l.now().Format(time.RFC3339Nano),
	}
	for k, v := range l.fields {
		entry[k] = v
	}
	for k, v := range fields {
		entry[k] = v
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		l.out.Printf("%s: %+v", msg, fields)
		return
	}
	l.out.Printf("%s", payload)
}

var std = New(os.Stderr, LevelInfo)

// Default returns the process-wide logger.
func Default() *Logger { return std }

// SetDefault replaces the process-wide logger.
func SetDefault(l *Logger) {
	if l != nil {
		std = l
	}
}

// Info logs a structured info message on the default logger.
func Info(msg string, fields map[string]interface{}) {
	std.Info(msg, fields)
}

// Warn logs a structured warning on the default logger.
func Warn(msg string, fields map[string]interface{}) {
	std.Warn(msg, fields)
}

// Error logs a structured error message including the error string.
func Error(msg string, err error, fields map[string]interface{}) {
	std.Error(msg, err, fields)
}

// Package logging provides leveled, structured logging with text and
// JSON output. A process-wide logger is initialized once from
// configuration; components either receive it directly or derive child
// loggers carrying bound fields.
package logging

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/askmongo/askmongo/internal/config"
)

// Level is a log severity. Messages below the logger's level are
// dropped.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < DebugLevel || l > ErrorLevel {
		return "UNKNOWN"
	}

	return levelNames[l]
}

func parseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// entry is the wire form of one log line.
type entry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
	Caller    string         `json:"caller,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Logger writes leveled log entries to a single destination. Derived
// loggers share the destination and level but carry their own bound
// fields, so a Logger value is safe to hand out across goroutines.
type Logger struct {
	level      Level
	format     string
	out        io.Writer
	file       *os.File
	mu         sync.Mutex
	fields     map[string]any
	withCaller bool
}

// NewLogger builds a logger from configuration. Output may be stdout,
// stderr, or file; file output creates the log directory as needed.
func NewLogger(cfg config.LoggingConfig) (*Logger, error) {
	logger := &Logger{
		level:      parseLevel(cfg.Level),
		format:     cfg.Format,
		fields:     map[string]any{},
		withCaller: strings.ToLower(cfg.Level) == "debug",
	}

	switch strings.ToLower(cfg.Output) {
	case "stdout":
		logger.out = os.Stdout
	case "stderr":
		logger.out = os.Stderr
	case "file":
		if cfg.File == "" {
			return nil, errors.New("log file path is required when output is 'file'")
		}

		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}

		logger.file = file
		logger.out = file
	default:
		return nil, fmt.Errorf("invalid log output: %s", cfg.Output)
	}

	return logger, nil
}

// NewFallbackLogger creates a plain stderr logger for use before or
// without configuration.
func NewFallbackLogger() *Logger {
	return &Logger{
		level:  InfoLevel,
		format: "text",
		out:    os.Stderr,
		fields: map[string]any{},
	}
}

// clone copies the logger with room for extra bound fields.
func (l *Logger) clone(extra int) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	child := &Logger{
		level:      l.level,
		format:     l.format,
		out:        l.out,
		file:       l.file,
		fields:     make(map[string]any, len(l.fields)+extra),
		withCaller: l.withCaller,
	}

	for k, v := range l.fields {
		child.fields[k] = v
	}

	return child
}

// WithField returns a derived logger that includes the given field on
// every entry.
func (l *Logger) WithField(key string, value any) *Logger {
	child := l.clone(1)
	child.fields[key] = value

	return child
}

// WithFields returns a derived logger that includes all given fields on
// every entry.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	child := l.clone(len(fields))
	for k, v := range fields {
		child.fields[k] = v
	}

	return child
}

// WithError returns a derived logger carrying the error as a field. A
// nil error returns the logger unchanged.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}

	return l.WithField("error", err.Error())
}

func (l *Logger) write(level Level, message string, err error) {
	if level < l.level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e := entry{
		Timestamp: time.Now().Format(time.RFC3339),
		Level:     level.String(),
		Message:   message,
		Fields:    l.fields,
	}

	if err != nil {
		e.Error = err.Error()
	}

	if l.withCaller {
		e.Caller = caller()
	}

	if l.format == "json" {
		data, _ := json.Marshal(e)
		fmt.Fprintln(l.out, string(data))

		return
	}

	fmt.Fprintln(l.out, textLine(e))
}

func textLine(e entry) string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s", e.Timestamp, e.Level)

	if e.Caller != "" {
		fmt.Fprintf(&b, " (%s)", e.Caller)
	}

	b.WriteByte(' ')
	b.WriteString(e.Message)

	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for k, v := range e.Fields {
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}

		fmt.Fprintf(&b, " {%s}", strings.Join(parts, " "))
	}

	if e.Error != "" {
		b.WriteString(" error=")
		b.WriteString(e.Error)
	}

	return b.String()
}

// caller reports the file:line of the logging call site. The skip
// count steps over write and the level method that called it.
func caller() string {
	_, file, line, ok := runtime.Caller(3)
	if !ok {
		return "unknown"
	}

	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}

func (l *Logger) Debug(message string) { l.write(DebugLevel, message, nil) }

func (l *Logger) Debugf(format string, args ...any) {
	l.write(DebugLevel, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Info(message string) { l.write(InfoLevel, message, nil) }

func (l *Logger) Infof(format string, args ...any) {
	l.write(InfoLevel, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Warn(message string) { l.write(WarnLevel, message, nil) }

func (l *Logger) Warnf(format string, args ...any) {
	l.write(WarnLevel, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Error(message string) { l.write(ErrorLevel, message, nil) }

func (l *Logger) Errorf(format string, args ...any) {
	l.write(ErrorLevel, fmt.Sprintf(format, args...), nil)
}

// ErrorWithErr logs an error message alongside its underlying error.
func (l *Logger) ErrorWithErr(message string, err error) {
	l.write(ErrorLevel, message, err)
}

// Close releases the log file when output goes to one.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return l.file.Close()
	}

	return nil
}

var (
	global     *Logger
	globalOnce sync.Once
)

// InitializeLogger sets up the process-wide logger. Only the first call
// takes effect.
func InitializeLogger(cfg config.LoggingConfig) error {
	var err error

	globalOnce.Do(func() {
		global, err = NewLogger(cfg)
	})

	return err
}

// SetupFallbackLogger installs a stderr logger as the process-wide
// logger, for use when configuration failed.
func SetupFallbackLogger() {
	global = NewFallbackLogger()
}

// GetLogger returns the process-wide logger, or nil before
// initialization.
func GetLogger() *Logger {
	return global
}

// The package-level helpers log through the process-wide logger and do
// nothing before it is initialized.

func Debugf(format string, args ...any) {
	if global != nil {
		global.Debugf(format, args...)
	}
}

func Infof(format string, args ...any) {
	if global != nil {
		global.Infof(format, args...)
	}
}

func Warnf(format string, args ...any) {
	if global != nil {
		global.Warnf(format, args...)
	}
}

func Errorf(format string, args ...any) {
	if global != nil {
		global.Errorf(format, args...)
	}
}

// Package logger provides leveled diagnostic logging for wpstack.
//
// Diagnostics go to stderr, separate from the user-facing progress that the
// output package prints to stdout, so --json output stays machine readable.
//
// # Log Levels
//
// Four levels are supported, in order of severity: Debug, Info, Warn, Error.
// By default only Warn and Error are shown; Init(true) (the --verbose flag)
// enables all of them.
//
// # Usage
//
//	logger.Debug("Loading settings from %s", path)
//	logger.InfoFields("Step finished", map[string]interface{}{
//	    "step":     "Nginx installation",
//	    "duration": d,
//	})
//
// Packages that want typed fields use the underlying zap logger directly:
//
//	logger.L().Debug("exec", zap.String("cmd", line))
//
// # Output Format
//
//	2026-02-03 10:30:45 [DEBUG] Loading settings
//	2026-02-03 10:30:45 [INFO] Step finished {"duration": "1.2s", "step": "Nginx installation"}
//
// Never pass passwords to the logger. ProvisioningConfig implements
// zapcore.ObjectMarshaler and redacts them when logged with zap.Object.
package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents a logging severity level.
type Level int

// Log levels from least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.WarnLevel
	}
}

// Logger wraps a zap logger whose level can change at runtime.
type Logger struct {
	mu    sync.Mutex
	level Level
	atom  zap.AtomicLevel
	zl    *zap.Logger
}

// Global logger instance.
var std = newLogger(os.Stderr, LevelWarn)

func newLogger(w io.Writer, level Level) *Logger {
	l := &Logger{
		level: level,
		atom:  zap.NewAtomicLevelAt(level.zapLevel()),
	}
	l.zl = build(w, l.atom)
	return l
}

func build(w io.Writer, atom zap.AtomicLevel) *zap.Logger {
	encCfg := zapcore.EncoderConfig{
		TimeKey:          "ts",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      bracketLevel,
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05"),
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(w)),
		atom,
	)
	return zap.New(core)
}

func bracketLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + l.CapitalString() + "]")
}

// Init initializes the global logger with the specified verbosity.
// When verbose is true, Debug and Info levels are enabled.
// When verbose is false, only Warn and Error are shown.
func Init(verbose bool) {
	if verbose {
		SetLevel(LevelDebug)
	} else {
		SetLevel(LevelWarn)
	}
}

// SetLevel sets the minimum log level for the global logger.
func SetLevel(level Level) {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.level = level
	std.atom.SetLevel(level.zapLevel())
}

// SetOutput sets the output destination for the global logger.
// A nil writer restores os.Stderr.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	std.mu.Lock()
	defer std.mu.Unlock()
	std.zl = build(w, std.atom)
}

// GetLevel returns the current log level.
func GetLevel() Level {
	std.mu.Lock()
	defer std.mu.Unlock()
	return std.level
}

// L returns the underlying zap logger.
func L() *zap.Logger {
	std.mu.Lock()
	defer std.mu.Unlock()
	return std.zl
}

// Sync flushes buffered log entries.
func Sync() {
	_ = L().Sync()
}

func logf(level Level, format string, args ...interface{}) {
	zl := L()
	if ce := zl.Check(level.zapLevel(), fmt.Sprintf(format, args...)); ce != nil {
		ce.Write()
	}
}

func logFields(level Level, msg string, fields map[string]interface{}) {
	zl := L()
	ce := zl.Check(level.zapLevel(), msg)
	if ce == nil {
		return
	}

	// Sort field keys for consistent output
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	zf := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		zf = append(zf, zap.Any(k, fields[k]))
	}
	ce.Write(zf...)
}

// Debug logs a debug message.
// Only shown when verbose mode is enabled.
func Debug(format string, args ...interface{}) {
	logf(LevelDebug, format, args...)
}

// Info logs an informational message.
// Only shown when verbose mode is enabled.
func Info(format string, args ...interface{}) {
	logf(LevelInfo, format, args...)
}

// Warn logs a warning message.
func Warn(format string, args ...interface{}) {
	logf(LevelWarn, format, args...)
}

// Error logs an error message.
func Error(format string, args ...interface{}) {
	logf(LevelError, format, args...)
}

// DebugFields logs a debug message with structured fields.
func DebugFields(msg string, fields map[string]interface{}) {
	logFields(LevelDebug, msg, fields)
}

// InfoFields logs an informational message with structured fields.
func InfoFields(msg string, fields map[string]interface{}) {
	logFields(LevelInfo, msg, fields)
}

// WarnFields logs a warning message with structured fields.
func WarnFields(msg string, fields map[string]interface{}) {
	logFields(LevelWarn, msg, fields)
}

// ErrorFields logs an error message with structured fields.
func ErrorFields(msg string, fields map[string]interface{}) {
	logFields(LevelError, msg, fields)
}

// LogError logs err with a context message. A nil err logs nothing.
func LogError(err error, msg string) {
	if err == nil {
		return
	}
	logf(LevelError, "%s: %v", msg, err)
}

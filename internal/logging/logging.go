package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	// LevelDebug is the debug log level
	LevelDebug LogLevel = iota
	// LevelInfo is the info log level
	LevelInfo
	// LevelWarn is the warning log level
	LevelWarn
	// LevelError is the error log level
	LevelError
)

var (
	mu           sync.RWMutex
	base         *zap.Logger
	sugar        *zap.SugaredLogger
	currentLevel LogLevel
	initialized  bool
)

// ParseLevel converts a level name into a LogLevel. The second return value
// is false for unknown names.
func ParseLevel(name string) (LogLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	default:
		return LevelInfo, false
	}
}

// levelFromEnv reads DEBUG and LOG_LEVEL.
func levelFromEnv() LogLevel {
	switch strings.ToLower(os.Getenv("DEBUG")) {
	case "1", "true", "yes", "on":
		return LevelDebug
	}
	level, _ := ParseLevel(os.Getenv("LOG_LEVEL"))
	return level
}

// Init builds the process logger. An empty level falls back to the
// environment; format is "console" or "json".
func Init(level, format string) error {
	lvl := levelFromEnv()
	if level != "" {
		parsed, ok := ParseLevel(level)
		if !ok {
			return fmt.Errorf("invalid log level: %s", level)
		}
		lvl = parsed
	}

	logger, err := build(lvl, format)
	if err != nil {
		return err
	}
	SetLogger(logger, lvl)
	return nil
}

func build(level LogLevel, format string) (*zap.Logger, error) {
	var config zap.Config
	if strings.EqualFold(format, "json") {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.Encoding = "console"
		config.Development = false
	}

	config.Level = zap.NewAtomicLevelAt(level.zapLevel())
	config.DisableStacktrace = true
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	logger, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// SetLogger replaces the process logger. Tests use it to attach an observer core.
func SetLogger(logger *zap.Logger, level LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	base = logger
	sugar = logger.Sugar()
	currentLevel = level
	initialized = true
}

func current() (*zap.SugaredLogger, LogLevel) {
	mu.RLock()
	if initialized {
		defer mu.RUnlock()
		return sugar, currentLevel
	}
	mu.RUnlock()

	lvl := levelFromEnv()
	logger, err := build(lvl, os.Getenv("LOG_FORMAT"))
	if err != nil {
		logger = zap.NewNop()
	}

	mu.Lock()
	defer mu.Unlock()
	if !initialized {
		base = logger
		sugar = logger.Sugar()
		currentLevel = lvl
		initialized = true
	}
	return sugar, currentLevel
}

// GetLevel returns the current log level
func GetLevel() LogLevel {
	_, level := current()
	return level
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return GetLevel() <= LevelDebug
}

// Debug logs a debug message (only if DEBUG=true or LOG_LEVEL=debug)
func Debug(format string, args ...interface{}) {
	if l, level := current(); level <= LevelDebug {
		l.Debugf(format, args...)
	}
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	if l, level := current(); level <= LevelInfo {
		l.Infof(format, args...)
	}
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	if l, level := current(); level <= LevelWarn {
		l.Warnf(format, args...)
	}
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	if l, level := current(); level <= LevelError {
		l.Errorf(format, args...)
	}
}

// Fatal logs an error message and exits
func Fatal(format string, args ...interface{}) {
	l, _ := current()
	l.Fatalf(format, args...)
}

// Sync flushes buffered entries. Safe to call before Init.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	if base == nil {
		return nil
	}
	return base.Sync()
}

// String returns the string representation of a log level
func (l LogLevel) String() string {
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
		return fmt.Sprintf("unknown(%d)", l)
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

package core

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// LogLevel orders diagnostics from the analyzer, loader and runtime.
// Messages below the configured level are dropped.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	LogLevelOff
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "OFF"}

func (l LogLevel) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLogLevel reads the value of --log-level or OHS_LOG_LEVEL.
// Unrecognised names fall back to INFO along with an error.
func ParseLogLevel(s string) (LogLevel, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	switch name {
	case "WARNING":
		return LogLevelWarn, nil
	case "NONE":
		return LogLevelOff, nil
	}
	for i, n := range levelNames {
		if n == name {
			return LogLevel(i), nil
		}
	}
	return LogLevelInfo, fmt.Errorf("unknown log level: %s", s)
}

// Logger is what the analyzer, loader and interpreter log through.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	SetLevel(level LogLevel)
	GetLevel() LogLevel
}

// sink is the level and destination shared by a logger and everything
// named off it.
type sink struct {
	mu     sync.RWMutex
	level  LogLevel
	logger *log.Logger
}

// DefaultLogger writes "[LEVEL] component: message" lines. Loggers derived
// with Named share their parent's level and output.
type DefaultLogger struct {
	*sink
	component string
}

func NewLogger(output io.Writer, level LogLevel) *DefaultLogger {
	return &DefaultLogger{sink: &sink{level: level, logger: log.New(output, "", log.LstdFlags)}}
}

// Named returns a logger that tags each line with component.
func (l *DefaultLogger) Named(component string) *DefaultLogger {
	return &DefaultLogger{sink: l.sink, component: component}
}

func (l *DefaultLogger) SetLevel(level LogLevel) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

func (l *DefaultLogger) GetLevel() LogLevel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

// SetOutput redirects the logger, returning the previous writer.
func (l *DefaultLogger) SetOutput(w io.Writer) io.Writer {
	l.mu.Lock()
	defer l.mu.Unlock()
	prev := l.logger.Writer()
	l.logger.SetOutput(w)
	return prev
}

func (l *DefaultLogger) emit(level LogLevel, format string, args []any) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if level < l.level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.component != "" {
		msg = l.component + ": " + msg
	}
	l.logger.Printf("[%s] %s", level, msg)
}

func (l *DefaultLogger) Debug(format string, args ...any) { l.emit(LogLevelDebug, format, args) }
func (l *DefaultLogger) Info(format string, args ...any)  { l.emit(LogLevelInfo, format, args) }
func (l *DefaultLogger) Warn(format string, args ...any)  { l.emit(LogLevelWarn, format, args) }
func (l *DefaultLogger) Error(format string, args ...any) { l.emit(LogLevelError, format, args) }

var globalLogger = NewLogger(os.Stderr, LogLevelInfo)

// Log returns the process wide logger. The CLI sets its level from
// --log-level; components take a Named child of it.
func Log() *DefaultLogger {
	return globalLogger
}

func SetLogLevel(level LogLevel) { globalLogger.SetLevel(level) }
func GetLogLevel() LogLevel      { return globalLogger.GetLevel() }

func Debug(format string, args ...any) { globalLogger.Debug(format, args...) }
func Info(format string, args ...any)  { globalLogger.Info(format, args...) }
func Warn(format string, args ...any)  { globalLogger.Warn(format, args...) }
func Error(format string, args ...any) { globalLogger.Error(format, args...) }

func init() {
	if s := os.Getenv(EnvLogLevel); s != "" {
		if level, err := ParseLogLevel(s); err == nil {
			SetLogLevel(level)
		}
	}
	// go test binaries only report errors
	if strings.HasSuffix(os.Args[0], ".test") {
		SetLogLevel(LogLevelError)
	}
}

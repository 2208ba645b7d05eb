// Package logging wraps the standard library's log.Logger with a level
// filter driven by the LOG_LEVEL environment variable.
//
// The teacher repo logs with plain `log.Println`/`log.Fatal` throughout
// (`render/hex8.go`, the `sdf` package) and never reaches for a structured
// logging library; flow4d keeps that texture rather than introducing one,
// adding only the level filter spec.md's ambient conventions call for.
package logging

import (
	"log"
	"os"
	"strings"
)

// Level is a logging severity, ordered Debug < Info < Warn < Error.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func parseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug, true
	case "info":
		return Info, true
	case "warn", "warning":
		return Warn, true
	case "error":
		return Error, true
	default:
		return Info, false
	}
}

// Logger filters a *log.Logger by minimum severity.
type Logger struct {
	min   Level
	inner *log.Logger
}

// New wraps dst at the given minimum level. A nil dst uses log.Default().
func New(min Level, dst *log.Logger) *Logger {
	if dst == nil {
		dst = log.Default()
	}
	return &Logger{min: min, inner: dst}
}

// FromEnv builds a Logger using LOG_LEVEL (debug|info|warn|error, default
// info) per spec.md §6 "Environment".
func FromEnv() *Logger {
	level := Info
	if s := os.Getenv("LOG_LEVEL"); s != "" {
		if l, ok := parseLevel(s); ok {
			level = l
		}
	}
	return New(level, nil)
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	if level < l.min {
		return
	}
	l.inner.Printf("["+level.String()+"] "+format, args...)
}

// Debugf logs at Debug severity.
func (l *Logger) Debugf(format string, args ...interface{}) { l.log(Debug, format, args...) }

// Infof logs at Info severity.
func (l *Logger) Infof(format string, args ...interface{}) { l.log(Info, format, args...) }

// Warnf logs at Warn severity.
func (l *Logger) Warnf(format string, args ...interface{}) { l.log(Warn, format, args...) }

// Errorf logs at Error severity.
func (l *Logger) Errorf(format string, args ...interface{}) { l.log(Error, format, args...) }

// Fatalf logs at Error severity then calls os.Exit(1), mirroring the
// teacher's direct use of log.Fatal at CLI entry points.
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.log(Error, format, args...)
	os.Exit(1)
}

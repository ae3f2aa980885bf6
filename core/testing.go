package core

import (
	"bytes"
	"testing"
)

// CaptureLog redirects the global logger into a buffer at the given level
// until the returned cleanup is called.
func CaptureLog(t testing.TB, level LogLevel) (*bytes.Buffer, func()) {
	t.Helper()
	buf := &bytes.Buffer{}
	prevLevel := GetLogLevel()
	prevOut := globalLogger.SetOutput(buf)
	SetLogLevel(level)
	return buf, func() {
		globalLogger.SetOutput(prevOut)
		SetLogLevel(prevLevel)
	}
}

// QuietTest silences everything below ERROR for the duration of a test.
func QuietTest(t testing.TB) func() {
	t.Helper()
	prev := GetLogLevel()
	SetLogLevel(LogLevelError)
	return func() { SetLogLevel(prev) }
}

// VerboseTest turns on debug logging when the test binary runs with -v.
func VerboseTest(t testing.TB) func() {
	t.Helper()
	prev := GetLogLevel()
	if testing.Verbose() {
		SetLogLevel(LogLevelDebug)
	}
	return func() { SetLogLevel(prev) }
}

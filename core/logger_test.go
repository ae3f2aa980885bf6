package core

import (
	"strings"
	"testing"
)

func TestLogger(t *testing.T) {
	buffer, cleanup := CaptureLog(t, LogLevelInfo)
	defer cleanup()

	Debug("This should not appear")
	Info("This should appear")
	Warn("This warning should appear")
	Error("This error should appear")

	logs := buffer.String()

	if strings.Contains(logs, "This should not appear") {
		t.Error("Debug log appeared when log level was Info")
	}
	if !strings.Contains(logs, "[INFO] This should appear") {
		t.Error("Info log did not appear")
	}
	if !strings.Contains(logs, "[WARN] This warning should appear") {
		t.Error("Warning log did not appear")
	}
	if !strings.Contains(logs, "[ERROR] This error should appear") {
		t.Error("Error log did not appear")
	}
}

func TestQuietTest(t *testing.T) {
	buffer, cleanup := CaptureLog(t, LogLevelDebug)
	defer cleanup()

	restore := QuietTest(t)
	Info("hidden")
	restore()
	Info("shown")

	logs := buffer.String()
	if strings.Contains(logs, "hidden") {
		t.Error("QuietTest did not silence info logs")
	}
	if !strings.Contains(logs, "shown") {
		t.Error("QuietTest did not restore the previous level")
	}
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
		hasError bool
	}{
		{"DEBUG", LogLevelDebug, false},
		{"debug", LogLevelDebug, false},
		{"INFO", LogLevelInfo, false},
		{"WARN", LogLevelWarn, false},
		{"WARNING", LogLevelWarn, false},
		{"ERROR", LogLevelError, false},
		{"OFF", LogLevelOff, false},
		{"NONE", LogLevelOff, false},
		{"INVALID", LogLevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLogLevel(tt.input)
			if tt.hasError && err == nil {
				t.Errorf("Expected error for input %s", tt.input)
			}
			if !tt.hasError && err != nil {
				t.Errorf("Unexpected error for input %s: %v", tt.input, err)
			}
			if level != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, level)
			}
		})
	}
}

func TestNamedLoggerSharesLevelAndOutput(t *testing.T) {
	buffer, cleanup := CaptureLog(t, LogLevelWarn)
	defer cleanup()

	analyzer := Log().Named("analyzer")
	analyzer.Info("dropped")
	analyzer.Warn("pass %d did not settle", 3)
	SetLogLevel(LogLevelInfo)
	analyzer.Info("kept")

	logs := buffer.String()
	if strings.Contains(logs, "dropped") {
		t.Error("named logger ignored the shared level")
	}
	if !strings.Contains(logs, "[WARN] analyzer: pass 3 did not settle") {
		t.Errorf("missing component prefix in %q", logs)
	}
	if !strings.Contains(logs, "[INFO] analyzer: kept") {
		t.Error("named logger did not follow a level change on its parent")
	}
}

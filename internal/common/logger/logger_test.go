package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestVerboseModeShowsDebugMessages(t *testing.T) {
	buf := new(bytes.Buffer)
	log := &Logger{
		level:  LevelInfo,
		output: buf,
	}

	log.Debug("debug message before verbose")
	if strings.Contains(buf.String(), "debug message before verbose") {
		t.Error("Debug message should not appear at Info level")
	}

	log.SetVerbose(true)

	log.Debug("debug message after verbose")
	if !strings.Contains(buf.String(), "debug message after verbose") {
		t.Error("Debug message should appear when verbose is enabled")
	}
}

func TestQuietModeSuppressesInfoMessages(t *testing.T) {
	buf := new(bytes.Buffer)
	log := &Logger{
		level:  LevelInfo,
		output: buf,
	}

	log.Info("info message before quiet")
	if !strings.Contains(buf.String(), "info message before quiet") {
		t.Error("Info message should appear at Info level")
	}

	buf.Reset()
	log.SetQuiet(true)

	log.Info("info message after quiet")
	if strings.Contains(buf.String(), "info message after quiet") {
		t.Error("Info message should not appear when quiet is enabled")
	}

	log.Error("error message in quiet mode")
	if !strings.Contains(buf.String(), "error message in quiet mode") {
		t.Error("Error message should appear even in quiet mode")
	}
}

func TestLogLevelHierarchy(t *testing.T) {
	tests := []struct {
		name        string
		level       Level
		expectDebug bool
		expectInfo  bool
		expectWarn  bool
		expectError bool
	}{
		{
			name:        "Debug level shows all",
			level:       LevelDebug,
			expectDebug: true,
			expectInfo:  true,
			expectWarn:  true,
			expectError: true,
		},
		{
			name:        "Info level hides debug",
			level:       LevelInfo,
			expectDebug: false,
			expectInfo:  true,
			expectWarn:  true,
			expectError: true,
		},
		{
			name:        "Warn level hides debug and info",
			level:       LevelWarn,
			expectDebug: false,
			expectInfo:  false,
			expectWarn:  true,
			expectError: true,
		},
		{
			name:        "Error level shows only errors",
			level:       LevelError,
			expectDebug: false,
			expectInfo:  false,
			expectWarn:  false,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			log := &Logger{
				level:  tt.level,
				output: buf,
			}

			log.Debug("debug")
			log.Info("info")
			log.Warn("warn")
			log.Error("error")

			output := buf.String()

			if tt.expectDebug != strings.Contains(output, "debug") {
				t.Errorf("Debug: expected %v, got %v", tt.expectDebug, strings.Contains(output, "debug"))
			}
			if tt.expectInfo != strings.Contains(output, "info") {
				t.Errorf("Info: expected %v, got %v", tt.expectInfo, strings.Contains(output, "info"))
			}
			if tt.expectWarn != strings.Contains(output, "warn") {
				t.Errorf("Warn: expected %v, got %v", tt.expectWarn, strings.Contains(output, "warn"))
			}
			if tt.expectError != strings.Contains(output, "error") {
				t.Errorf("Error: expected %v, got %v", tt.expectError, strings.Contains(output, "error"))
			}
		})
	}
}

func TestSetVerboseEnablesDebugLevel(t *testing.T) {
	log := &Logger{level: LevelInfo}
	log.SetVerbose(true)
	if log.level != LevelDebug {
		t.Errorf("SetVerbose(true) should set level to Debug, got %v", log.level)
	}
}

func TestSetQuietEnablesErrorLevel(t *testing.T) {
	log := &Logger{level: LevelInfo}
	log.SetQuiet(true)
	if log.level != LevelError {
		t.Errorf("SetQuiet(true) should set level to Error, got %v", log.level)
	}
}

func TestPackageLevelFunctions(t *testing.T) {
	once = sync.Once{}
	defaultLogger = nil

	buf := new(bytes.Buffer)
	once.Do(func() {
		defaultLogger = &Logger{
			level:  LevelDebug,
			output: buf,
		}
	})

	Debug("debug test")
	Info("info test")
	Warn("warn test")
	Error("error test")

	output := buf.String()
	for _, want := range []string{"debug test", "info test", "warn test", "error test"} {
		if !strings.Contains(output, want) {
			t.Errorf("package-level logging missed %q", want)
		}
	}
}
